package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

const testSecret = "test-secret-with-at-least-32-characters!"

type fakeUsers map[int]*models.User

func (f fakeUsers) GetUserByID(_ context.Context, id int) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("failed to get user: %w", pgx.ErrNoRows)
	}
	return u, nil
}

func TestTokenManager(t *testing.T) {
	user := &models.User{ID: 42, Role: models.RoleAdmin}

	t.Run("round trips subject and role", func(t *testing.T) {
		m := NewTokenManager(testSecret, 0)
		token, expires, err := m.Issue(user)
		require.NoError(t, err)
		require.WithinDuration(t, time.Now().Add(8*time.Hour), expires, time.Minute)

		claims, id, err := m.Parse(token)
		require.NoError(t, err)
		require.Equal(t, 42, id)
		require.Equal(t, models.RoleAdmin, claims.Role)
	})

	t.Run("rejects wrong signature", func(t *testing.T) {
		token, _, err := NewTokenManager("another-secret-of-32-characters-long", time.Hour).Issue(user)
		require.NoError(t, err)

		_, _, err = NewTokenManager(testSecret, time.Hour).Parse(token)
		require.True(t, apperror.HasCode(err, apperror.CodeInvalidToken))
	})

	t.Run("rejects expired token", func(t *testing.T) {
		m := NewTokenManager(testSecret, time.Hour)
		m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := m.Issue(user)
		require.NoError(t, err)

		_, _, err = NewTokenManager(testSecret, time.Hour).Parse(token)
		require.True(t, apperror.HasCode(err, apperror.CodeInvalidToken))
		require.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("rejects other algorithms", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "42",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, _, err = NewTokenManager(testSecret, time.Hour).Parse(token)
		require.True(t, apperror.HasCode(err, apperror.CodeInvalidToken))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, _, err := NewTokenManager(testSecret, time.Hour).Parse("not-a-jwt")
		require.True(t, apperror.HasCode(err, apperror.CodeInvalidToken))
	})
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.True(t, CheckPassword(hash, "correct horse"))
	require.False(t, CheckPassword(hash, "wrong horse"))

	_, err = HashPassword("short")
	require.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		token   string
		present bool
		wantErr bool
	}{
		{"", "", false, false},
		{"   ", "", false, false},
		{"Bearer abc", "abc", true, false},
		{"bearer abc", "abc", true, false},
		{"Basic abc", "", true, true},
		{"Bearer", "", true, true},
		{"Bearer   ", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, present, err := BearerToken(tt.header)
			require.Equal(t, tt.present, present)
			if tt.wantErr {
				require.True(t, apperror.HasCode(err, apperror.CodeInvalidToken))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.token, token)
		})
	}
}

func TestGate_Authenticate(t *testing.T) {
	tokens := NewTokenManager(testSecret, time.Hour)
	users := fakeUsers{
		1: {ID: 1, Role: models.RoleAdmin, Active: true},
		2: {ID: 2, Role: models.RoleCoach, Active: false},
	}
	bearer := func(t *testing.T, id int) string {
		t.Helper()
		token, _, err := tokens.Issue(&models.User{ID: id, Role: models.RoleCoach})
		require.NoError(t, err)
		return "Bearer " + token
	}
	ctx := context.Background()

	t.Run("missing token", func(t *testing.T) {
		_, err := NewGate(tokens, users, DevBypass{}).Authenticate(ctx, "")
		require.True(t, apperror.HasCode(err, apperror.CodeNoToken))
	})

	t.Run("dev bypass substitutes the development user", func(t *testing.T) {
		user, err := NewGate(tokens, users, DevBypass{Enabled: true, UserID: 1}).Authenticate(ctx, "")
		require.NoError(t, err)
		require.Equal(t, 1, user.ID)
	})

	t.Run("dev bypass still validates presented tokens", func(t *testing.T) {
		_, err := NewGate(tokens, users, DevBypass{Enabled: true, UserID: 1}).Authenticate(ctx, "Bearer junk")
		require.True(t, apperror.HasCode(err, apperror.CodeInvalidToken))
	})

	t.Run("valid token resolves the user", func(t *testing.T) {
		user, err := NewGate(tokens, users, DevBypass{}).Authenticate(ctx, bearer(t, 1))
		require.NoError(t, err)
		require.True(t, user.IsAdmin())
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := NewGate(tokens, users, DevBypass{}).Authenticate(ctx, bearer(t, 99))
		require.True(t, apperror.HasCode(err, apperror.CodeUserNotFound))
	})

	t.Run("inactive user", func(t *testing.T) {
		_, err := NewGate(tokens, users, DevBypass{}).Authenticate(ctx, bearer(t, 2))
		require.True(t, apperror.HasCode(err, apperror.CodeUserInactive))
	})

	t.Run("lookup failures are not domain errors", func(t *testing.T) {
		gate := NewGate(tokens, failingUsers{}, DevBypass{})
		_, err := gate.Authenticate(ctx, bearer(t, 1))
		require.Error(t, err)
		_, isDomain := apperror.As(err)
		require.False(t, isDomain)
	})
}

type failingUsers struct{}

func (failingUsers) GetUserByID(context.Context, int) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func TestRequireAdmin(t *testing.T) {
	require.True(t, apperror.HasCode(RequireAdmin(nil), apperror.CodeNotAuthenticated))
	require.True(t, apperror.HasCode(RequireAdmin(&models.User{Role: models.RoleCoach}), apperror.CodeAdminRequired))
	require.NoError(t, RequireAdmin(&models.User{Role: models.RoleAdmin}))
}
