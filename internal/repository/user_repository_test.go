package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

func TestUserRepository(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	repo := NewUserRepository(tx)

	user := createTestUser(t, tx, "Marta", models.RoleCoach)
	require.True(t, user.Active)

	t.Run("gets user by id", func(t *testing.T) {
		got, err := repo.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, "Marta", got.Username)
		require.Equal(t, models.RoleCoach, got.Role)
	})

	t.Run("gets user by username case-insensitive", func(t *testing.T) {
		got, err := repo.GetUserByUsername(ctx, "marta")
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)

		exists, err := repo.UsernameExists(ctx, "MARTA")
		require.NoError(t, err)
		require.True(t, exists)
	})

	t.Run("toggles active", func(t *testing.T) {
		got, err := repo.SetActive(ctx, user.ID, false)
		require.NoError(t, err)
		require.False(t, got.Active)
	})

	t.Run("lists users", func(t *testing.T) {
		createTestUser(t, tx, "admin", models.RoleAdmin)
		users, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
	})
}
