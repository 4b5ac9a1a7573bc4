// Package auth issues and verifies access tokens, hashes passwords and
// resolves bearer credentials to active users.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

// DefaultTokenTTL is the validity of an access token.
const DefaultTokenTTL = 8 * time.Hour

// Claims are the access token claims. Subject holds the user id.
type Claims struct {
	Role models.Role `json:"rol"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager. A non-positive ttl uses
// DefaultTokenTTL.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for user and returns it with its expiry.
func (m *TokenManager) Issue(user *models.User) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)

	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies signature and expiry and returns the claims and user id.
// Every failure is an INVALID_TOKEN error.
func (m *TokenManager) Parse(token string) (*Claims, int, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		msg := "token inválido"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "token expirado"
		}
		return nil, 0, apperror.Wrap(apperror.CodeInvalidToken, msg, err)
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID <= 0 {
		return nil, 0, apperror.New(apperror.CodeInvalidToken, "token inválido")
	}
	return claims, userID, nil
}
