// Package token creates and verifies the JWT access/refresh pair.
package token

import (
	"time"

	"equipdata/internal/errors"
	"equipdata/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the token_type claim. A refresh token is never
// accepted where an access token is expected, and vice versa.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims are the claims carried by both token types.
type Claims struct {
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with a shared HMAC secret.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager creates a token manager.
func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// NewAccessToken issues a short-lived access token for the user.
func (m *Manager) NewAccessToken(user *models.User) (string, error) {
	return m.sign(user, TypeAccess, m.accessTTL)
}

// NewRefreshToken issues a refresh token for the user. Each refresh token
// carries a unique JTI.
func (m *Manager) NewRefreshToken(user *models.User) (string, error) {
	return m.sign(user, TypeRefresh, m.refreshTTL)
}

func (m *Manager) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:  user.Username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses the token, checks the signature and expiry, and enforces the
// expected token type.
func (m *Manager) Verify(tokenStr, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Unauthorized("unexpected token signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.Unauthorized("invalid or expired token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.Unauthorized("invalid token claims")
	}
	if claims.TokenType != wantType {
		return nil, errors.Unauthorized("wrong token type")
	}

	return claims, nil
}
