package app

import (
	"context"

	"equipdata/domain/core"
	"equipdata/internal"
	"equipdata/internal/errors"
	"equipdata/internal/token"
	"equipdata/models"
	"equipdata/ports"

	"golang.org/x/crypto/bcrypt"
)

// TokenPair is the response body of the token and signup endpoints.
type TokenPair struct {
	Access  string            `json:"access"`
	Refresh string            `json:"refresh"`
	User    models.PublicUser `json:"user"`
}

// AuthService issues and refreshes the JWT pair against the user store.
type AuthService struct {
	users  ports.UserRepository
	tokens *token.Manager
	log    *internal.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users ports.UserRepository, tokens *token.Manager, logger *internal.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: logger}
}

// Login verifies the credentials and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.GetCode(err) == errors.CodeNotFound {
			return nil, errors.Unauthorized("invalid username or password")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errors.Unauthorized("invalid username or password")
	}
	if !user.IsActive {
		return nil, errors.Unauthorized("account is disabled")
	}

	return s.issuePair(user)
}

// Signup creates a new account and issues its first token pair.
func (s *AuthService) Signup(ctx context.Context, username, password, email string) (*TokenPair, error) {
	if username == "" {
		return nil, errors.InvalidInput("username is required")
	}
	if len(password) < 8 {
		return nil, errors.InvalidInput("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user %s registered", username)
	return s.issuePair(user)
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself stays valid until it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Verify(refreshToken, token.TypeRefresh)
	if err != nil {
		return "", err
	}

	userID, err := claims.GetSubject()
	if err != nil {
		return "", errors.Unauthorized("invalid token claims")
	}
	id, err := core.ParseUserID(userID)
	if err != nil {
		return "", errors.Unauthorized("invalid token claims")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.GetCode(err) == errors.CodeNotFound {
			return "", errors.Unauthorized("user no longer exists")
		}
		return "", err
	}
	if !user.IsActive {
		return "", errors.Unauthorized("account is disabled")
	}

	return s.tokens.NewAccessToken(user)
}

func (s *AuthService) issuePair(user *models.User) (*TokenPair, error) {
	access, err := s.tokens.NewAccessToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign access token")
	}
	refresh, err := s.tokens.NewRefreshToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign refresh token")
	}

	return &TokenPair{
		Access:  access,
		Refresh: refresh,
		User:    user.Public(),
	}, nil
}
