package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"equipdata/domain/core"
	"equipdata/internal/errors"
	"equipdata/models"
	"equipdata/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// UserRepositoryImpl implements UserRepository for PostgreSQL
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create inserts a new user, assigning an ID if none is set.
func (r *UserRepositoryImpl) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, NOW(), NOW())
		RETURNING created_at, updated_at
	`, user.ID, user.Username, user.Email, user.PasswordHash).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return errors.InvalidInput("username already exists")
		}
		return errors.DatabaseError("failed to create user", err)
	}

	user.IsActive = true
	return nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepositoryImpl) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, username, email, password_hash, is_active, created_at, updated_at
		FROM users
		WHERE username = $1
	`, username)

	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("user")
		}
		return nil, errors.DatabaseError("failed to load user", err)
	}

	return &user, nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepositoryImpl) GetByID(ctx context.Context, id core.UserID) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, username, email, password_hash, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)

	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("user")
		}
		return nil, errors.DatabaseError("failed to load user", err)
	}

	return &user, nil
}
