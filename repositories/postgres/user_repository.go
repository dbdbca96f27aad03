package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/campus-eats/models"
	"github.com/upb/campus-eats/repositories"
	"go.uber.org/zap"
)

const userColumns = `id, external_subject_id, email, display_name, role, created_at, updated_at`

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		user.ID,
		user.ExternalSubjectID,
		user.Email,
		user.DisplayName,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "create user")
	}

	r.logger.Debug("user created", zap.String("id", user.ID.String()))
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByExternalSubject retrieves a user by identity-provider subject
func (r *UserRepository) GetByExternalSubject(ctx context.Context, subject string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE external_subject_id = $1`
	return r.getOne(ctx, query, subject)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	executor := GetExecutor(ctx, r.db)
	user := &models.User{}

	err := executor.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.ExternalSubjectID,
		&user.Email,
		&user.DisplayName,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "get user")
	}

	return user, nil
}

// UpdateProfile updates email and display name
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $2,
		    display_name = $3,
		    updated_at = $4
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "update user")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repositories.ErrNotFound
	}

	r.logger.Debug("user profile updated", zap.String("id", user.ID.String()))
	return nil
}
