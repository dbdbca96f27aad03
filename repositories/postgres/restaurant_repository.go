package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/campus-eats/models"
	"github.com/upb/campus-eats/repositories"
	"go.uber.org/zap"
)

// RestaurantRepository implements the repositories.RestaurantRepository interface
type RestaurantRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRestaurantRepository creates a new restaurant repository
func NewRestaurantRepository(db *DB, logger *zap.Logger) repositories.RestaurantRepository {
	return &RestaurantRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new restaurant
func (r *RestaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	query := `
		INSERT INTO restaurants (id, name, location, is_open, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		restaurant.ID,
		restaurant.Name,
		restaurant.Location,
		restaurant.IsOpen,
		restaurant.CreatedAt,
		restaurant.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "create restaurant")
	}

	r.logger.Debug("restaurant created", zap.String("id", restaurant.ID.String()), zap.String("name", restaurant.Name))
	return nil
}

// GetByID retrieves a restaurant by ID
func (r *RestaurantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	query := `
		SELECT id, name, location, is_open, created_at, updated_at
		FROM restaurants
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	restaurant := &models.Restaurant{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&restaurant.ID,
		&restaurant.Name,
		&restaurant.Location,
		&restaurant.IsOpen,
		&restaurant.CreatedAt,
		&restaurant.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "get restaurant")
	}

	return restaurant, nil
}

// List retrieves restaurants ordered by name
func (r *RestaurantRepository) List(ctx context.Context, openOnly bool) ([]*models.Restaurant, error) {
	query := `
		SELECT id, name, location, is_open, created_at, updated_at
		FROM restaurants
		WHERE ($1 = false OR is_open = true)
		ORDER BY name ASC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, openOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query restaurants: %w", err)
	}
	defer rows.Close()

	restaurants := make([]*models.Restaurant, 0)
	for rows.Next() {
		restaurant := &models.Restaurant{}
		if err := rows.Scan(
			&restaurant.ID,
			&restaurant.Name,
			&restaurant.Location,
			&restaurant.IsOpen,
			&restaurant.CreatedAt,
			&restaurant.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan restaurant: %w", err)
		}
		restaurants = append(restaurants, restaurant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating restaurant rows: %w", err)
	}

	return restaurants, nil
}
