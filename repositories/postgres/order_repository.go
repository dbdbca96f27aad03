package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/campus-eats/models"
	"github.com/upb/campus-eats/repositories"
	"go.uber.org/zap"
)

// OrderRepository implements the repositories.OrderRepository interface
type OrderRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *DB, logger *zap.Logger) repositories.OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `
		SELECT id, user_id, restaurant_id, status, total_cents, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	order := &models.Order{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.RestaurantID,
		&order.Status,
		&order.TotalCents,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "get order")
	}

	return order, nil
}

// ListByUser retrieves a user's orders with pagination
func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Order, error) {
	query := `
		SELECT id, user_id, restaurant_id, status, total_cents, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.RestaurantID,
			&order.Status,
			&order.TotalCents,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	return orders, nil
}
