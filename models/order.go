package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents where an order is in its lifecycle
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a customer's order from one restaurant
type Order struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	UserID       uuid.UUID   `json:"user_id" db:"user_id"`
	RestaurantID uuid.UUID   `json:"restaurant_id" db:"restaurant_id"`
	Status       OrderStatus `json:"status" db:"status"`
	TotalCents   int64       `json:"total_cents" db:"total_cents"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}
