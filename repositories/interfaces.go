package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/campus-eats/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("duplicate record")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
}

// UserRepository handles local user records keyed by external subject
type UserRepository interface {
	// Create inserts a new user; returns ErrDuplicate when the external subject already exists
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID; returns ErrNotFound when absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByExternalSubject retrieves a user by identity-provider subject; returns ErrNotFound when absent
	GetByExternalSubject(ctx context.Context, subject string) (*models.User, error)

	// UpdateProfile writes email, display name and updated_at in one statement
	UpdateProfile(ctx context.Context, user *models.User) error
}

// RestaurantRepository handles restaurant data operations
type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *models.Restaurant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)

	// List retrieves restaurants ordered by name, optionally only open ones
	List(ctx context.Context, openOnly bool) ([]*models.Restaurant, error)
}

// OrderRepository handles order data operations
type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)

	// ListByUser retrieves a user's orders, newest first
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Order, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users       UserRepository
	Restaurants RestaurantRepository
	Orders      OrderRepository
}
