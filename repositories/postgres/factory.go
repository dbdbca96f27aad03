package postgres

import (
	"context"

	"github.com/upb/campus-eats/config"
	"github.com/upb/campus-eats/models"
	"github.com/upb/campus-eats/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory opens the pool and creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &RepositoryFactory{db: db, logger: logger}, nil
}

// NewRepositoryFactoryFromDB creates a factory over an existing pool
func NewRepositoryFactoryFromDB(db *DB, logger *zap.Logger) *RepositoryFactory {
	return &RepositoryFactory{db: db, logger: logger}
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:       NewUserRepository(f.db, f.logger),
		Restaurants: NewRestaurantRepository(f.db, f.logger),
		Orders:      NewOrderRepository(f.db, f.logger),
	}
}

// GetTransactionManager returns a transaction manager
func (f *RepositoryFactory) GetTransactionManager() repositories.TransactionManager {
	return NewTransactionManager(f.db, f.logger)
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Seed inserts the given restaurants in a single transaction
func (f *RepositoryFactory) Seed(ctx context.Context, restaurants []*models.Restaurant) error {
	repo := NewRestaurantRepository(f.db, f.logger)
	return f.GetTransactionManager().InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		for _, r := range restaurants {
			if err := repo.Create(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
