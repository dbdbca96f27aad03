package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/upb/campus-eats/auth"
	"github.com/upb/campus-eats/config"
	"github.com/upb/campus-eats/handlers"
	"github.com/upb/campus-eats/idp"
	"github.com/upb/campus-eats/internal/observability"
	"github.com/upb/campus-eats/middleware"
	"github.com/upb/campus-eats/repositories"
	"github.com/upb/campus-eats/repositories/postgres"
	"github.com/upb/campus-eats/services/directory"
	"github.com/upb/campus-eats/session"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// It is built once at start-up and handed to the router.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users       repositories.UserRepository
	Restaurants repositories.RestaurantRepository
	Orders      repositories.OrderRepository

	// Identity and sessions
	IdentityProvider *idp.Client
	Directory        *directory.Directory
	SessionStore     session.Store
	Sessions         *session.Authority
	Codec            *session.Codec
	redis            *redis.Client

	// HTTP
	AuthHandler       *auth.Handler
	SessionMiddleware *middleware.SessionMiddleware
	HealthHandler     *handlers.HealthHandler
	UserHandler       *handlers.UserHandler
	CatalogHandler    *handlers.CatalogHandler
}

// NewDependencies opens the database and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(ctx, cfg, logger, factory)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires dependencies over an already opened repository factory
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger, factory *postgres.RepositoryFactory) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		Metrics:     observability.NewMetrics(),
		RepoFactory: factory,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initIdentityProvider(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize identity provider: %w", err)
	}

	if err := deps.initSessions(ctx, cfg); err != nil {
		deps.closeRedis()
		return nil, fmt.Errorf("failed to initialize sessions: %w", err)
	}

	deps.initHandlers(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase checks the connection and makes sure the schema exists
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	d.DB = d.RepoFactory.GetDB()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Restaurants = repos.Restaurants
	d.Orders = repos.Orders
	d.Directory = directory.New(d.Users, d.Metrics, d.Logger)

	d.Logger.Info("repositories initialized")
}

// initIdentityProvider runs OIDC discovery. Without configuration the login
// endpoints stay mounted but answer 500.
func (d *Dependencies) initIdentityProvider(ctx context.Context, cfg *config.Config) error {
	if !cfg.OIDC.Configured() {
		d.Logger.Warn("identity provider not configured, login disabled")
		return nil
	}

	client, err := idp.New(ctx, cfg.OIDC, d.Logger)
	if err != nil {
		return err
	}
	d.IdentityProvider = client
	d.Logger.Info("identity provider initialized", zap.String("issuer", cfg.OIDC.Issuer()))
	return nil
}

// initSessions builds the session store, signing codec and authority
func (d *Dependencies) initSessions(ctx context.Context, cfg *config.Config) error {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := session.NewRedisStore(d.redis)
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		d.SessionStore = store
		d.Logger.Info("using redis session store", zap.String("addr", cfg.Redis.Addr))
	default:
		d.SessionStore = session.NewMemoryStore(time.Minute)
		d.Logger.Info("using in-memory session store")
	}

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		if cfg.IsProduction() {
			return errors.New("session secret is required in production")
		}
		d.Logger.Warn("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate session secret: %w", err)
		}
	}

	codec, err := session.NewCodec(secret)
	if err != nil {
		return err
	}
	d.Codec = codec
	d.Sessions = session.NewAuthority(d.SessionStore, d.Directory, cfg.Session.TTL, d.Metrics, d.Logger)
	return nil
}

func (d *Dependencies) initHandlers(cfg *config.Config) {
	var provider auth.IdentityProvider
	if d.IdentityProvider != nil {
		provider = d.IdentityProvider
	}
	d.AuthHandler = auth.NewHandler(cfg, provider, d.Directory, d.Sessions, d.Codec, d.Metrics, d.Logger)
	d.SessionMiddleware = middleware.NewSessionMiddleware(d.Codec, d.Sessions, cfg.Session.CookieName, d.Logger)

	var sessionPinger handlers.Pinger
	if store, ok := d.SessionStore.(*session.RedisStore); ok {
		sessionPinger = store
	}
	d.HealthHandler = handlers.NewHealthHandler(d.DB, sessionPinger, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.Logger)
	d.CatalogHandler = handlers.NewCatalogHandler(d.Restaurants, d.Orders, d.Logger)
}

func (d *Dependencies) closeRedis() error {
	if d.redis == nil {
		return nil
	}
	err := d.redis.Close()
	d.redis = nil
	return err
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if err := d.closeRedis(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
