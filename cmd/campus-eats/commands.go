package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/upb/campus-eats/app"
	"github.com/upb/campus-eats/config"
	"github.com/upb/campus-eats/internal/observability"
	"github.com/upb/campus-eats/models"
	"github.com/upb/campus-eats/repositories/postgres"
	"github.com/upb/campus-eats/routes"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "campus-eats",
		Short:         "Campus food-ordering backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			return serve(ctx, cfg, logger)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return migrate(ctx, cfg, logger, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "insert a starter set of campus restaurants")
	return cmd
}

func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Observability, cfg.Environment)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = deps.Close(context.Background())
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	return deps.Close(shutdownCtx)
}

func migrate(ctx context.Context, cfg *config.Config, logger *zap.Logger, seed bool) error {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = factory.Close() }()

	return runMigrations(ctx, factory, seed)
}

func runMigrations(ctx context.Context, factory *postgres.RepositoryFactory, seed bool) error {
	if err := factory.GetDB().InitSchema(ctx); err != nil {
		return err
	}
	if !seed {
		return nil
	}
	return factory.Seed(ctx, starterRestaurants())
}

func starterRestaurants() []*models.Restaurant {
	list := []*models.Restaurant{
		models.NewRestaurant("Cafetería Central", "Bloque 10"),
		models.NewRestaurant("Arepas La 70", "Plazoleta de Comidas"),
		models.NewRestaurant("Wok Express", "Bloque 22"),
		models.NewRestaurant("Jugos y Frutas", "Biblioteca"),
	}
	for _, r := range list {
		r.IsOpen = true
	}
	return list
}
