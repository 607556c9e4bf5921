package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ecochamps/internal/cache"
	"ecochamps/internal/config"
	"ecochamps/internal/database"
	"ecochamps/internal/events"
	"ecochamps/internal/middleware"
	"ecochamps/internal/response"
	"ecochamps/internal/router"
	"ecochamps/internal/services"
	"ecochamps/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting EcoChamps API",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	dbManager, err := database.NewManager(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbManager.Close()

	waitCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.HealthWaitTimeout)
	defer cancel()
	if err := database.WaitUntilHealthy(waitCtx, dbManager, logger); err != nil {
		return err
	}

	if err := dbManager.Migrate(cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Database ready")

	cacheInstance, err := cache.New(&cfg.Cache, logger)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}

	eventBus := events.NewInMemoryEventBus(logger)
	if err := eventBus.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}

	svc, err := services.NewServiceCollection(dbManager, cacheInstance, eventBus, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Photo storage is optional; without credentials the API still runs,
	// rejecting only multipart submissions that carry an image.
	var images utils.ImageStorage
	if cloudinarySvc, err := utils.NewCloudinaryService(utils.DefaultCloudinaryConfig(), logger); err != nil {
		logger.Warn("Image storage disabled", zap.Error(err))
	} else {
		images = cloudinarySvc
		logger.Info("Image storage initialized")
	}

	builder := response.NewBuilder(logger)
	tokens := middleware.NewTokenIssuer(&cfg.Auth, logger)
	handler := router.New(svc, tokens, images, builder, logger)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Error("Service shutdown reported errors", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}

// initLogger builds the zap logger for the configured environment.
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Server.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
