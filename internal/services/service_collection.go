package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ecochamps/internal/cache"
	"ecochamps/internal/config"
	"ecochamps/internal/database"
	"ecochamps/internal/events"
	"ecochamps/internal/repositories"
)

// ServiceCollection wires every service with its dependencies
type ServiceCollection struct {
	UserService      UserService
	WasteLogService  WasteLogService
	ChallengeService ChallengeService
	StatsService     StatsService
	BadgeService     BadgeService

	Cache     cache.Cache
	EventBus  events.EventBus
	Logger    *zap.Logger
	Config    *config.Config
	DBManager *database.Manager
}

// NewServiceCollection builds the full Postgres-backed service graph
func NewServiceCollection(
	db *database.Manager,
	cacheImpl cache.Cache,
	bus events.EventBus,
	cfg *config.Config,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if db == nil {
		return nil, fmt.Errorf("database manager is required")
	}

	userRepo := repositories.NewUserRepository(db, logger)
	logRepo := repositories.NewWasteLogRepository(db, logger)
	challengeRepo := repositories.NewChallengeRepository(db, logger)
	badgeRepo := repositories.NewBadgeRepository(db, logger)

	return &ServiceCollection{
		UserService:      NewUserService(userRepo, cacheImpl, bus, cfg.Auth.BCryptCost, logger),
		WasteLogService:  NewWasteLogService(logRepo, userRepo, cacheImpl, bus, logger),
		ChallengeService: NewChallengeService(challengeRepo, userRepo, cacheImpl, bus, logger),
		StatsService:     NewStatsService(userRepo, logRepo, cacheImpl, logger),
		BadgeService:     NewBadgeService(badgeRepo, logger),
		Cache:            cacheImpl,
		EventBus:         bus,
		Logger:           logger,
		Config:           cfg,
		DBManager:        db,
	}, nil
}

// NewMemoryServiceCollection builds the service graph over the in-memory
// store. Used by tests and local development without Postgres.
func NewMemoryServiceCollection(
	store *repositories.MemoryStore,
	cacheImpl cache.Cache,
	bus events.EventBus,
	logger *zap.Logger,
) *ServiceCollection {
	userRepo := store.Users()
	logRepo := store.Logs()
	challengeRepo := store.Challenges()
	badgeRepo := store.Badges()

	return &ServiceCollection{
		UserService:      NewUserService(userRepo, cacheImpl, bus, bcrypt.MinCost, logger),
		WasteLogService:  NewWasteLogService(logRepo, userRepo, cacheImpl, bus, logger),
		ChallengeService: NewChallengeService(challengeRepo, userRepo, cacheImpl, bus, logger),
		StatsService:     NewStatsService(userRepo, logRepo, cacheImpl, logger),
		BadgeService:     NewBadgeService(badgeRepo, logger),
		Cache:            cacheImpl,
		EventBus:         bus,
		Logger:           logger,
	}
}

// Shutdown stops the event bus and releases infrastructure handles
func (c *ServiceCollection) Shutdown(ctx context.Context) error {
	var firstErr error

	if c.EventBus != nil {
		if err := c.EventBus.Stop(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to stop event bus: %w", err)
		}
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close cache: %w", err)
		}
	}
	if c.DBManager != nil {
		if err := c.DBManager.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close database: %w", err)
		}
	}
	return firstErr
}
