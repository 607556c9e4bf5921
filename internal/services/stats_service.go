package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ecochamps/internal/cache"
	"ecochamps/internal/models"
	"ecochamps/internal/repositories"
)

// leaderboardCacheKey holds the cached ranking; every point-moving write
// path invalidates it.
const leaderboardCacheKey = "leaderboard:top"

// leaderboardTTL bounds staleness when the invalidation hooks are missed.
const leaderboardTTL = 30 * time.Second

// statsService implements StatsService. User stats are a pure fold over the
// live account and log set, recomputed on every request so a log deletion
// is reflected immediately. Only the leaderboard gets a short-TTL cache.
type statsService struct {
	userRepo repositories.UserRepository
	logRepo  repositories.WasteLogRepository
	cache    cache.Cache
	logger   *zap.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(
	userRepo repositories.UserRepository,
	logRepo repositories.WasteLogRepository,
	cache cache.Cache,
	logger *zap.Logger,
) StatsService {
	return &statsService{
		userRepo: userRepo,
		logRepo:  logRepo,
		cache:    cache,
		logger:   logger,
	}
}

// GetUserStats computes the user's impact summary from live data
func (s *statsService) GetUserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	if userID <= 0 {
		return nil, NewValidationError("invalid user ID", nil)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load user for stats", zap.Error(err), zap.Int64("user_id", userID))
		return nil, NewInternalError("failed to compute user stats")
	}
	if user == nil {
		return nil, EntityNotFoundError("user", userID)
	}

	logs, err := s.logRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load logs for stats", zap.Error(err), zap.Int64("user_id", userID))
		return nil, NewInternalError("failed to compute user stats")
	}

	return FoldStats(user, logs), nil
}

// FoldStats computes the derived impact view from an account and its logs.
// CO2 savings apply the fixed factor to Recycled quantities only; waste
// diverted sums quantity across every category.
func FoldStats(user *models.User, logs []*models.WasteLogEntry) *models.UserStats {
	stats := &models.UserStats{
		UserID:         user.ID,
		EcoPoints:      user.EcoPoints,
		Badges:         append([]string{}, user.Badges...),
		LogCount:       len(logs),
		WasteBreakdown: make(map[models.WasteCategory]float64),
	}

	for _, entry := range logs {
		stats.WasteBreakdown[entry.Category] += entry.Quantity
		stats.WasteDiverted += entry.Quantity
		if entry.Category == models.CategoryRecycled {
			stats.CO2Saved += entry.Quantity * models.CO2SavingsPerKg
		}
	}
	return stats
}

// GetLeaderboard returns the points-descending ranking, cached briefly
func (s *statsService) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	if cached, found := s.cache.Get(ctx, leaderboardCacheKey); found {
		if entries, ok := cached.([]*models.LeaderboardEntry); ok && len(entries) >= limit {
			return entries[:limit], nil
		}
	}

	entries, err := s.userRepo.Leaderboard(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to compute leaderboard", zap.Error(err))
		return nil, NewInternalError("failed to compute leaderboard")
	}

	if err := s.cache.Set(ctx, leaderboardCacheKey, entries, leaderboardTTL); err != nil {
		s.logger.Debug("Failed to cache leaderboard", zap.Error(err))
	}
	return entries, nil
}
