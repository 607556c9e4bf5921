package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ecochamps/internal/cache"
	"ecochamps/internal/events"
	"ecochamps/internal/models"
	"ecochamps/internal/repositories"
	"ecochamps/internal/validation"
)

// logService implements WasteLogService. Point movement on the log side of
// the ledger happens only here: a submit credits the owner in the same
// atomic unit that stores the entry, and a delete reverses exactly the
// points the entry awarded, regardless of what rate tables say today.
type logService struct {
	logRepo  repositories.WasteLogRepository
	userRepo repositories.UserRepository
	cache    cache.Cache
	events   events.EventBus
	logger   *zap.Logger
}

// NewWasteLogService creates a new waste log service
func NewWasteLogService(
	logRepo repositories.WasteLogRepository,
	userRepo repositories.UserRepository,
	cache cache.Cache,
	events events.EventBus,
	logger *zap.Logger,
) WasteLogService {
	return &logService{
		logRepo:  logRepo,
		userRepo: userRepo,
		cache:    cache,
		events:   events,
		logger:   logger,
	}
}

// SubmitLog records a disposal event and credits the owner's points
func (s *logService) SubmitLog(ctx context.Context, req *SubmitLogRequest) (*models.WasteLogEntry, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid log submission", err)
	}

	category, ok := models.ParseWasteCategory(req.Category)
	if !ok {
		return nil, NewValidationError(fmt.Sprintf("unknown waste category %q", req.Category), nil)
	}

	entry := &models.WasteLogEntry{
		UserID:        req.UserID,
		Category:      category,
		Quantity:      req.Quantity,
		PointsAwarded: req.PointsAwarded,
		Comment:       req.Comment,
		ImageURL:      req.ImageURL,
		ImagePublicID: req.ImagePublicID,
	}

	if err := s.logRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, EntityNotFoundError("user", req.UserID)
		}
		s.logger.Error("Failed to create waste log",
			zap.Error(err),
			zap.Int64("user_id", req.UserID),
			zap.String("category", string(category)),
		)
		return nil, NewInternalError("failed to record waste log")
	}

	s.invalidateUser(ctx, req.UserID)

	if err := s.events.Publish(ctx, events.NewLogSubmittedEvent(req.UserID, entry)); err != nil {
		s.logger.Warn("Failed to publish log submitted event", zap.Error(err), zap.Int64("log_id", entry.ID))
	}

	s.logger.Info("Waste log recorded",
		zap.Int64("log_id", entry.ID),
		zap.Int64("user_id", entry.UserID),
		zap.String("category", string(entry.Category)),
		zap.Int64("points_awarded", entry.PointsAwarded),
	)
	return entry, nil
}

// DeleteLog removes a log entry and reverses its point contribution. Only
// the entry's owner may delete it.
func (s *logService) DeleteLog(ctx context.Context, logID, requesterID int64) error {
	if logID <= 0 {
		return NewValidationError("invalid log ID", nil)
	}

	entry, err := s.logRepo.GetByID(ctx, logID)
	if err != nil {
		s.logger.Error("Failed to load waste log", zap.Error(err), zap.Int64("log_id", logID))
		return NewInternalError("failed to delete waste log")
	}
	if entry == nil {
		return EntityNotFoundError("waste log", logID)
	}
	if entry.UserID != requesterID {
		return NewForbiddenError("cannot delete another user's waste log")
	}

	deleted, err := s.logRepo.Delete(ctx, logID)
	if err != nil {
		if errors.Is(err, repositories.ErrLogNotFound) {
			return EntityNotFoundError("waste log", logID)
		}
		s.logger.Error("Failed to delete waste log", zap.Error(err), zap.Int64("log_id", logID))
		return NewInternalError("failed to delete waste log")
	}

	s.invalidateUser(ctx, deleted.UserID)

	if err := s.events.Publish(ctx, events.NewLogDeletedEvent(deleted.UserID, deleted.ID, deleted.PointsAwarded)); err != nil {
		s.logger.Warn("Failed to publish log deleted event", zap.Error(err), zap.Int64("log_id", deleted.ID))
	}

	s.logger.Info("Waste log deleted",
		zap.Int64("log_id", deleted.ID),
		zap.Int64("user_id", deleted.UserID),
		zap.Int64("points_reversed", deleted.PointsAwarded),
	)
	return nil
}

// GetLog retrieves a single log entry
func (s *logService) GetLog(ctx context.Context, logID int64) (*models.WasteLogEntry, error) {
	if logID <= 0 {
		return nil, NewValidationError("invalid log ID", nil)
	}

	entry, err := s.logRepo.GetByID(ctx, logID)
	if err != nil {
		return nil, NewInternalError("failed to get waste log")
	}
	if entry == nil {
		return nil, EntityNotFoundError("waste log", logID)
	}
	return entry, nil
}

// ListLogsForUser returns a user's log entries, newest first
func (s *logService) ListLogsForUser(ctx context.Context, userID int64) ([]*models.WasteLogEntry, error) {
	if userID <= 0 {
		return nil, NewValidationError("invalid user ID", nil)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to list waste logs")
	}
	if user == nil {
		return nil, EntityNotFoundError("user", userID)
	}

	logs, err := s.logRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list waste logs", zap.Error(err), zap.Int64("user_id", userID))
		return nil, NewInternalError("failed to list waste logs")
	}
	return logs, nil
}

// invalidateUser drops cached projections that depend on the user's points.
func (s *logService) invalidateUser(ctx context.Context, userID int64) {
	if err := s.cache.Delete(ctx, fmt.Sprintf("user:%d", userID)); err != nil {
		s.logger.Debug("Failed to invalidate user cache", zap.Error(err), zap.Int64("user_id", userID))
	}
	if err := s.cache.Delete(ctx, leaderboardCacheKey); err != nil {
		s.logger.Debug("Failed to invalidate leaderboard cache", zap.Error(err))
	}
}
