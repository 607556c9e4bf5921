package services

import (
	"context"

	"go.uber.org/zap"

	"ecochamps/internal/models"
	"ecochamps/internal/repositories"
	"ecochamps/internal/validation"
)

// badgeService implements the badge catalog
type badgeService struct {
	badgeRepo repositories.BadgeRepository
	logger    *zap.Logger
}

// NewBadgeService creates a new badge service
func NewBadgeService(badgeRepo repositories.BadgeRepository, logger *zap.Logger) BadgeService {
	return &badgeService{badgeRepo: badgeRepo, logger: logger}
}

// CreateBadge adds an entry to the badge catalog
func (s *badgeService) CreateBadge(ctx context.Context, req *CreateBadgeRequest) (*models.Badge, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid create badge request", err)
	}

	if existing, _ := s.badgeRepo.GetByName(ctx, req.Name); existing != nil {
		return nil, NewConflictError("badge already exists", "BADGE_EXISTS")
	}

	badge := &models.Badge{
		Name:        req.Name,
		Description: req.Description,
		Condition:   req.Condition,
	}
	if err := s.badgeRepo.Create(ctx, badge); err != nil {
		s.logger.Error("Failed to create badge", zap.Error(err), zap.String("name", req.Name))
		return nil, NewInternalError("failed to create badge")
	}

	s.logger.Info("Badge created", zap.Int64("badge_id", badge.ID), zap.String("name", badge.Name))
	return badge, nil
}

// ListBadges returns the full catalog
func (s *badgeService) ListBadges(ctx context.Context) ([]*models.Badge, error) {
	badges, err := s.badgeRepo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list badges", zap.Error(err))
		return nil, NewInternalError("failed to list badges")
	}
	return badges, nil
}
