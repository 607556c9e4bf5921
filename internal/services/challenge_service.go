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

// challengeService implements ChallengeService. Membership and completion
// are sets: joining twice is a no-op, and only the first completion awards
// the reward points and badge. The reward amount is read at completion time;
// later edits to the challenge never touch past awards.
type challengeService struct {
	challengeRepo repositories.ChallengeRepository
	userRepo      repositories.UserRepository
	cache         cache.Cache
	events        events.EventBus
	logger        *zap.Logger
}

// NewChallengeService creates a new challenge service
func NewChallengeService(
	challengeRepo repositories.ChallengeRepository,
	userRepo repositories.UserRepository,
	cache cache.Cache,
	events events.EventBus,
	logger *zap.Logger,
) ChallengeService {
	return &challengeService{
		challengeRepo: challengeRepo,
		userRepo:      userRepo,
		cache:         cache,
		events:        events,
		logger:        logger,
	}
}

// CreateChallenge defines a new challenge
func (s *challengeService) CreateChallenge(ctx context.Context, req *CreateChallengeRequest) (*models.Challenge, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid create challenge request", err)
	}
	if !req.StartDate.IsZero() && !req.EndDate.IsZero() && req.EndDate.Before(req.StartDate) {
		return nil, NewValidationError("end date precedes start date", nil)
	}

	challenge := &models.Challenge{
		Title:        req.Title,
		Description:  req.Description,
		Tasks:        req.Tasks,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		RewardPoints: req.RewardPoints,
		IsActive:     req.IsActive,
	}
	if challenge.Tasks == nil {
		challenge.Tasks = []string{}
	}

	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		s.logger.Error("Failed to create challenge", zap.Error(err), zap.String("title", req.Title))
		return nil, NewInternalError("failed to create challenge")
	}

	s.logger.Info("Challenge created",
		zap.Int64("challenge_id", challenge.ID),
		zap.String("title", challenge.Title),
		zap.Int64("reward_points", challenge.RewardPoints),
	)
	return challenge, nil
}

// GetChallenge retrieves a challenge with membership sets populated
func (s *challengeService) GetChallenge(ctx context.Context, id int64) (*models.Challenge, error) {
	if id <= 0 {
		return nil, NewValidationError("invalid challenge ID", nil)
	}

	challenge, err := s.challengeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, NewInternalError("failed to get challenge")
	}
	if challenge == nil {
		return nil, EntityNotFoundError("challenge", id)
	}
	return challenge, nil
}

// ListChallenges returns challenges, optionally only currently active ones
func (s *challengeService) ListChallenges(ctx context.Context, activeOnly bool) ([]*models.Challenge, error) {
	challenges, err := s.challengeRepo.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("Failed to list challenges", zap.Error(err))
		return nil, NewInternalError("failed to list challenges")
	}
	return challenges, nil
}

// ListChallengesForUser returns challenges annotated with the user's
// progress state. Completed wins over joined.
func (s *challengeService) ListChallengesForUser(ctx context.Context, userID int64, activeOnly bool) ([]*ChallengeView, error) {
	challenges, err := s.ListChallenges(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	joined, err := s.userRepo.GetJoinedChallengeIDs(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to resolve challenge membership")
	}
	completed, err := s.challengeRepo.ListCompletedBy(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to resolve challenge completions")
	}

	joinedSet := make(map[int64]bool, len(joined))
	for _, id := range joined {
		joinedSet[id] = true
	}
	completedSet := make(map[int64]bool, len(completed))
	for _, id := range completed {
		completedSet[id] = true
	}

	views := make([]*ChallengeView, 0, len(challenges))
	for _, challenge := range challenges {
		status := models.StatusNotJoined
		switch {
		case completedSet[challenge.ID]:
			status = models.StatusCompleted
		case joinedSet[challenge.ID]:
			status = models.StatusJoined
		}
		views = append(views, &ChallengeView{Challenge: challenge, Status: status})
	}
	return views, nil
}

// JoinChallenge adds the user to a challenge's participant set. Repeated
// joins succeed without effect.
func (s *challengeService) JoinChallenge(ctx context.Context, challengeID, userID int64) error {
	if challengeID <= 0 || userID <= 0 {
		return NewValidationError("invalid challenge or user ID", nil)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return NewInternalError("failed to join challenge")
	}
	if user == nil {
		return EntityNotFoundError("user", userID)
	}

	added, err := s.challengeRepo.AddParticipant(ctx, challengeID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrChallengeNotFound) {
			return EntityNotFoundError("challenge", challengeID)
		}
		s.logger.Error("Failed to join challenge",
			zap.Error(err),
			zap.Int64("challenge_id", challengeID),
			zap.Int64("user_id", userID),
		)
		return NewInternalError("failed to join challenge")
	}
	if !added {
		return nil
	}

	s.invalidateUser(ctx, userID)

	if err := s.events.Publish(ctx, events.NewChallengeJoinedEvent(userID, challengeID)); err != nil {
		s.logger.Warn("Failed to publish challenge joined event", zap.Error(err))
	}

	s.logger.Info("Challenge joined",
		zap.Int64("challenge_id", challengeID),
		zap.Int64("user_id", userID),
	)
	return nil
}

// CompleteChallenge marks the challenge completed for the user. The first
// completion joins the user if needed, then credits the reward points and a
// badge named after the challenge title. Any repeat is acknowledged without
// a second award.
func (s *challengeService) CompleteChallenge(ctx context.Context, challengeID, userID int64) (*CompletionResult, error) {
	if challengeID <= 0 || userID <= 0 {
		return nil, NewValidationError("invalid challenge or user ID", nil)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to complete challenge")
	}
	if user == nil {
		return nil, EntityNotFoundError("user", userID)
	}

	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return nil, NewInternalError("failed to complete challenge")
	}
	if challenge == nil {
		return nil, EntityNotFoundError("challenge", challengeID)
	}

	first, err := s.challengeRepo.MarkCompleted(ctx, challengeID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrChallengeNotFound) {
			return nil, EntityNotFoundError("challenge", challengeID)
		}
		s.logger.Error("Failed to mark challenge completed",
			zap.Error(err),
			zap.Int64("challenge_id", challengeID),
			zap.Int64("user_id", userID),
		)
		return nil, NewInternalError("failed to complete challenge")
	}

	result := &CompletionResult{ChallengeID: challengeID, UserID: userID}
	if !first {
		result.AlreadyCompleted = true
		return result, nil
	}

	if err := s.userRepo.ApplyCompletionReward(ctx, userID, challenge.Title, challenge.RewardPoints); err != nil {
		// The completion record exists but the reward did not land. Surface
		// the failure loudly; a retry would see AlreadyCompleted and never
		// re-attempt the credit.
		s.logger.Error("Completion recorded but reward failed",
			zap.Error(err),
			zap.Int64("challenge_id", challengeID),
			zap.Int64("user_id", userID),
		)
		return nil, NewInternalError("failed to credit completion reward")
	}

	result.PointsAwarded = challenge.RewardPoints
	result.BadgeAwarded = challenge.Title

	s.invalidateUser(ctx, userID)

	if err := s.events.Publish(ctx, events.NewChallengeCompletedEvent(userID, challengeID, challenge.Title, challenge.RewardPoints)); err != nil {
		s.logger.Warn("Failed to publish challenge completed event", zap.Error(err))
	}

	s.logger.Info("Challenge completed",
		zap.Int64("challenge_id", challengeID),
		zap.Int64("user_id", userID),
		zap.Int64("points_awarded", challenge.RewardPoints),
		zap.String("badge", challenge.Title),
	)
	return result, nil
}

func (s *challengeService) invalidateUser(ctx context.Context, userID int64) {
	if err := s.cache.Delete(ctx, fmt.Sprintf("user:%d", userID)); err != nil {
		s.logger.Debug("Failed to invalidate user cache", zap.Error(err), zap.Int64("user_id", userID))
	}
	if err := s.cache.Delete(ctx, leaderboardCacheKey); err != nil {
		s.logger.Debug("Failed to invalidate leaderboard cache", zap.Error(err))
	}
}
