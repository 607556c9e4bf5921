package services

import (
	"context"

	"ecochamps/internal/models"
)

// ===============================
// CORE SERVICE INTERFACES
// ===============================

// UserService defines account business logic
type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error)
	Authenticate(ctx context.Context, req *LoginRequest) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// WasteLogService defines the disposal event ledger business logic.
// Submit and Delete are the only operations that move points through the
// log side of the accounting engine.
type WasteLogService interface {
	SubmitLog(ctx context.Context, req *SubmitLogRequest) (*models.WasteLogEntry, error)
	DeleteLog(ctx context.Context, logID, requesterID int64) error
	GetLog(ctx context.Context, logID int64) (*models.WasteLogEntry, error)
	ListLogsForUser(ctx context.Context, userID int64) ([]*models.WasteLogEntry, error)
}

// ChallengeService defines challenge membership and completion logic
type ChallengeService interface {
	CreateChallenge(ctx context.Context, req *CreateChallengeRequest) (*models.Challenge, error)
	GetChallenge(ctx context.Context, id int64) (*models.Challenge, error)
	ListChallenges(ctx context.Context, activeOnly bool) ([]*models.Challenge, error)
	ListChallengesForUser(ctx context.Context, userID int64, activeOnly bool) ([]*ChallengeView, error)
	JoinChallenge(ctx context.Context, challengeID, userID int64) error
	CompleteChallenge(ctx context.Context, challengeID, userID int64) (*CompletionResult, error)
}

// StatsService defines the derived read-side views
type StatsService interface {
	GetUserStats(ctx context.Context, userID int64) (*models.UserStats, error)
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// BadgeService defines the badge catalog logic
type BadgeService interface {
	CreateBadge(ctx context.Context, req *CreateBadgeRequest) (*models.Badge, error)
	ListBadges(ctx context.Context) ([]*models.Badge, error)
}
