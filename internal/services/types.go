package services

import (
	"time"

	"ecochamps/internal/models"
)

// ===============================
// USER SERVICE TYPES
// ===============================

// CreateUserRequest carries a signup submission
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest carries a credential check
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ===============================
// WASTE LOG SERVICE TYPES
// ===============================

// SubmitLogRequest carries one disposal event. PointsAwarded is supplied by
// the caller and captured verbatim; the engine treats it as the immutable
// point value of the entry from then on.
type SubmitLogRequest struct {
	UserID        int64   `json:"user_id" validate:"required,gt=0"`
	Category      string  `json:"category" validate:"required,wastecategory"`
	Quantity      float64 `json:"quantity" validate:"required,gt=0"`
	PointsAwarded int64   `json:"points_awarded" validate:"gte=0"`
	Comment       *string `json:"comment,omitempty" validate:"omitempty,max=500"`
	ImageURL      *string `json:"image_url,omitempty" validate:"omitempty,url"`
	ImagePublicID *string `json:"-"`
}

// ===============================
// CHALLENGE SERVICE TYPES
// ===============================

// CreateChallengeRequest carries a new challenge definition
type CreateChallengeRequest struct {
	Title        string    `json:"title" validate:"required,min=3,max=200"`
	Description  string    `json:"description" validate:"max=2000"`
	Tasks        []string  `json:"tasks" validate:"dive,max=500"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	RewardPoints int64     `json:"reward_points" validate:"gte=0"`
	IsActive     bool      `json:"is_active"`
}

// ChallengeView is a challenge paired with the requesting user's progress
// state relative to it.
type ChallengeView struct {
	*models.Challenge
	Status models.ChallengeStatus `json:"status"`
}

// CompletionResult reports the outcome of a completion attempt. Repeated
// attempts succeed but come back with AlreadyCompleted set and award nothing.
type CompletionResult struct {
	ChallengeID      int64  `json:"challenge_id"`
	UserID           int64  `json:"user_id"`
	AlreadyCompleted bool   `json:"already_completed"`
	PointsAwarded    int64  `json:"points_awarded"`
	BadgeAwarded     string `json:"badge_awarded,omitempty"`
}

// ===============================
// BADGE SERVICE TYPES
// ===============================

// CreateBadgeRequest carries a new badge catalog entry
type CreateBadgeRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Condition   string `json:"condition" validate:"max=1000"`
}
