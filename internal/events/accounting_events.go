package events

import "ecochamps/internal/models"

// Event type identifiers for the accounting engine.
const (
	TypeUserCreated        = "user.created"
	TypeLogSubmitted       = "waste_log.submitted"
	TypeLogDeleted         = "waste_log.deleted"
	TypeChallengeJoined    = "challenge.joined"
	TypeChallengeCompleted = "challenge.completed"
)

// UserCreatedEvent fires when a new account is registered.
type UserCreatedEvent struct {
	BaseEvent
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewUserCreatedEvent builds the event for a freshly created user.
func NewUserCreatedEvent(userID int64, email, name string) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseEvent: newBaseEvent(TypeUserCreated, userID),
		Email:     email,
		Name:      name,
	}
}

// LogSubmittedEvent fires after a waste log is created and the owner's
// points have been credited.
type LogSubmittedEvent struct {
	BaseEvent
	LogID         int64                `json:"log_id"`
	Category      models.WasteCategory `json:"category"`
	Quantity      float64              `json:"quantity"`
	PointsAwarded int64                `json:"points_awarded"`
}

// NewLogSubmittedEvent builds the event for a submitted log.
func NewLogSubmittedEvent(userID int64, log *models.WasteLogEntry) *LogSubmittedEvent {
	return &LogSubmittedEvent{
		BaseEvent:     newBaseEvent(TypeLogSubmitted, userID),
		LogID:         log.ID,
		Category:      log.Category,
		Quantity:      log.Quantity,
		PointsAwarded: log.PointsAwarded,
	}
}

// LogDeletedEvent fires after a waste log is removed and its point
// contribution reversed.
type LogDeletedEvent struct {
	BaseEvent
	LogID          int64 `json:"log_id"`
	PointsReversed int64 `json:"points_reversed"`
}

// NewLogDeletedEvent builds the event for a deleted log.
func NewLogDeletedEvent(userID, logID, pointsReversed int64) *LogDeletedEvent {
	return &LogDeletedEvent{
		BaseEvent:      newBaseEvent(TypeLogDeleted, userID),
		LogID:          logID,
		PointsReversed: pointsReversed,
	}
}

// ChallengeJoinedEvent fires when a user joins a challenge. Idempotent joins
// that hit an existing membership do not re-fire.
type ChallengeJoinedEvent struct {
	BaseEvent
	ChallengeID int64 `json:"challenge_id"`
}

// NewChallengeJoinedEvent builds the event for a challenge join.
func NewChallengeJoinedEvent(userID, challengeID int64) *ChallengeJoinedEvent {
	return &ChallengeJoinedEvent{
		BaseEvent:   newBaseEvent(TypeChallengeJoined, userID),
		ChallengeID: challengeID,
	}
}

// ChallengeCompletedEvent fires on the first completion of a challenge by a
// user, after badge and points have been credited.
type ChallengeCompletedEvent struct {
	BaseEvent
	ChallengeID  int64  `json:"challenge_id"`
	Badge        string `json:"badge"`
	RewardPoints int64  `json:"reward_points"`
}

// NewChallengeCompletedEvent builds the event for a challenge completion.
func NewChallengeCompletedEvent(userID, challengeID int64, badge string, reward int64) *ChallengeCompletedEvent {
	return &ChallengeCompletedEvent{
		BaseEvent:    newBaseEvent(TypeChallengeCompleted, userID),
		ChallengeID:  challengeID,
		Badge:        badge,
		RewardPoints: reward,
	}
}
