package repositories

import (
	"context"
	"errors"

	"ecochamps/internal/models"
)

// Sentinel errors shared by all repository implementations. Services map
// these onto the caller-facing error taxonomy.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrLogNotFound       = errors.New("waste log not found")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrDuplicateEmail    = errors.New("email already registered")
)

// UserRepository owns account state: identity, the running points total and
// the badge/joined sets. All point mutations are atomic adds performed by
// the storage layer, never read-modify-write.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)

	// AddPoints atomically adds delta (which may be negative) to the user's
	// points. Returns ErrUserNotFound if the account does not exist.
	AddPoints(ctx context.Context, userID, delta int64) error

	// ApplyCompletionReward credits a challenge completion in one atomic
	// unit: badge set-insert plus reward point add.
	ApplyCompletionReward(ctx context.Context, userID int64, badge string, reward int64) error

	GetBadges(ctx context.Context, userID int64) ([]string, error)
	GetJoinedChallengeIDs(ctx context.Context, userID int64) ([]int64, error)
	Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// WasteLogRepository owns the ledger of disposal events. Create and Delete
// are compensating pairs: each applies the log row change and the owner's
// point adjustment as a single atomic unit, so a failure leaves no orphan
// entry and no dangling point credit.
type WasteLogRepository interface {
	// Create persists the entry and credits the owner's points by
	// entry.PointsAwarded. Returns ErrUserNotFound if the owner does not
	// exist; in that case nothing is written.
	Create(ctx context.Context, entry *models.WasteLogEntry) error

	// Delete removes the entry, reverses exactly its stored PointsAwarded
	// from the owner and returns the deleted entry. Returns ErrLogNotFound
	// if no such entry exists.
	Delete(ctx context.Context, logID int64) (*models.WasteLogEntry, error)

	GetByID(ctx context.Context, logID int64) (*models.WasteLogEntry, error)

	// ListByUser returns the user's entries newest first.
	ListByUser(ctx context.Context, userID int64) ([]*models.WasteLogEntry, error)
}

// ChallengeRepository owns the challenge catalog and its membership sets.
// Participant and completion membership are sets: inserting an existing
// member is a no-op. The joined set exposed on the user is a view over the
// same participant membership, so one set-insert updates both sides.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	GetByID(ctx context.Context, id int64) (*models.Challenge, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Challenge, error)

	// AddParticipant inserts the user into the participant set. Reports
	// whether the membership is new. Returns ErrChallengeNotFound if the
	// challenge does not exist.
	AddParticipant(ctx context.Context, challengeID, userID int64) (bool, error)

	// MarkCompleted inserts the user into the completion set (and, for
	// bookkeeping consistency, the participant set). Reports whether this
	// is the first completion; repeats are no-ops.
	MarkCompleted(ctx context.Context, challengeID, userID int64) (bool, error)

	ListCompletedBy(ctx context.Context, userID int64) ([]int64, error)
}

// BadgeRepository owns the badge catalog (names, descriptions, unlock
// condition text). Per-user badge membership lives with the user record.
type BadgeRepository interface {
	Create(ctx context.Context, badge *models.Badge) error
	GetByName(ctx context.Context, name string) (*models.Badge, error)
	List(ctx context.Context) ([]*models.Badge, error)
}
