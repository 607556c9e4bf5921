package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ecochamps/internal/database"
	"ecochamps/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// challengeRepository implements ChallengeRepository on Postgres
type challengeRepository struct {
	*BaseRepository
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db *database.Manager, logger *zap.Logger) ChallengeRepository {
	return &challengeRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// Create creates a new challenge
func (r *challengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	query := `
		INSERT INTO challenges (title, description, tasks, start_date, end_date, reward_points, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.QueryRowContext(ctx, query,
		challenge.Title, challenge.Description, pq.Array(challenge.Tasks),
		nullableTime(challenge.StartDate), nullableTime(challenge.EndDate),
		challenge.RewardPoints, challenge.IsActive,
	).Scan(&challenge.ID, &challenge.CreatedAt)

	if err != nil {
		r.GetLogger().Error("Failed to create challenge",
			zap.Error(err),
			zap.String("title", challenge.Title),
		)
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	r.GetLogger().Info("Challenge created",
		zap.Int64("challenge_id", challenge.ID),
		zap.String("title", challenge.Title),
		zap.Int64("reward_points", challenge.RewardPoints),
	)
	return nil
}

// GetByID retrieves a challenge with its participant and completion sets
func (r *challengeRepository) GetByID(ctx context.Context, id int64) (*models.Challenge, error) {
	var challenge models.Challenge
	var start, end sql.NullTime
	err := r.QueryRowContext(ctx, `
		SELECT id, title, description, tasks, start_date, end_date, reward_points, is_active, created_at
		FROM challenges
		WHERE id = $1`, id,
	).Scan(
		&challenge.ID, &challenge.Title, &challenge.Description, pq.Array(&challenge.Tasks),
		&start, &end, &challenge.RewardPoints,
		&challenge.IsActive, &challenge.CreatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	challenge.StartDate, challenge.EndDate = start.Time, end.Time

	if challenge.Participants, err = r.memberIDs(ctx, "challenge_participants", id); err != nil {
		return nil, err
	}
	if challenge.CompletedBy, err = r.memberIDs(ctx, "challenge_completions", id); err != nil {
		return nil, err
	}
	return &challenge, nil
}

// List returns challenges, optionally only active ones whose window covers
// the current time. Expiration is read-time filtering only; the engine never
// transitions challenge state on the clock.
func (r *challengeRepository) List(ctx context.Context, activeOnly bool) ([]*models.Challenge, error) {
	query := `
		SELECT id, title, description, tasks, start_date, end_date, reward_points, is_active, created_at
		FROM challenges`
	if activeOnly {
		// NULL dates mean an unbounded window.
		query += `
		WHERE is_active = true
			AND (start_date IS NULL OR start_date <= NOW())
			AND (end_date IS NULL OR end_date >= NOW())`
	}
	query += `
		ORDER BY id DESC`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*models.Challenge
	for rows.Next() {
		var challenge models.Challenge
		var start, end sql.NullTime
		if err := rows.Scan(
			&challenge.ID, &challenge.Title, &challenge.Description, pq.Array(&challenge.Tasks),
			&start, &end, &challenge.RewardPoints,
			&challenge.IsActive, &challenge.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenge.StartDate, challenge.EndDate = start.Time, end.Time
		challenges = append(challenges, &challenge)
	}
	return challenges, rows.Err()
}

// AddParticipant inserts the user into the participant set. ON CONFLICT DO
// NOTHING makes repeated joins no-ops at the storage layer.
func (r *challengeRepository) AddParticipant(ctx context.Context, challengeID, userID int64) (bool, error) {
	if err := r.ensureExists(ctx, challengeID); err != nil {
		return false, err
	}

	result, err := r.ExecContext(ctx, `
		INSERT INTO challenge_participants (challenge_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (challenge_id, user_id) DO NOTHING`, challengeID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add participant: %w", err)
	}

	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// MarkCompleted inserts the user into the completion set and, because
// completion implies membership, the participant set. The completion insert
// decides idempotence: a second completion affects zero rows and awards
// nothing.
func (r *challengeRepository) MarkCompleted(ctx context.Context, challengeID, userID int64) (bool, error) {
	if err := r.ensureExists(ctx, challengeID); err != nil {
		return false, err
	}

	var first bool
	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO challenge_completions (challenge_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT (challenge_id, user_id) DO NOTHING`, challengeID, userID)
		if err != nil {
			return fmt.Errorf("failed to record completion: %w", err)
		}
		affected, _ := result.RowsAffected()
		first = affected > 0
		if !first {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO challenge_participants (challenge_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT (challenge_id, user_id) DO NOTHING`, challengeID, userID)
		if err != nil {
			return fmt.Errorf("failed to backfill participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return first, nil
}

// ListCompletedBy returns the ids of the challenges a user has completed.
func (r *challengeRepository) ListCompletedBy(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT challenge_id
		FROM challenge_completions
		WHERE user_id = $1
		ORDER BY completed_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed challenges: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *challengeRepository) ensureExists(ctx context.Context, challengeID int64) error {
	var exists bool
	err := r.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM challenges WHERE id = $1)`, challengeID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check challenge: %w", err)
	}
	if !exists {
		return ErrChallengeNotFound
	}
	return nil
}

func (r *challengeRepository) memberIDs(ctx context.Context, table string, challengeID int64) ([]int64, error) {
	// table is one of two fixed membership tables, never caller input.
	rows, err := r.QueryContext(ctx,
		fmt.Sprintf(`SELECT user_id FROM %s WHERE challenge_id = $1 ORDER BY user_id`, table), challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// nullableTime maps the zero time to SQL NULL so unset challenge dates read
// back as unbounded instead of year one.
func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
