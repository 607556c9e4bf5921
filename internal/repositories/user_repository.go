package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ecochamps/internal/database"
	"ecochamps/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// userRepository implements UserRepository on Postgres
type userRepository struct {
	*BaseRepository
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Manager, logger *zap.Logger) UserRepository {
	return &userRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// Create creates a new user account
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, eco_points, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash,
	).Scan(&user.ID, &user.EcoPoints, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		r.GetLogger().Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.GetLogger().Info("User created successfully",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email),
	)
	return nil
}

// GetByID retrieves a user by ID with badge and joined-challenge sets
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.password_hash, u.eco_points,
			u.created_at, u.updated_at
		FROM users u
		WHERE u.id = $1`

	var user models.User
	err := r.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.EcoPoints, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	if user.Badges, err = r.GetBadges(ctx, id); err != nil {
		return nil, err
	}
	if user.JoinedIDs, err = r.GetJoinedChallengeIDs(ctx, id); err != nil {
		return nil, err
	}
	if user.LogIDs, err = r.logIDs(ctx, id); err != nil {
		return nil, err
	}

	return &user, nil
}

// GetByEmail retrieves a user by email (for authentication)
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.password_hash, u.eco_points,
			u.created_at, u.updated_at
		FROM users u
		WHERE u.email = $1`

	var user models.User
	err := r.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.EcoPoints, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// List returns all users with their badge sets, newest first
func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.eco_points, u.created_at, u.updated_at,
			COALESCE(array_agg(ub.badge ORDER BY ub.awarded_at)
				FILTER (WHERE ub.badge IS NOT NULL), '{}') AS badges
		FROM users u
		LEFT JOIN user_badges ub ON ub.user_id = u.id
		GROUP BY u.id
		ORDER BY u.created_at DESC`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.Name, &user.Email, &user.EcoPoints,
			&user.CreatedAt, &user.UpdatedAt, pq.Array(&user.Badges),
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

// AddPoints atomically adjusts the user's running points total. The add is
// performed in SQL so concurrent adjustments never lose updates.
func (r *userRepository) AddPoints(ctx context.Context, userID, delta int64) error {
	query := `
		UPDATE users
		SET eco_points = eco_points + $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`

	result, err := r.ExecContext(ctx, query, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust points: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrUserNotFound
	}

	r.GetLogger().Debug("Points adjusted",
		zap.Int64("user_id", userID),
		zap.Int64("delta", delta),
	)
	return nil
}

// ApplyCompletionReward credits a badge and reward points in one transaction
func (r *userRepository) ApplyCompletionReward(ctx context.Context, userID int64, badge string, reward int64) error {
	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE users
			SET eco_points = eco_points + $2, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1`, userID, reward)
		if err != nil {
			return fmt.Errorf("failed to credit reward: %w", err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return ErrUserNotFound
		}

		// Badge membership is a set; repeat completions are filtered out
		// before this call, but the constraint keeps it safe regardless.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_badges (user_id, badge)
			VALUES ($1, $2)
			ON CONFLICT (user_id, badge) DO NOTHING`, userID, badge); err != nil {
			return fmt.Errorf("failed to award badge: %w", err)
		}
		return nil
	})
}

// GetBadges returns the user's badge names in award order
func (r *userRepository) GetBadges(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT badge FROM user_badges
		WHERE user_id = $1
		ORDER BY awarded_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}
	defer rows.Close()

	badges := []string{}
	for rows.Next() {
		var badge string
		if err := rows.Scan(&badge); err != nil {
			return nil, err
		}
		badges = append(badges, badge)
	}
	return badges, rows.Err()
}

// GetJoinedChallengeIDs returns the ids of challenges the user has joined
func (r *userRepository) GetJoinedChallengeIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT challenge_id FROM challenge_participants
		WHERE user_id = $1
		ORDER BY joined_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get joined challenges: %w", err)
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

// Leaderboard returns the top users by points. Ties break on account id so
// ordering is stable across requests.
func (r *userRepository) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT u.id, u.name, u.eco_points,
			COALESCE(array_agg(ub.badge ORDER BY ub.awarded_at)
				FILTER (WHERE ub.badge IS NOT NULL), '{}') AS badges
		FROM users u
		LEFT JOIN user_badges ub ON ub.user_id = u.id
		GROUP BY u.id
		ORDER BY u.eco_points DESC, u.id ASC
		LIMIT $1`

	rows, err := r.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	rank := 0
	for rows.Next() {
		var entry models.LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.Name, &entry.EcoPoints, pq.Array(&entry.Badges)); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		rank++
		entry.Rank = rank
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func (r *userRepository) logIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT id FROM waste_logs
		WHERE user_id = $1
		ORDER BY logged_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get log ids: %w", err)
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

// isUniqueViolation reports whether err is a Postgres unique constraint error
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key")
}
