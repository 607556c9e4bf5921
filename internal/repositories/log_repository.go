package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"ecochamps/internal/database"
	"ecochamps/internal/models"

	"go.uber.org/zap"
)

// wasteLogRepository implements WasteLogRepository on Postgres
type wasteLogRepository struct {
	*BaseRepository
}

// NewWasteLogRepository creates a new waste log repository
func NewWasteLogRepository(db *database.Manager, logger *zap.Logger) WasteLogRepository {
	return &wasteLogRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// Create inserts the log entry and credits its owner's points in one
// transaction. The owner update runs first: zero affected rows means the
// account does not exist and the whole unit rolls back, so an orphan log
// can never be written.
func (r *wasteLogRepository) Create(ctx context.Context, entry *models.WasteLogEntry) error {
	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE users
			SET eco_points = eco_points + $2, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1`, entry.UserID, entry.PointsAwarded)
		if err != nil {
			return fmt.Errorf("failed to credit points: %w", err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return ErrUserNotFound
		}

		return tx.QueryRowContext(ctx, `
			INSERT INTO waste_logs (user_id, category, quantity, points_awarded, comment, image_url, image_public_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, logged_at`,
			entry.UserID, string(entry.Category), entry.Quantity, entry.PointsAwarded,
			entry.Comment, entry.ImageURL, entry.ImagePublicID,
		).Scan(&entry.ID, &entry.LoggedAt)
	})
	if err != nil {
		if err == ErrUserNotFound {
			return err
		}
		r.GetLogger().Error("Failed to create waste log",
			zap.Error(err),
			zap.Int64("user_id", entry.UserID),
		)
		return fmt.Errorf("failed to create waste log: %w", err)
	}

	r.GetLogger().Info("Waste log created",
		zap.Int64("log_id", entry.ID),
		zap.Int64("user_id", entry.UserID),
		zap.String("category", string(entry.Category)),
		zap.Int64("points_awarded", entry.PointsAwarded),
	)
	return nil
}

// Delete removes the entry and reverses exactly its stored point award in
// one transaction. The decrement is not clamped: prior manual corrections
// may legitimately drive the balance negative.
func (r *wasteLogRepository) Delete(ctx context.Context, logID int64) (*models.WasteLogEntry, error) {
	var deleted models.WasteLogEntry

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			DELETE FROM waste_logs
			WHERE id = $1
			RETURNING id, user_id, category, quantity, points_awarded, comment, image_url, image_public_id, logged_at`,
			logID,
		).Scan(
			&deleted.ID, &deleted.UserID, &deleted.Category, &deleted.Quantity,
			&deleted.PointsAwarded, &deleted.Comment, &deleted.ImageURL,
			&deleted.ImagePublicID, &deleted.LoggedAt,
		)
		if err == sql.ErrNoRows {
			return ErrLogNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to delete waste log: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET eco_points = eco_points - $2, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1`, deleted.UserID, deleted.PointsAwarded); err != nil {
			return fmt.Errorf("failed to reverse points: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.GetLogger().Info("Waste log deleted",
		zap.Int64("log_id", deleted.ID),
		zap.Int64("user_id", deleted.UserID),
		zap.Int64("points_reversed", deleted.PointsAwarded),
	)
	return &deleted, nil
}

// GetByID retrieves a single log entry
func (r *wasteLogRepository) GetByID(ctx context.Context, logID int64) (*models.WasteLogEntry, error) {
	var entry models.WasteLogEntry
	err := r.QueryRowContext(ctx, `
		SELECT id, user_id, category, quantity, points_awarded, comment, image_url, image_public_id, logged_at
		FROM waste_logs
		WHERE id = $1`, logID,
	).Scan(
		&entry.ID, &entry.UserID, &entry.Category, &entry.Quantity,
		&entry.PointsAwarded, &entry.Comment, &entry.ImageURL,
		&entry.ImagePublicID, &entry.LoggedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get waste log: %w", err)
	}
	return &entry, nil
}

// ListByUser returns the user's entries newest first
func (r *wasteLogRepository) ListByUser(ctx context.Context, userID int64) ([]*models.WasteLogEntry, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT id, user_id, category, quantity, points_awarded, comment, image_url, image_public_id, logged_at
		FROM waste_logs
		WHERE user_id = $1
		ORDER BY logged_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list waste logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.WasteLogEntry
	for rows.Next() {
		var entry models.WasteLogEntry
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Category, &entry.Quantity,
			&entry.PointsAwarded, &entry.Comment, &entry.ImageURL,
			&entry.ImagePublicID, &entry.LoggedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan waste log: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
