package repositories

import (
	"context"
	"fmt"

	"ecochamps/internal/database"
	"ecochamps/internal/models"

	"go.uber.org/zap"
)

// badgeRepository implements BadgeRepository on Postgres
type badgeRepository struct {
	*BaseRepository
}

// NewBadgeRepository creates a new badge catalog repository
func NewBadgeRepository(db *database.Manager, logger *zap.Logger) BadgeRepository {
	return &badgeRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// Create adds a badge to the catalog
func (r *badgeRepository) Create(ctx context.Context, badge *models.Badge) error {
	query := `
		INSERT INTO badges (name, description, condition)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.QueryRowContext(ctx, query,
		badge.Name, badge.Description, badge.Condition,
	).Scan(&badge.ID, &badge.CreatedAt)
	if err != nil {
		r.GetLogger().Error("Failed to create badge", zap.Error(err), zap.String("name", badge.Name))
		return fmt.Errorf("failed to create badge: %w", err)
	}
	return nil
}

// GetByName retrieves a badge catalog entry by its unique name
func (r *badgeRepository) GetByName(ctx context.Context, name string) (*models.Badge, error) {
	var badge models.Badge
	err := r.QueryRowContext(ctx, `
		SELECT id, name, description, condition, created_at, updated_at
		FROM badges
		WHERE name = $1`, name,
	).Scan(&badge.ID, &badge.Name, &badge.Description, &badge.Condition, &badge.CreatedAt, &badge.UpdatedAt)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get badge: %w", err)
	}
	return &badge, nil
}

// List returns the full badge catalog
func (r *badgeRepository) List(ctx context.Context) ([]*models.Badge, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT id, name, description, condition, created_at, updated_at
		FROM badges
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	var badges []*models.Badge
	for rows.Next() {
		var badge models.Badge
		if err := rows.Scan(&badge.ID, &badge.Name, &badge.Description, &badge.Condition, &badge.CreatedAt, &badge.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, &badge)
	}
	return badges, rows.Err()
}
