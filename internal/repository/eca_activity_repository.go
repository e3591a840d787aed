package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// ECAActivityRepository persists extracurricular activities.
type ECAActivityRepository struct {
	db *sqlx.DB
}

// NewECAActivityRepository constructs the repository.
func NewECAActivityRepository(db *sqlx.DB) *ECAActivityRepository {
	return &ECAActivityRepository{db: db}
}

const ecaActivityColumns = `id, school_id, term_id, name, day_of_week, time_slot, max_capacity, min_capacity,
activity_type, eligible_year_groups, COALESCE(gender_restriction, '') AS gender_restriction,
is_active, is_cancelled, cancel_reason, created_at, updated_at`

// ListRunnableByTerm returns active, non-cancelled activities of a term.
func (r *ECAActivityRepository) ListRunnableByTerm(ctx context.Context, termID string) ([]models.ECAActivity, error) {
	query := `SELECT ` + ecaActivityColumns + ` FROM eca_activities
WHERE term_id = $1 AND is_active = TRUE AND is_cancelled = FALSE
ORDER BY day_of_week, time_slot, name, id`
	var activities []models.ECAActivity
	if err := r.db.SelectContext(ctx, &activities, query, termID); err != nil {
		return nil, fmt.Errorf("list runnable eca activities: %w", err)
	}
	return activities, nil
}

// ListByTerm returns every activity of a term, cancelled ones included.
func (r *ECAActivityRepository) ListByTerm(ctx context.Context, termID string) ([]models.ECAActivity, error) {
	query := `SELECT ` + ecaActivityColumns + ` FROM eca_activities WHERE term_id = $1 ORDER BY day_of_week, time_slot, name, id`
	var activities []models.ECAActivity
	if err := r.db.SelectContext(ctx, &activities, query, termID); err != nil {
		return nil, fmt.Errorf("list eca activities: %w", err)
	}
	return activities, nil
}

// Cancel flags an activity as cancelled with a reason.
func (r *ECAActivityRepository) Cancel(ctx context.Context, activityID, reason string) error {
	const query = `UPDATE eca_activities SET is_cancelled = TRUE, cancel_reason = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, reason, time.Now().UTC(), activityID); err != nil {
		return fmt.Errorf("cancel eca activity: %w", err)
	}
	return nil
}
