package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// ECAWaitlistRepository persists per-activity waitlists.
type ECAWaitlistRepository struct {
	db *sqlx.DB
}

// NewECAWaitlistRepository constructs the repository.
func NewECAWaitlistRepository(db *sqlx.DB) *ECAWaitlistRepository {
	return &ECAWaitlistRepository{db: db}
}

// DeleteByTerm clears every waitlist row of the term.
func (r *ECAWaitlistRepository) DeleteByTerm(ctx context.Context, termID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM eca_waitlist WHERE term_id = $1`, termID)
	if err != nil {
		return 0, fmt.Errorf("delete eca waitlist: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// Create appends the entry at the end of its activity queue. Position is assigned here as
// the current maximum plus one, so callers must serialize writers per term. A duplicate entry
// is not an error; created reports whether a row was written.
func (r *ECAWaitlistRepository) Create(ctx context.Context, entry *models.ECAWaitlistEntry) (bool, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const nextPositionQuery = `SELECT COALESCE(MAX(position), 0) + 1 FROM eca_waitlist WHERE activity_id = $1`
	if err := r.db.GetContext(ctx, &entry.Position, nextPositionQuery, entry.ActivityID); err != nil {
		return false, fmt.Errorf("compute next waitlist position: %w", err)
	}

	const insertQuery = `INSERT INTO eca_waitlist (id, term_id, student_id, activity_id, position, created_at)
VALUES (:id, :term_id, :student_id, :activity_id, :position, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, insertQuery, entry); err != nil {
		if IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("create eca waitlist entry: %w", err)
	}
	return true, nil
}

// ListByTerm returns the term's waitlists ordered by activity and position.
func (r *ECAWaitlistRepository) ListByTerm(ctx context.Context, termID string) ([]models.ECAWaitlistDetail, error) {
	const query = `SELECT w.id, w.term_id, w.student_id, w.activity_id, w.position, w.created_at, act.name AS activity_name
FROM eca_waitlist w
JOIN eca_activities act ON act.id = w.activity_id
WHERE w.term_id = $1
ORDER BY act.name, w.activity_id, w.position`
	var entries []models.ECAWaitlistDetail
	if err := r.db.SelectContext(ctx, &entries, query, termID); err != nil {
		return nil, fmt.Errorf("list eca waitlist: %w", err)
	}
	return entries, nil
}
