package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// TermRepository handles persistence for ECA terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

const termColumns = `id, school_id, name, status, allocation_run, start_date, end_date, created_at, updated_at`

// FindByID loads a term by identifier.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	query := `SELECT ` + termColumns + ` FROM terms WHERE id = $1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// MarkAllocationRunning flips the term into ALLOCATION_RUNNING unless another run holds it.
// A running status older than staleAfter is treated as abandoned and taken over.
func (r *TermRepository) MarkAllocationRunning(ctx context.Context, id string, staleAfter time.Duration) (bool, error) {
	now := time.Now().UTC()
	const query = `UPDATE terms SET status = $1, updated_at = $2
WHERE id = $3 AND (status <> $1 OR updated_at < $4)`
	res, err := r.db.ExecContext(ctx, query, models.TermStatusAllocationRunning, now, id, now.Add(-staleAfter))
	if err != nil {
		return false, fmt.Errorf("mark term allocation running: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark term allocation running rows: %w", err)
	}
	return affected == 1, nil
}

// UpdateAllocationState records the outcome of a run on the term.
func (r *TermRepository) UpdateAllocationState(ctx context.Context, id string, status models.TermStatus, allocationRun bool) error {
	const query = `UPDATE terms SET status = $1, allocation_run = $2, updated_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, status, allocationRun, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update term allocation state: %w", err)
	}
	return nil
}
