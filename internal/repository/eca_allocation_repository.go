package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// ECAAllocationRepository persists committed activity allocations.
type ECAAllocationRepository struct {
	db *sqlx.DB
}

// NewECAAllocationRepository constructs the repository.
func NewECAAllocationRepository(db *sqlx.DB) *ECAAllocationRepository {
	return &ECAAllocationRepository{db: db}
}

const ecaAllocationColumns = `id, term_id, student_id, activity_id, day_of_week, time_slot, allocation_type, status, created_at`

// ListPreservedByTerm returns confirmed COMPULSORY and INVITED allocations.
func (r *ECAAllocationRepository) ListPreservedByTerm(ctx context.Context, termID string) ([]models.ECAAllocation, error) {
	query := `SELECT ` + ecaAllocationColumns + ` FROM eca_allocations
WHERE term_id = $1 AND status = $2 AND allocation_type IN ($3, $4)
ORDER BY created_at, id`
	var allocations []models.ECAAllocation
	if err := r.db.SelectContext(ctx, &allocations, query, termID, models.AllocationStatusConfirmed,
		models.AllocationTypeCompulsory, models.AllocationTypeInvited); err != nil {
		return nil, fmt.Errorf("list preserved eca allocations: %w", err)
	}
	return allocations, nil
}

// DeleteNonPreservedByTerm removes every allocation a run is allowed to recompute.
func (r *ECAAllocationRepository) DeleteNonPreservedByTerm(ctx context.Context, termID string) (int64, error) {
	const query = `DELETE FROM eca_allocations WHERE term_id = $1 AND allocation_type NOT IN ($2, $3)`
	res, err := r.db.ExecContext(ctx, query, termID, models.AllocationTypeCompulsory, models.AllocationTypeInvited)
	if err != nil {
		return 0, fmt.Errorf("delete eca allocations: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// Create inserts an allocation. A duplicate row is not an error; created reports whether a row was written.
func (r *ECAAllocationRepository) Create(ctx context.Context, allocation *models.ECAAllocation) (bool, error) {
	if allocation.ID == "" {
		allocation.ID = uuid.NewString()
	}
	if allocation.Status == "" {
		allocation.Status = models.AllocationStatusConfirmed
	}
	if allocation.CreatedAt.IsZero() {
		allocation.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO eca_allocations (` + ecaAllocationColumns + `)
VALUES (:id, :term_id, :student_id, :activity_id, :day_of_week, :time_slot, :allocation_type, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, allocation); err != nil {
		if IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("create eca allocation: %w", err)
	}
	return true, nil
}

// DeleteByActivity removes all allocations referencing an activity, preserved ones included.
func (r *ECAAllocationRepository) DeleteByActivity(ctx context.Context, activityID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM eca_allocations WHERE activity_id = $1`, activityID)
	if err != nil {
		return 0, fmt.Errorf("delete eca allocations by activity: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// ListDetailsByTerm returns confirmed allocations with activity and student names for rosters.
func (r *ECAAllocationRepository) ListDetailsByTerm(ctx context.Context, termID string) ([]models.ECAAllocationDetail, error) {
	const query = `SELECT a.id, a.term_id, a.student_id, a.activity_id, a.day_of_week, a.time_slot,
a.allocation_type, a.status, a.created_at,
act.name AS activity_name, COALESCE(st.full_name, a.student_id) AS student_name
FROM eca_allocations a
JOIN eca_activities act ON act.id = a.activity_id
LEFT JOIN students st ON st.id = a.student_id
WHERE a.term_id = $1 AND a.status = $2
ORDER BY a.day_of_week, a.time_slot, act.name, student_name`
	var details []models.ECAAllocationDetail
	if err := r.db.SelectContext(ctx, &details, query, termID, models.AllocationStatusConfirmed); err != nil {
		return nil, fmt.Errorf("list eca allocation details: %w", err)
	}
	return details, nil
}
