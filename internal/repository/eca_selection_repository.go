package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// ECASelectionRepository reads student activity preferences.
type ECASelectionRepository struct {
	db *sqlx.DB
}

// NewECASelectionRepository constructs the repository.
func NewECASelectionRepository(db *sqlx.DB) *ECASelectionRepository {
	return &ECASelectionRepository{db: db}
}

// ListByTerm returns the term's selections in submission order, joined with each
// student's year group.
func (r *ECASelectionRepository) ListByTerm(ctx context.Context, termID string) ([]models.ECASelection, error) {
	const query = `SELECT s.id, s.term_id, s.student_id, COALESCE(st.year_group_id, '') AS student_year_group_id,
s.activity_id, s.rank, s.is_priority, s.created_at
FROM eca_selections s
LEFT JOIN students st ON st.id = s.student_id
WHERE s.term_id = $1
ORDER BY s.created_at, s.id`
	var selections []models.ECASelection
	if err := r.db.SelectContext(ctx, &selections, query, termID); err != nil {
		return nil, fmt.Errorf("list eca selections: %w", err)
	}
	return selections, nil
}
