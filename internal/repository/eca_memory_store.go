package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// MemoryStore keeps ECA tables in process memory. It backs offline simulations and tests and
// enforces the same uniqueness rules as the SQL schema.
type MemoryStore struct {
	mu          sync.RWMutex
	terms       map[string]*models.Term
	schools     map[string]*models.School
	activities  map[string]*models.ECAActivity
	selections  []models.ECASelection
	allocations []models.ECAAllocation
	waitlist    []models.ECAWaitlistEntry
	students    map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		terms:      make(map[string]*models.Term),
		schools:    make(map[string]*models.School),
		activities: make(map[string]*models.ECAActivity),
		students:   make(map[string]string),
	}
}

// SeedSchool inserts or replaces a school.
func (s *MemoryStore) SeedSchool(school models.School) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schools[school.ID] = &school
}

// SeedTerm inserts or replaces a term.
func (s *MemoryStore) SeedTerm(term models.Term) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms[term.ID] = &term
}

// SeedStudent registers a display name for exports.
func (s *MemoryStore) SeedStudent(id, fullName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[id] = fullName
}

// SeedActivities inserts or replaces activities.
func (s *MemoryStore) SeedActivities(activities ...models.ECAActivity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range activities {
		activity := activities[i]
		s.activities[activity.ID] = &activity
	}
}

// SeedSelections appends selections.
func (s *MemoryStore) SeedSelections(selections ...models.ECASelection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections = append(s.selections, selections...)
}

// SeedAllocations appends allocations without uniqueness checks.
func (s *MemoryStore) SeedAllocations(allocations ...models.ECAAllocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocations = append(s.allocations, allocations...)
}

// Term returns a copy of the stored term.
func (s *MemoryStore) Term(id string) (models.Term, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	term, ok := s.terms[id]
	if !ok {
		return models.Term{}, false
	}
	return *term, true
}

// Activity returns a copy of the stored activity.
func (s *MemoryStore) Activity(id string) (models.ECAActivity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activity, ok := s.activities[id]
	if !ok {
		return models.ECAActivity{}, false
	}
	return *activity, true
}

// Allocations returns every stored allocation of the term.
func (s *MemoryStore) Allocations(termID string) []models.ECAAllocation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.ECAAllocation, 0)
	for _, allocation := range s.allocations {
		if allocation.TermID == termID {
			result = append(result, allocation)
		}
	}
	return result
}

// Waitlist returns every stored waitlist entry of the term.
func (s *MemoryStore) Waitlist(termID string) []models.ECAWaitlistEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.ECAWaitlistEntry, 0)
	for _, entry := range s.waitlist {
		if entry.TermID == termID {
			result = append(result, entry)
		}
	}
	return result
}

// MemoryTermRepository serves terms from a MemoryStore.
type MemoryTermRepository struct{ db *MemoryStore }

// NewMemoryTermRepository wraps the store.
func NewMemoryTermRepository(db *MemoryStore) *MemoryTermRepository {
	return &MemoryTermRepository{db: db}
}

// FindByID returns sql.ErrNoRows when the term is unknown.
func (r *MemoryTermRepository) FindByID(_ context.Context, id string) (*models.Term, error) {
	term, ok := r.db.Term(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &term, nil
}

// MarkAllocationRunning mirrors TermRepository.MarkAllocationRunning.
func (r *MemoryTermRepository) MarkAllocationRunning(_ context.Context, id string, staleAfter time.Duration) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	term, ok := r.db.terms[id]
	if !ok {
		return false, nil
	}
	now := time.Now().UTC()
	if term.Status == models.TermStatusAllocationRunning && !term.UpdatedAt.Before(now.Add(-staleAfter)) {
		return false, nil
	}
	term.Status = models.TermStatusAllocationRunning
	term.UpdatedAt = now
	return true, nil
}

// UpdateAllocationState mirrors TermRepository.UpdateAllocationState.
func (r *MemoryTermRepository) UpdateAllocationState(_ context.Context, id string, status models.TermStatus, allocationRun bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if term, ok := r.db.terms[id]; ok {
		term.Status = status
		term.AllocationRun = allocationRun
		term.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// MemorySchoolRepository serves schools from a MemoryStore.
type MemorySchoolRepository struct{ db *MemoryStore }

// NewMemorySchoolRepository wraps the store.
func NewMemorySchoolRepository(db *MemoryStore) *MemorySchoolRepository {
	return &MemorySchoolRepository{db: db}
}

// FindByID returns sql.ErrNoRows when the school is unknown.
func (r *MemorySchoolRepository) FindByID(_ context.Context, id string) (*models.School, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	school, ok := r.db.schools[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *school
	return &copied, nil
}

// MemoryActivityRepository serves activities from a MemoryStore.
type MemoryActivityRepository struct{ db *MemoryStore }

// NewMemoryActivityRepository wraps the store.
func NewMemoryActivityRepository(db *MemoryStore) *MemoryActivityRepository {
	return &MemoryActivityRepository{db: db}
}

func (r *MemoryActivityRepository) list(termID string, runnableOnly bool) []models.ECAActivity {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	result := make([]models.ECAActivity, 0)
	for _, activity := range r.db.activities {
		if activity.TermID != termID {
			continue
		}
		if runnableOnly && (!activity.IsActive || activity.IsCancelled) {
			continue
		}
		result = append(result, *activity)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.TimeSlot != b.TimeSlot {
			return a.TimeSlot < b.TimeSlot
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return result
}

// ListRunnableByTerm returns active, non-cancelled activities.
func (r *MemoryActivityRepository) ListRunnableByTerm(_ context.Context, termID string) ([]models.ECAActivity, error) {
	return r.list(termID, true), nil
}

// ListByTerm returns every activity of the term.
func (r *MemoryActivityRepository) ListByTerm(_ context.Context, termID string) ([]models.ECAActivity, error) {
	return r.list(termID, false), nil
}

// Cancel flags the activity as cancelled.
func (r *MemoryActivityRepository) Cancel(_ context.Context, activityID, reason string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if activity, ok := r.db.activities[activityID]; ok {
		activity.IsCancelled = true
		activity.CancelReason = &reason
		activity.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// MemorySelectionRepository serves selections from a MemoryStore.
type MemorySelectionRepository struct{ db *MemoryStore }

// NewMemorySelectionRepository wraps the store.
func NewMemorySelectionRepository(db *MemoryStore) *MemorySelectionRepository {
	return &MemorySelectionRepository{db: db}
}

// ListByTerm returns selections in submission order.
func (r *MemorySelectionRepository) ListByTerm(_ context.Context, termID string) ([]models.ECASelection, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	result := make([]models.ECASelection, 0)
	for _, selection := range r.db.selections {
		if selection.TermID == termID {
			result = append(result, selection)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// MemoryAllocationRepository serves allocations from a MemoryStore.
type MemoryAllocationRepository struct{ db *MemoryStore }

// NewMemoryAllocationRepository wraps the store.
func NewMemoryAllocationRepository(db *MemoryStore) *MemoryAllocationRepository {
	return &MemoryAllocationRepository{db: db}
}

// ListPreservedByTerm returns confirmed COMPULSORY and INVITED allocations.
func (r *MemoryAllocationRepository) ListPreservedByTerm(_ context.Context, termID string) ([]models.ECAAllocation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	result := make([]models.ECAAllocation, 0)
	for _, allocation := range r.db.allocations {
		if allocation.TermID == termID && allocation.Status == models.AllocationStatusConfirmed && allocation.AllocationType.Preserved() {
			result = append(result, allocation)
		}
	}
	return result, nil
}

// DeleteNonPreservedByTerm drops every allocation a run recomputes.
func (r *MemoryAllocationRepository) DeleteNonPreservedByTerm(_ context.Context, termID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.allocations[:0:0]
	var deleted int64
	for _, allocation := range r.db.allocations {
		if allocation.TermID == termID && !allocation.AllocationType.Preserved() {
			deleted++
			continue
		}
		kept = append(kept, allocation)
	}
	r.db.allocations = kept
	return deleted, nil
}

// Create inserts unless the student already holds the slot in this term.
func (r *MemoryAllocationRepository) Create(_ context.Context, allocation *models.ECAAllocation) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.allocations {
		if existing.TermID == allocation.TermID && existing.StudentID == allocation.StudentID &&
			existing.DayOfWeek == allocation.DayOfWeek && existing.TimeSlot == allocation.TimeSlot {
			return false, nil
		}
	}
	if allocation.ID == "" {
		allocation.ID = uuid.NewString()
	}
	if allocation.Status == "" {
		allocation.Status = models.AllocationStatusConfirmed
	}
	if allocation.CreatedAt.IsZero() {
		allocation.CreatedAt = time.Now().UTC()
	}
	r.db.allocations = append(r.db.allocations, *allocation)
	return true, nil
}

// DeleteByActivity drops every allocation referencing the activity.
func (r *MemoryAllocationRepository) DeleteByActivity(_ context.Context, activityID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.allocations[:0:0]
	var deleted int64
	for _, allocation := range r.db.allocations {
		if allocation.ActivityID == activityID {
			deleted++
			continue
		}
		kept = append(kept, allocation)
	}
	r.db.allocations = kept
	return deleted, nil
}

// ListDetailsByTerm returns confirmed allocations with display names.
func (r *MemoryAllocationRepository) ListDetailsByTerm(_ context.Context, termID string) ([]models.ECAAllocationDetail, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	result := make([]models.ECAAllocationDetail, 0)
	for _, allocation := range r.db.allocations {
		if allocation.TermID != termID || allocation.Status != models.AllocationStatusConfirmed {
			continue
		}
		detail := models.ECAAllocationDetail{ECAAllocation: allocation, StudentName: allocation.StudentID}
		if activity, ok := r.db.activities[allocation.ActivityID]; ok {
			detail.ActivityName = activity.Name
		}
		if name, ok := r.db.students[allocation.StudentID]; ok {
			detail.StudentName = name
		}
		result = append(result, detail)
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.ActivityName != b.ActivityName {
			return a.ActivityName < b.ActivityName
		}
		return a.StudentName < b.StudentName
	})
	return result, nil
}

// MemoryWaitlistRepository serves waitlists from a MemoryStore.
type MemoryWaitlistRepository struct{ db *MemoryStore }

// NewMemoryWaitlistRepository wraps the store.
func NewMemoryWaitlistRepository(db *MemoryStore) *MemoryWaitlistRepository {
	return &MemoryWaitlistRepository{db: db}
}

// DeleteByTerm clears the term's waitlists.
func (r *MemoryWaitlistRepository) DeleteByTerm(_ context.Context, termID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.waitlist[:0:0]
	var deleted int64
	for _, entry := range r.db.waitlist {
		if entry.TermID == termID {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	r.db.waitlist = kept
	return deleted, nil
}

// Create appends the entry with position max + 1 for its activity.
func (r *MemoryWaitlistRepository) Create(_ context.Context, entry *models.ECAWaitlistEntry) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	maxPosition := 0
	for _, existing := range r.db.waitlist {
		if existing.TermID == entry.TermID && existing.StudentID == entry.StudentID && existing.ActivityID == entry.ActivityID {
			return false, nil
		}
		if existing.ActivityID == entry.ActivityID && existing.Position > maxPosition {
			maxPosition = existing.Position
		}
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.Position = maxPosition + 1
	r.db.waitlist = append(r.db.waitlist, *entry)
	return true, nil
}

// ListByTerm returns waitlist rows ordered by activity name and position.
func (r *MemoryWaitlistRepository) ListByTerm(_ context.Context, termID string) ([]models.ECAWaitlistDetail, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	result := make([]models.ECAWaitlistDetail, 0)
	for _, entry := range r.db.waitlist {
		if entry.TermID != termID {
			continue
		}
		detail := models.ECAWaitlistDetail{ECAWaitlistEntry: entry}
		if activity, ok := r.db.activities[entry.ActivityID]; ok {
			detail.ActivityName = activity.Name
		}
		result = append(result, detail)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].ActivityName != result[j].ActivityName {
			return result[i].ActivityName < result[j].ActivityName
		}
		if result[i].ActivityID != result[j].ActivityID {
			return result[i].ActivityID < result[j].ActivityID
		}
		return result[i].Position < result[j].Position
	})
	return result, nil
}
