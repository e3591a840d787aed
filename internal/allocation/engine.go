package allocation

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// DefaultIterationFactor bounds deferred acceptance at students × factor rounds per slot.
const DefaultIterationFactor = 100

// Reasons attached to unplaced student slots.
const (
	ReasonWaitlisted        = "WAITLISTED"
	ReasonActivityCancelled = "ACTIVITY_CANCELLED"
)

// Snapshot is the read-only input of a run.
type Snapshot struct {
	Activities []models.ECAActivity
	Selections []models.ECASelection
	// Preserved holds COMPULSORY and INVITED allocations that survive runs.
	Preserved []models.ECAAllocation
}

// Options tunes a single run.
type Options struct {
	Mode               models.SelectionMode
	CancelBelowMinimum bool
}

// WaitlistEntry is a queued student with a 1-based position per activity.
type WaitlistEntry struct {
	StudentID  string `json:"studentId"`
	ActivityID string `json:"activityId"`
	Position   int    `json:"position"`
}

// Unplaced is a student slot that ended the run without an allocation.
type Unplaced struct {
	StudentID string `json:"studentId"`
	Slot      Slot   `json:"slot"`
	Reason    string `json:"reason"`
}

// ChoiceBreakdown counts engine allocations by the choice they satisfied.
type ChoiceBreakdown struct {
	FirstChoice  int `json:"firstChoice"`
	SecondChoice int `json:"secondChoice"`
	ThirdChoice  int `json:"thirdChoice"`
	Forced       int `json:"forced"`
	Total        int `json:"total"`
}

// Outcome is everything a run decided. Nothing has been persisted yet.
type Outcome struct {
	Mode             models.SelectionMode
	Placements       []Placement
	Preserved        []models.ECAAllocation
	RemovedPreserved []models.ECAAllocation
	Waitlist         []WaitlistEntry
	Cancellations    []Cancellation
	AtRisk           []AtRisk
	Unplaced         []Unplaced
	Breakdown        ChoiceBreakdown
	Suggestions      []Suggestion
	Demand           map[string]Demand
	Enrollment       map[string]int
	Iterations       int
	IterationCapHit  bool
}

// Engine allocates students to activities for one term at a time.
type Engine struct {
	rnd             RandomSource
	logger          *zap.Logger
	iterationFactor int
}

// NewEngine constructs an engine. A nil source is seeded from the clock.
func NewEngine(rnd RandomSource, logger *zap.Logger, iterationFactor int) *Engine {
	if rnd == nil {
		rnd = NewRandomSource(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if iterationFactor <= 0 {
		iterationFactor = DefaultIterationFactor
	}
	return &Engine{rnd: rnd, logger: logger, iterationFactor: iterationFactor}
}

// Run computes allocations, waitlists and cancellations for the snapshot.
func (e *Engine) Run(ctx context.Context, snapshot Snapshot, opts Options) (*Outcome, error) {
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("unknown selection mode %q", opts.Mode)
	}
	snapshot.Activities = runnable(snapshot.Activities)

	actx := newAllocationContext(snapshot)
	groups := partitionSlots(snapshot.Activities, snapshot.Selections)
	_, byStudent := selectionsByStudent(snapshot.Selections)

	outcome := &Outcome{Mode: opts.Mode, Demand: actx.demand}

	switch opts.Mode {
	case models.SelectionModeFirstCome:
		allocateFirstCome(actx, snapshot.Selections)
	case models.SelectionModeSmart:
		for _, group := range groups {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			iterations, capHit := e.runSmartSlot(actx, group)
			outcome.Iterations += iterations
			outcome.IterationCapHit = outcome.IterationCapHit || capHit
		}
	}

	if opts.CancelBelowMinimum {
		outcome.Cancellations = enforceMinimums(actx, snapshot.Activities, byStudent)
	}
	outcome.AtRisk = collectAtRisk(actx, snapshot.Activities)

	outcome.Placements = actx.placements
	outcome.Preserved = actx.preserved
	outcome.RemovedPreserved = actx.removed
	outcome.Waitlist = waitlistEntries(actx, snapshot.Activities)
	outcome.Unplaced = unplacedEntries(actx)
	outcome.Breakdown = tally(actx.placements)
	outcome.Suggestions = buildSuggestions(actx, snapshot.Activities, outcome.Cancellations, len(outcome.Unplaced))
	outcome.Enrollment = actx.enrollment

	e.logger.Debug("allocation engine finished",
		zap.String("mode", string(opts.Mode)),
		zap.Int("slots", len(groups)),
		zap.Int("placements", len(outcome.Placements)),
		zap.Int("waitlisted", len(outcome.Waitlist)),
		zap.Int("cancelled", len(outcome.Cancellations)),
	)
	return outcome, nil
}

func (e *Engine) runSmartSlot(actx *AllocationContext, group *slotGroup) (int, bool) {
	allocatePriority(actx, group)

	order, byStudent := selectionsByStudent(group.General)
	proposers := make([]*proposer, 0, len(order))
	for _, studentID := range order {
		if actx.holdsSlot(studentID, group.Slot) {
			continue
		}
		prefs := buildPreferences(actx, group, studentID, byStudent[studentID], e.rnd)
		proposers = append(proposers, &proposer{StudentID: studentID, Prefs: prefs})
	}
	if len(proposers) == 0 {
		return 0, false
	}

	result := e.deferredAcceptance(actx, group, proposers, len(proposers)*e.iterationFactor)
	e.logger.Debug("slot matched",
		zap.String("slot", group.Slot.String()),
		zap.Int("proposers", len(proposers)),
		zap.Int("iterations", result.Iterations),
	)
	return result.Iterations, result.CapHit
}

func runnable(activities []models.ECAActivity) []models.ECAActivity {
	result := make([]models.ECAActivity, 0, len(activities))
	for _, activity := range activities {
		if !activity.IsActive || activity.IsCancelled {
			continue
		}
		result = append(result, activity)
	}
	return result
}

func waitlistEntries(actx *AllocationContext, activities []models.ECAActivity) []WaitlistEntry {
	entries := make([]WaitlistEntry, 0)
	for _, activity := range activities {
		for i, studentID := range actx.waitlists[activity.ID] {
			entries = append(entries, WaitlistEntry{StudentID: studentID, ActivityID: activity.ID, Position: i + 1})
		}
	}
	return entries
}

func unplacedEntries(actx *AllocationContext) []Unplaced {
	entries := make([]Unplaced, 0, len(actx.unplaced))
	for key, reason := range actx.unplaced {
		if actx.holdsSlot(key.StudentID, key.Slot) {
			continue
		}
		if reason == ReasonWaitlisted && !actx.isWaitlisted(key.StudentID, key.Slot) {
			reason = ReasonActivityCancelled
		}
		entries = append(entries, Unplaced{StudentID: key.StudentID, Slot: key.Slot, Reason: reason})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StudentID != entries[j].StudentID {
			return entries[i].StudentID < entries[j].StudentID
		}
		return slotLess(entries[i].Slot, entries[j].Slot)
	})
	return entries
}

func tally(placements []Placement) ChoiceBreakdown {
	breakdown := ChoiceBreakdown{Total: len(placements)}
	for _, placement := range placements {
		switch placement.Type {
		case models.AllocationTypeFirstCome, models.AllocationTypeSmartPriority:
			breakdown.FirstChoice++
		case models.AllocationTypeSmartRanked, models.AllocationTypeSmartReallocation:
			switch {
			case placement.Rank <= 1:
				breakdown.FirstChoice++
			case placement.Rank == 2:
				breakdown.SecondChoice++
			default:
				breakdown.ThirdChoice++
			}
		case models.AllocationTypeSmartForced:
			breakdown.Forced++
		case models.AllocationTypeCompulsory, models.AllocationTypeInvited:
			breakdown.Total--
		}
	}
	return breakdown
}
