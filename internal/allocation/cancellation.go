package allocation

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// Cancellation describes an activity cancelled for missing its minimum enrollment.
type Cancellation struct {
	ActivityID string   `json:"activityId"`
	Name       string   `json:"name"`
	Enrollment int      `json:"enrollment"`
	Minimum    int      `json:"minimum"`
	Reason     string   `json:"reason"`
	Displaced  []string `json:"displaced"`
}

// AtRisk is an activity that runs below its minimum without being cancelled.
type AtRisk struct {
	ActivityID string `json:"activityId"`
	Name       string `json:"name"`
	Enrollment int    `json:"enrollment"`
	Minimum    int    `json:"minimum"`
}

// enforceMinimums cancels every open activity whose enrollment is below its minimum,
// then gives each displaced student one chance at their next selection in the same slot.
func enforceMinimums(ctx *AllocationContext, activities []models.ECAActivity, selectionsByStudent map[string][]models.ECASelection) []Cancellation {
	targets := make([]models.ECAActivity, 0)
	for _, activity := range activities {
		if !ctx.isOpen(activity.ID) {
			continue
		}
		if ctx.enrollment[activity.ID] < ctx.minCap[activity.ID] {
			targets = append(targets, activity)
		}
	}

	cancellations := make([]Cancellation, 0, len(targets))
	for _, activity := range targets {
		enrollment := ctx.enrollment[activity.ID]
		reason := fmt.Sprintf("Cancelled: %d of minimum %d students enrolled", enrollment, ctx.minCap[activity.ID])
		displaced := ctx.cancel(activity.ID, reason)
		cancellations = append(cancellations, Cancellation{
			ActivityID: activity.ID,
			Name:       activity.Name,
			Enrollment: enrollment,
			Minimum:    ctx.minCap[activity.ID],
			Reason:     reason,
			Displaced:  displaced,
		})
	}

	for _, cancellation := range cancellations {
		slot := slotOf(ctx.activities[cancellation.ActivityID])
		for _, studentID := range cancellation.Displaced {
			reallocate(ctx, studentID, slot, selectionsByStudent[studentID])
		}
	}
	return cancellations
}

// reallocate tries the student's own selections for the slot in rank order. It never
// reopens matching, so nobody already placed is displaced.
func reallocate(ctx *AllocationContext, studentID string, slot Slot, selections []models.ECASelection) {
	if ctx.holdsSlot(studentID, slot) {
		return
	}
	candidates := make([]models.ECASelection, 0, len(selections))
	for _, selection := range selections {
		activity, ok := ctx.activities[selection.ActivityID]
		if !ok || slotOf(activity) != slot {
			continue
		}
		candidates = append(candidates, selection)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Rank < candidates[j].Rank })

	for _, selection := range candidates {
		if !ctx.isOpen(selection.ActivityID) || ctx.remaining(selection.ActivityID) <= 0 {
			continue
		}
		ctx.commit(Placement{
			StudentID:  studentID,
			ActivityID: selection.ActivityID,
			Slot:       slot,
			Type:       models.AllocationTypeSmartReallocation,
			Rank:       selection.Rank,
		})
		return
	}
	ctx.markUnplaced(studentID, slot, ReasonActivityCancelled)
}

// collectAtRisk lists open activities with some but not enough students.
func collectAtRisk(ctx *AllocationContext, activities []models.ECAActivity) []AtRisk {
	result := make([]AtRisk, 0)
	for _, activity := range activities {
		if !ctx.isOpen(activity.ID) {
			continue
		}
		enrollment := ctx.enrollment[activity.ID]
		if enrollment > 0 && enrollment < ctx.minCap[activity.ID] {
			result = append(result, AtRisk{
				ActivityID: activity.ID,
				Name:       activity.Name,
				Enrollment: enrollment,
				Minimum:    ctx.minCap[activity.ID],
			})
		}
	}
	return result
}
