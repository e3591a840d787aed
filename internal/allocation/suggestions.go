package allocation

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// SuggestionType names the follow-up an administrator could take.
type SuggestionType string

const (
	SuggestIncreaseCapacity SuggestionType = "INCREASE_CAPACITY"
	SuggestAddSession       SuggestionType = "ADD_SESSION"
	SuggestLowerMinimum     SuggestionType = "LOWER_MINIMUM"
	SuggestRecruit          SuggestionType = "RECRUIT"
	SuggestManualPlacement  SuggestionType = "MANUAL_PLACEMENT"
)

// SuggestionPriority orders suggestions from most to least urgent.
type SuggestionPriority string

const (
	PriorityHigh   SuggestionPriority = "HIGH"
	PriorityMedium SuggestionPriority = "MEDIUM"
	PriorityLow    SuggestionPriority = "LOW"
)

func (p SuggestionPriority) weight() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

const maxCapacityIncrease = 10

// Suggestion is a heuristic improvement derived from the final allocation state.
type Suggestion struct {
	Type         SuggestionType     `json:"type"`
	Priority     SuggestionPriority `json:"priority"`
	ActivityID   string             `json:"activityId,omitempty"`
	ActivityName string             `json:"activityName,omitempty"`
	Value        int                `json:"value,omitempty"`
	Message      string             `json:"message"`
}

func buildSuggestions(ctx *AllocationContext, activities []models.ECAActivity, cancellations []Cancellation, unplaced int) []Suggestion {
	cancelledEnrollment := make(map[string]int, len(cancellations))
	for _, cancellation := range cancellations {
		cancelledEnrollment[cancellation.ActivityID] = cancellation.Enrollment
	}

	suggestions := make([]Suggestion, 0)
	for _, activity := range activities {
		maxCap := ctx.maxCap[activity.ID]
		minCap := ctx.minCap[activity.ID]
		requests := ctx.demand[activity.ID].Requests

		if reason, cancelled := ctx.cancelled[activity.ID]; cancelled {
			suggestions = append(suggestions, Suggestion{
				Type:         SuggestRecruit,
				Priority:     PriorityMedium,
				ActivityID:   activity.ID,
				ActivityName: activity.Name,
				Value:        minCap - cancelledEnrollment[activity.ID],
				Message:      fmt.Sprintf("%s (%s). Recruit more students or lower the minimum before re-running.", activity.Name, reason),
			})
			continue
		}

		if waiting := len(ctx.waitlists[activity.ID]); waiting > 0 {
			increase := waiting
			if increase > maxCapacityIncrease {
				increase = maxCapacityIncrease
			}
			suggestions = append(suggestions, Suggestion{
				Type:         SuggestIncreaseCapacity,
				Priority:     PriorityMedium,
				ActivityID:   activity.ID,
				ActivityName: activity.Name,
				Value:        increase,
				Message:      fmt.Sprintf("Increase capacity of %s by %d to absorb its waitlist of %d.", activity.Name, increase, waiting),
			})
		}

		if float64(requests) > 1.5*float64(maxCap) {
			suggestions = append(suggestions, Suggestion{
				Type:         SuggestAddSession,
				Priority:     PriorityMedium,
				ActivityID:   activity.ID,
				ActivityName: activity.Name,
				Value:        requests - maxCap,
				Message:      fmt.Sprintf("%s received %d requests for %d places; consider an additional session.", activity.Name, requests, maxCap),
			})
		}

		enrollment := ctx.enrollment[activity.ID]
		if enrollment > 0 && enrollment < minCap {
			suggestions = append(suggestions, Suggestion{
				Type:         SuggestLowerMinimum,
				Priority:     PriorityLow,
				ActivityID:   activity.ID,
				ActivityName: activity.Name,
				Value:        enrollment,
				Message:      fmt.Sprintf("%s has %d of minimum %d students; lower the minimum or recruit.", activity.Name, enrollment, minCap),
			})
		}
	}

	if unplaced > 0 {
		suggestions = append(suggestions, Suggestion{
			Type:     SuggestManualPlacement,
			Priority: PriorityHigh,
			Value:    unplaced,
			Message:  fmt.Sprintf("%d student slot(s) have no allocation and need manual placement.", unplaced),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority.weight() < suggestions[j].Priority.weight()
	})
	return suggestions
}
