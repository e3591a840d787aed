package allocation

import (
	"sort"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// Preference is one entry of a student's proposal list within a slot.
type Preference struct {
	ActivityID string
	Rank       int
	Forced     bool
}

// buildPreferences orders the explicit choices by rank, drops duplicate activities and
// appends every other eligible OPEN activity in the slot in shuffled order as a forced
// preference.
func buildPreferences(ctx *AllocationContext, group *slotGroup, studentID string, selections []models.ECASelection, rnd RandomSource) []Preference {
	explicit := make([]models.ECASelection, len(selections))
	copy(explicit, selections)
	sort.SliceStable(explicit, func(i, j int) bool { return explicit[i].Rank < explicit[j].Rank })

	seen := make(map[string]struct{}, len(group.Activities))
	prefs := make([]Preference, 0, len(group.Activities))
	for _, selection := range explicit {
		if _, dup := seen[selection.ActivityID]; dup {
			continue
		}
		seen[selection.ActivityID] = struct{}{}
		prefs = append(prefs, Preference{ActivityID: selection.ActivityID, Rank: selection.Rank})
	}

	extended := make([]Preference, 0)
	for _, activity := range group.Activities {
		if _, dup := seen[activity.ID]; dup {
			continue
		}
		if !extensible(ctx, studentID, activity) {
			continue
		}
		extended = append(extended, Preference{ActivityID: activity.ID, Rank: ForcedRank, Forced: true})
	}
	rnd.Shuffle(len(extended), func(i, j int) { extended[i], extended[j] = extended[j], extended[i] })

	return append(prefs, extended...)
}

func extensible(ctx *AllocationContext, studentID string, activity models.ECAActivity) bool {
	if activity.ActivityType != models.ActivityTypeOpen {
		return false
	}
	if !activity.IsActive || !ctx.isOpen(activity.ID) {
		return false
	}
	return ctx.eligible(studentID, activity)
}
