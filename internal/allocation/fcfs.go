package allocation

import (
	"sort"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// allocateFirstCome walks every selection once in submission order. Earlier
// submissions win; ties on the timestamp fall back to the selection id.
func allocateFirstCome(ctx *AllocationContext, selections []models.ECASelection) {
	ordered := make([]models.ECASelection, len(selections))
	copy(ordered, selections)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, selection := range ordered {
		activity, ok := ctx.activities[selection.ActivityID]
		if !ok {
			continue
		}
		slot := slotOf(activity)
		if ctx.holdsSlot(selection.StudentID, slot) {
			continue
		}
		if ctx.remaining(activity.ID) <= 0 {
			ctx.enqueue(selection.StudentID, activity.ID)
			ctx.markUnplaced(selection.StudentID, slot, ReasonWaitlisted)
			continue
		}
		ctx.commit(Placement{
			StudentID:  selection.StudentID,
			ActivityID: activity.ID,
			Slot:       slot,
			Type:       models.AllocationTypeFirstCome,
			Rank:       1,
		})
	}
}
