package allocation

import "github.com/noah-isme/sma-eca-api/internal/models"

// allocatePriority places priority selections in their original order. Students who
// already hold the slot are skipped; a full activity queues the student instead of
// evicting anyone.
func allocatePriority(ctx *AllocationContext, group *slotGroup) {
	for _, selection := range group.Priority {
		if ctx.holdsSlot(selection.StudentID, group.Slot) {
			continue
		}
		if !ctx.isOpen(selection.ActivityID) {
			continue
		}
		if ctx.remaining(selection.ActivityID) <= 0 {
			ctx.enqueue(selection.StudentID, selection.ActivityID)
			ctx.markUnplaced(selection.StudentID, group.Slot, ReasonWaitlisted)
			continue
		}
		ctx.commit(Placement{
			StudentID:  selection.StudentID,
			ActivityID: selection.ActivityID,
			Slot:       group.Slot,
			Type:       models.AllocationTypeSmartPriority,
			Rank:       1,
		})
	}
}
