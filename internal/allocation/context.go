package allocation

import (
	"github.com/noah-isme/sma-eca-api/internal/models"
)

// ForcedRank marks a synthetic preference appended after the explicit choices.
const ForcedRank = 99

// Placement is an allocation produced by the engine during a run.
type Placement struct {
	StudentID  string                `json:"studentId"`
	ActivityID string                `json:"activityId"`
	Slot       Slot                  `json:"slot"`
	Type       models.AllocationType `json:"allocationType"`
	// Rank is the selection rank the placement satisfied; priority and FCFS placements count as 1.
	Rank   int  `json:"rank"`
	Forced bool `json:"forced"`
}

type studentSlot struct {
	StudentID string
	Slot      Slot
}

// AllocationContext is the mutable state shared by every step of one run.
type AllocationContext struct {
	activities map[string]models.ECAActivity
	maxCap     map[string]int
	minCap     map[string]int
	demand     map[string]Demand

	enrollment   map[string]int
	studentSlots map[studentSlot]string
	placements   []Placement
	preserved    []models.ECAAllocation
	removed      []models.ECAAllocation

	waitlists map[string][]string
	cancelled map[string]string
	unplaced  map[studentSlot]string

	yearGroups map[string]string
}

func newAllocationContext(snapshot Snapshot) *AllocationContext {
	ctx := &AllocationContext{
		activities:   make(map[string]models.ECAActivity, len(snapshot.Activities)),
		maxCap:       make(map[string]int, len(snapshot.Activities)),
		minCap:       make(map[string]int, len(snapshot.Activities)),
		enrollment:   make(map[string]int, len(snapshot.Activities)),
		studentSlots: make(map[studentSlot]string),
		waitlists:    make(map[string][]string),
		cancelled:    make(map[string]string),
		unplaced:     make(map[studentSlot]string),
		yearGroups:   make(map[string]string),
	}
	for _, activity := range snapshot.Activities {
		ctx.activities[activity.ID] = activity
		ctx.maxCap[activity.ID] = MaxCapacity(activity)
		ctx.minCap[activity.ID] = MinCapacity(activity)
	}
	ctx.demand = AnalyzeDemand(snapshot.Activities, snapshot.Selections)
	for _, selection := range snapshot.Selections {
		if selection.StudentYearGroupID != "" {
			if _, ok := ctx.yearGroups[selection.StudentID]; !ok {
				ctx.yearGroups[selection.StudentID] = selection.StudentYearGroupID
			}
		}
	}
	for _, alloc := range snapshot.Preserved {
		if !alloc.AllocationType.Preserved() {
			continue
		}
		slot := Slot{Day: alloc.DayOfWeek, Time: alloc.TimeSlot}
		if activity, ok := ctx.activities[alloc.ActivityID]; ok {
			slot = slotOf(activity)
			ctx.enrollment[alloc.ActivityID]++
		}
		ctx.studentSlots[studentSlot{StudentID: alloc.StudentID, Slot: slot}] = alloc.ActivityID
		ctx.preserved = append(ctx.preserved, alloc)
	}
	return ctx
}

func (c *AllocationContext) holdsSlot(studentID string, slot Slot) bool {
	_, ok := c.studentSlots[studentSlot{StudentID: studentID, Slot: slot}]
	return ok
}

func (c *AllocationContext) remaining(activityID string) int {
	return c.maxCap[activityID] - c.enrollment[activityID]
}

func (c *AllocationContext) isOpen(activityID string) bool {
	if _, ok := c.activities[activityID]; !ok {
		return false
	}
	_, cancelled := c.cancelled[activityID]
	return !cancelled
}

// commit records a placement. Any pending waitlist entries for the same slot are dropped
// so a student never ends up both placed and queued in one slot.
func (c *AllocationContext) commit(p Placement) {
	key := studentSlot{StudentID: p.StudentID, Slot: p.Slot}
	c.studentSlots[key] = p.ActivityID
	c.enrollment[p.ActivityID]++
	c.placements = append(c.placements, p)
	delete(c.unplaced, key)
	c.clearWaitlist(p.StudentID, p.Slot)
}

// enqueue appends the student to an activity waitlist unless already placed in the slot or queued there.
func (c *AllocationContext) enqueue(studentID, activityID string) {
	activity, ok := c.activities[activityID]
	if !ok || c.holdsSlot(studentID, slotOf(activity)) {
		return
	}
	for _, queued := range c.waitlists[activityID] {
		if queued == studentID {
			return
		}
	}
	c.waitlists[activityID] = append(c.waitlists[activityID], studentID)
}

func (c *AllocationContext) clearWaitlist(studentID string, slot Slot) {
	for activityID, queue := range c.waitlists {
		if slotOf(c.activities[activityID]) != slot {
			continue
		}
		for i, queued := range queue {
			if queued == studentID {
				c.waitlists[activityID] = append(queue[:i:i], queue[i+1:]...)
				break
			}
		}
	}
}

func (c *AllocationContext) isWaitlisted(studentID string, slot Slot) bool {
	for activityID, queue := range c.waitlists {
		if slotOf(c.activities[activityID]) != slot {
			continue
		}
		for _, queued := range queue {
			if queued == studentID {
				return true
			}
		}
	}
	return false
}

// cancel marks the activity cancelled, strips every allocation referencing it
// (preserved ones included) and returns the displaced students in allocation order.
func (c *AllocationContext) cancel(activityID, reason string) []string {
	c.cancelled[activityID] = reason
	slot := slotOf(c.activities[activityID])
	displaced := make([]string, 0)

	keptPreserved := c.preserved[:0:0]
	for _, alloc := range c.preserved {
		if alloc.ActivityID == activityID {
			c.removed = append(c.removed, alloc)
			displaced = append(displaced, alloc.StudentID)
			delete(c.studentSlots, studentSlot{StudentID: alloc.StudentID, Slot: slot})
			continue
		}
		keptPreserved = append(keptPreserved, alloc)
	}
	c.preserved = keptPreserved

	kept := c.placements[:0:0]
	for _, placement := range c.placements {
		if placement.ActivityID == activityID {
			displaced = append(displaced, placement.StudentID)
			delete(c.studentSlots, studentSlot{StudentID: placement.StudentID, Slot: slot})
			continue
		}
		kept = append(kept, placement)
	}
	c.placements = kept
	c.enrollment[activityID] = 0
	delete(c.waitlists, activityID)
	return displaced
}

func (c *AllocationContext) markUnplaced(studentID string, slot Slot, reason string) {
	key := studentSlot{StudentID: studentID, Slot: slot}
	if _, placed := c.studentSlots[key]; placed {
		return
	}
	c.unplaced[key] = reason
}

// eligible reports whether a student's year group may join the activity. Gender
// restrictions are stored on activities but students carry no gender, so they are not checked.
func (c *AllocationContext) eligible(studentID string, activity models.ECAActivity) bool {
	return activity.EligibleYearGroups.Allows(c.yearGroups[studentID])
}
