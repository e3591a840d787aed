package allocation

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// Slot is a (day, time slot) pair: the unit of contention for a student's time.
type Slot struct {
	Day  models.DayOfWeek `json:"dayOfWeek"`
	Time models.TimeSlot  `json:"timeSlot"`
}

func (s Slot) String() string {
	return fmt.Sprintf("%d/%s", s.Day, s.Time)
}

func slotOf(activity models.ECAActivity) Slot {
	return Slot{Day: activity.DayOfWeek, Time: activity.TimeSlot}
}

func timeSlotOrder(t models.TimeSlot) int {
	switch t {
	case models.TimeSlotBeforeSchool:
		return 0
	case models.TimeSlotAfterSchool:
		return 1
	default:
		return 2
	}
}

func slotLess(a, b Slot) bool {
	if a.Day != b.Day {
		return a.Day < b.Day
	}
	if timeSlotOrder(a.Time) != timeSlotOrder(b.Time) {
		return timeSlotOrder(a.Time) < timeSlotOrder(b.Time)
	}
	return a.Time < b.Time
}

// slotGroup holds everything contending for one slot.
type slotGroup struct {
	Slot       Slot
	Activities []models.ECAActivity
	Priority   []models.ECASelection
	General    []models.ECASelection
}

// partitionSlots groups activities and selections by slot. Selections that reference
// activities outside the snapshot are dropped. Input order is kept inside each group.
func partitionSlots(activities []models.ECAActivity, selections []models.ECASelection) []*slotGroup {
	groups := make(map[Slot]*slotGroup)
	activitySlot := make(map[string]Slot, len(activities))
	for _, activity := range activities {
		slot := slotOf(activity)
		activitySlot[activity.ID] = slot
		group, ok := groups[slot]
		if !ok {
			group = &slotGroup{Slot: slot}
			groups[slot] = group
		}
		group.Activities = append(group.Activities, activity)
	}
	for _, selection := range selections {
		slot, ok := activitySlot[selection.ActivityID]
		if !ok {
			continue
		}
		group := groups[slot]
		if selection.IsPriority {
			group.Priority = append(group.Priority, selection)
		} else {
			group.General = append(group.General, selection)
		}
	}

	ordered := make([]*slotGroup, 0, len(groups))
	for _, group := range groups {
		ordered = append(ordered, group)
	}
	sort.Slice(ordered, func(i, j int) bool { return slotLess(ordered[i].Slot, ordered[j].Slot) })
	return ordered
}

// selectionsByStudent splits a slot's selections per student, keeping first-seen student order.
func selectionsByStudent(selections []models.ECASelection) ([]string, map[string][]models.ECASelection) {
	order := make([]string, 0)
	byStudent := make(map[string][]models.ECASelection)
	for _, selection := range selections {
		if _, seen := byStudent[selection.StudentID]; !seen {
			order = append(order, selection.StudentID)
		}
		byStudent[selection.StudentID] = append(byStudent[selection.StudentID], selection)
	}
	return order, byStudent
}
