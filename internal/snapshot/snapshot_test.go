package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-eca-api/internal/models"
	"github.com/noah-isme/sma-eca-api/internal/repository"
)

func TestLoadAndSeed(t *testing.T) {
	snap, err := Load("testdata/term.yaml")
	require.NoError(t, err)
	require.Len(t, snap.Activities, 3)
	assert.True(t, snap.Activities[2].EligibleYearGroups.Allows("Y11"))
	assert.False(t, snap.Activities[2].EligibleYearGroups.Allows("Y10"))

	base := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	store := snap.Seed(base)

	term, ok := store.Term("term-1")
	require.True(t, ok)
	assert.Equal(t, models.TermStatusSelectionClosed, term.Status)

	runnable, err := repository.NewMemoryActivityRepository(store).ListRunnableByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Len(t, runnable, 3)

	selections, err := repository.NewMemorySelectionRepository(store).ListByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, selections, 3)
	assert.Equal(t, "sel-002", selections[1].ID)
	assert.Equal(t, base.Add(time.Second), selections[1].CreatedAt)
	assert.Equal(t, "Y10", selections[1].StudentYearGroupID)

	preserved := store.Allocations("term-1")
	require.Len(t, preserved, 1)
	assert.Equal(t, models.DayOfWeek(3), preserved[0].DayOfWeek)
	assert.Equal(t, models.TimeSlotBeforeSchool, preserved[0].TimeSlot)
	assert.Equal(t, models.AllocationStatusConfirmed, preserved[0].Status)
}

func TestParseRejectsBrokenReferences(t *testing.T) {
	cases := map[string]string{
		"missing school": `
term: {id: t}
activities: [{id: a, dayOfWeek: 1, timeSlot: AFTER_SCHOOL}]`,
		"bad slot": `
school: {id: s}
term: {id: t}
activities: [{id: a, dayOfWeek: 1, timeSlot: LUNCH}]`,
		"bad day": `
school: {id: s}
term: {id: t}
activities: [{id: a, dayOfWeek: 9, timeSlot: AFTER_SCHOOL}]`,
		"unknown activity": `
school: {id: s}
term: {id: t}
students: [{id: st}]
activities: [{id: a, dayOfWeek: 1, timeSlot: AFTER_SCHOOL}]
selections: [{studentId: st, activityId: b, rank: 1}]`,
		"unknown student": `
school: {id: s}
term: {id: t}
activities: [{id: a, dayOfWeek: 1, timeSlot: AFTER_SCHOOL}]
selections: [{studentId: ghost, activityId: a, rank: 1}]`,
		"engine allocation": `
school: {id: s}
term: {id: t}
activities: [{id: a, dayOfWeek: 1, timeSlot: AFTER_SCHOOL}]
allocations: [{studentId: st, activityId: a, allocationType: SMART_RANKED}]`,
		"bad mode": `
school: {id: s, selectionMode: LOTTERY}
term: {id: t}
activities: [{id: a, dayOfWeek: 1, timeSlot: AFTER_SCHOOL}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
