package allocation

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

var baseTime = time.Date(2024, 8, 1, 8, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func testActivity(id, name string, day int, slot models.TimeSlot, maxCap, minCap int) models.ECAActivity {
	return models.ECAActivity{
		ID:           id,
		SchoolID:     "school-1",
		TermID:       "term-1",
		Name:         name,
		DayOfWeek:    models.DayOfWeek(day),
		TimeSlot:     slot,
		MaxCapacity:  intPtr(maxCap),
		MinCapacity:  intPtr(minCap),
		ActivityType: models.ActivityTypeOpen,
		IsActive:     true,
	}
}

func testSelection(id, studentID, activityID string, rank int, offset time.Duration) models.ECASelection {
	return models.ECASelection{
		ID:                 id,
		TermID:             "term-1",
		StudentID:          studentID,
		StudentYearGroupID: "Y7",
		ActivityID:         activityID,
		Rank:               rank,
		CreatedAt:          baseTime.Add(offset),
	}
}

func newTestEngine(seed int64) *Engine {
	return NewEngine(rand.New(rand.NewSource(seed)), zap.NewNop(), 0)
}

func placementsFor(outcome *Outcome, activityID string) []Placement {
	result := make([]Placement, 0)
	for _, p := range outcome.Placements {
		if p.ActivityID == activityID {
			result = append(result, p)
		}
	}
	return result
}

func studentsOf(placements []Placement) []string {
	ids := make([]string, 0, len(placements))
	for _, p := range placements {
		ids = append(ids, p.StudentID)
	}
	return ids
}

func TestFirstComeFillsInSubmissionOrder(t *testing.T) {
	chess := testActivity("chess", "Chess Club", 1, models.TimeSlotAfterSchool, 2, 1)
	snapshot := Snapshot{
		Activities: []models.ECAActivity{chess},
		Selections: []models.ECASelection{
			testSelection("sel-3", "S3", "chess", 1, 3*time.Minute),
			testSelection("sel-1", "S1", "chess", 1, time.Minute),
			testSelection("sel-2", "S2", "chess", 1, 2*time.Minute),
		},
	}

	outcome, err := newTestEngine(1).Run(context.Background(), snapshot, Options{Mode: models.SelectionModeFirstCome, CancelBelowMinimum: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"S1", "S2"}, studentsOf(outcome.Placements))
	for _, p := range outcome.Placements {
		assert.Equal(t, models.AllocationTypeFirstCome, p.Type)
	}
	assert.Equal(t, []WaitlistEntry{{StudentID: "S3", ActivityID: "chess", Position: 1}}, outcome.Waitlist)
	assert.Empty(t, outcome.Cancellations)
	assert.Equal(t, ChoiceBreakdown{FirstChoice: 2, Total: 2}, outcome.Breakdown)
	require.Len(t, outcome.Unplaced, 1)
	assert.Equal(t, ReasonWaitlisted, outcome.Unplaced[0].Reason)
}

func TestFirstComeTieBreaksOnSelectionID(t *testing.T) {
	chess := testActivity("chess", "Chess Club", 1, models.TimeSlotAfterSchool, 1, 1)
	snapshot := Snapshot{
		Activities: []models.ECAActivity{chess},
		Selections: []models.ECASelection{
			testSelection("sel-b", "S2", "chess", 1, 0),
			testSelection("sel-a", "S1", "chess", 1, 0),
		},
	}

	outcome, err := newTestEngine(1).Run(context.Background(), snapshot, Options{Mode: models.SelectionModeFirstCome})
	require.NoError(t, err)

	assert.Equal(t, []string{"S1"}, studentsOf(outcome.Placements))
	assert.Equal(t, "S2", outcome.Waitlist[0].StudentID)
}

func TestFirstComeMovesToNextChoiceAndClearsWaitlist(t *testing.T) {
	chess := testActivity("chess", "Chess Club", 1, models.TimeSlotAfterSchool, 1, 1)
	art := testActivity("art", "Art", 1, models.TimeSlotAfterSchool, 5, 1)
	snapshot := Snapshot{
		Activities: []models.ECAActivity{chess, art},
		Selections: []models.ECASelection{
			testSelection("sel-1", "S1", "chess", 1, 0),
			testSelection("sel-2", "S2", "chess", 1, time.Minute),
			testSelection("sel-3", "S2", "art", 2, 2*time.Minute),
		},
	}

	outcome, err := newTestEngine(1).Run(context.Background(), snapshot, Options{Mode: models.SelectionModeFirstCome})
	require.NoError(t, err)

	assert.Equal(t, []string{"S1"}, studentsOf(placementsFor(outcome, "chess")))
	assert.Equal(t, []string{"S2"}, studentsOf(placementsFor(outcome, "art")))
	assert.Empty(t, outcome.Waitlist)
	assert.Empty(t, outcome.Unplaced)
}

func TestCancellationReallocatesToBackupSelection(t *testing.T) {
	drama := testActivity("drama", "Drama", 2, models.TimeSlotAfterSchool, 25, 5)
	art := testActivity("art", "Art", 2, models.TimeSlotAfterSchool, 25, 1)
	snapshot := Snapshot{
		Activities: []models.ECAActivity{drama, art},
		Selections: []models.ECASelection{
			testSelection("sel-1", "S1", "drama", 1, 0),
			testSelection("sel-2", "S1", "art", 2, 0),
			testSelection("sel-3", "S2", "drama", 1, time.Minute),
			testSelection("sel-4", "S2", "art", 2, time.Minute),
			testSelection("sel-5", "S3", "drama", 1, 2*time.Minute),
			testSelection("sel-6", "S3", "art", 2, 2*time.Minute),
			testSelection("sel-7", "S5", "art", 1, 3*time.Minute),
		},
		Preserved: []models.ECAAllocation{{
			ID:             "alloc-invited",
			StudentID:      "S4",
			ActivityID:     "drama",
			DayOfWeek:      2,
			TimeSlot:       models.TimeSlotAfterSchool,
			AllocationType: models.AllocationTypeInvited,
			Status:         models.AllocationStatusConfirmed,
		}},
	}

	outcome, err := newTestEngine(7).Run(context.Background(), snapshot, Options{Mode: models.SelectionModeSmart, CancelBelowMinimum: true})
	require.NoError(t, err)

	require.Len(t, outcome.Cancellations, 1)
	cancelled := outcome.Cancellations[0]
	assert.Equal(t, "drama", cancelled.ActivityID)
	assert.Equal(t, 4, cancelled.Enrollment)
	assert.ElementsMatch(t, []string{"S1", "S2", "S3", "S4"}, cancelled.Displaced)
	assert.Contains(t, cancelled.Reason, "minimum 5")

	assert.Empty(t, placementsFor(outcome, "drama"))
	assert.Empty(t, outcome.Preserved)
	require.Len(t, outcome.RemovedPreserved, 1)
	assert.Equal(t, "S4", outcome.RemovedPreserved[0].StudentID)

	artPlacements := placementsFor(outcome, "art")
	assert.ElementsMatch(t, []string{"S1", "S2", "S3", "S5"}, studentsOf(artPlacements))
	for _, p := range artPlacements {
		if p.StudentID == "S5" {
			assert.Equal(t, models.AllocationTypeSmartRanked, p.Type)
			continue
		}
		assert.Equal(t, models.AllocationTypeSmartReallocation, p.Type)
		assert.Equal(t, 2, p.Rank)
	}
	assert.Equal(t, ChoiceBreakdown{FirstChoice: 1, SecondChoice: 3, Total: 4}, outcome.Breakdown)

	require.Len(t, outcome.Unplaced, 1)
	assert.Equal(t, Unplaced{StudentID: "S4", Slot: Slot{Day: 2, Time: models.TimeSlotAfterSchool}, Reason: ReasonActivityCancelled}, outcome.Unplaced[0])
	assert.Equal(t, SuggestManualPlacement, outcome.Suggestions[0].Type)
}

func TestCancellationDisabledReportsAtRisk(t *testing.T) {
	drama := testActivity("drama", "Drama", 2, models.TimeSlotAfterSchool, 25, 5)
	snapshot := Snapshot{
		Activities: []models.ECAActivity{drama},
		Selections: []models.ECASelection{
			testSelection("sel-1", "S1", "drama", 1, 0),
			testSelection("sel-2", "S2", "drama", 1, time.Minute),
		},
	}

	outcome, err := newTestEngine(3).Run(context.Background(), snapshot, Options{Mode: models.SelectionModeSmart, CancelBelowMinimum: false})
	require.NoError(t, err)

	assert.Empty(t, outcome.Cancellations)
	assert.Len(t, outcome.Placements, 2)
	require.Len(t, outcome.AtRisk, 1)
	assert.Equal(t, AtRisk{ActivityID: "drama", Name: "Drama", Enrollment: 2, Minimum: 5}, outcome.AtRisk[0])
	require.NotEmpty(t, outcome.Suggestions)
	assert.Equal(t, SuggestLowerMinimum, outcome.Suggestions[len(outcome.Suggestions)-1].Type)
}

func TestSmartForcesStudentIntoOpenActivity(t *testing.T) {
	art := testActivity("art", "Art", 3, models.TimeSlotAfterSchool, 1, 1)
	football := testActivity("football", "Football", 3, models.TimeSlotAfterSchool, 5, 1)
	band := testActivity("band", "Jazz Band", 3, models.TimeSlotAfterSchool, 5, 0)
	band.ActivityType = models.ActivityTypeInviteOnly
	snapshot := Snapshot{
		Activities: []models.ECAActivity{art, football, band},
		Selections: []models.ECASelection{
			testSelection("sel-1", "S1", "art", 1, 0),
			testSelection("sel-2", "S2", "art", 1, time.Minute),
		},
	}

	outcome, err := newTestEngine(11).Run(context.Background(), snapshot, Options{Mode: models.SelectionModeSmart, CancelBelowMinimum: true})
	require.NoError(t, err)

	require.Len(t, placementsFor(outcome, "art"), 1)
	forced := placementsFor(outcome, "football")
	require.Len(t, forced, 1)
	assert.Equal(t, models.AllocationTypeSmartForced, forced[0].Type)
	assert.True(t, forced[0].Forced)
	assert.Equal(t, ForcedRank, forced[0].Rank)
	assert.Empty(t, placementsFor(outcome, "band"))
	assert.Empty(t, outcome.Waitlist)
	assert.Equal(t, ChoiceBreakdown{FirstChoice: 1, Forced: 1, Total: 2}, outcome.Breakdown)
}

func TestSmartWaitlistsOnFirstChoiceWithoutAlternatives(t *testing.T) {
	art := testActivity("art", "Art", 3, models.TimeSlotAfterSchool, 1, 1)
	snapshot := Snapshot{
		Activities: []models.ECAActivity{art},
		Selections: []models.ECASelection{
			testSelection("sel-1", "S1", "art", 1, 0),
			testSelection("sel-2", "S2", "art", 1, time.Minute),
		},
	}

	outcome, err := newTestEngine(5).Run(context.Background(), snapshot, Options{Mode: models.SelectionModeSmart, CancelBelowMinimum: true})
	require.NoError(t, err)

	require.Len(t, outcome.Placements, 1)
	require.Len(t, outcome.Waitlist, 1)
	assert.NotEqual(t, outcome.Placements[0].StudentID, outcome.Waitlist[0].StudentID)
	assert.Equal(t, 1, outcome.Waitlist[0].Position)

	var increase *Suggestion
	for i := range outcome.Suggestions {
		if outcome.Suggestions[i].Type == SuggestIncreaseCapacity {
			increase = &outcome.Suggestions[i]
		}
	}
	require.NotNil(t, increase)
	assert.Equal(t, 1, increase.Value)
	assert.Equal(t, PriorityHigh, outcome.Suggestions[0].Priority)
}

func TestForcedPreferencesRespectYearGroups(t *testing.T) {
	art := testActivity("art", "Art", 4, models.TimeSlotBeforeSchool, 1, 1)
	seniors := testActivity("seniors", "Senior Debate", 4, models.TimeSlotBeforeSchool, 5, 0)
	seniors.EligibleYearGroups = models.NewYearGroupSet("Y12", "Y13")
	snapshot := Snapshot{
		Activities: []models.ECAActivity{art, seniors},
		Selections: []models.ECASelection{
			testSelection("sel-1", "S1", "art", 1, 0),
			testSelection("sel-2", "S2", "art", 1, time.Minute),
		},
	}

	outcome, err := newTestEngine(2).Run(context.Background(), snapshot, Options{Mode: models.SelectionModeSmart, CancelBelowMinimum: false})
	require.NoError(t, err)

	assert.Empty(t, placementsFor(outcome, "seniors"))
	assert.Len(t, outcome.Waitlist, 1)
}

func TestPriorityDoesNotEvictExistingAllocations(t *testing.T) {
	robotics := testActivity("robotics", "Robotics", 5, models.TimeSlotAfterSchool, 1, 1)
	priority := testSelection("sel-1", "S1", "robotics", 1, 0)
	priority.IsPriority = true
	snapshot := Snapshot{
		Activities: []models.ECAActivity{robotics},
		Selections: []models.ECASelection{priority},
		Preserved: []models.ECAAllocation{{
			ID:             "alloc-1",
			StudentID:      "S0",
			ActivityID:     "robotics",
			DayOfWeek:      5,
			TimeSlot:       models.TimeSlotAfterSchool,
			AllocationType: models.AllocationTypeInvited,
			Status:         models.AllocationStatusConfirmed,
		}},
	}

	outcome, err := newTestEngine(1).Run(context.Background(), snapshot, Options{Mode: models.SelectionModeSmart, CancelBelowMinimum: true})
	require.NoError(t, err)

	assert.Empty(t, outcome.Placements)
	assert.Len(t, outcome.Preserved, 1)
	assert.Equal(t, []WaitlistEntry{{StudentID: "S1", ActivityID: "robotics", Position: 1}}, outcome.Waitlist)
	assert.Empty(t, outcome.Cancellations)
}

func TestPriorityPlacedBeforeGeneralMatching(t *testing.T) {
	robotics := testActivity("robotics", "Robotics", 5, models.TimeSlotAfterSchool, 1, 1)
	general := testSelection("sel-1", "S1", "robotics", 1, 0)
	priority := testSelection("sel-2", "S2", "robotics", 1, time.Hour)
	priority.IsPriority = true
	snapshot := Snapshot{
		Activities: []models.ECAActivity{robotics},
		Selections: []models.ECASelection{general, priority},
	}

	outcome, err := newTestEngine(1).Run(context.Background(), snapshot, Options{Mode: models.SelectionModeSmart, CancelBelowMinimum: true})
	require.NoError(t, err)

	require.Len(t, outcome.Placements, 1)
	assert.Equal(t, "S2", outcome.Placements[0].StudentID)
	assert.Equal(t, models.AllocationTypeSmartPriority, outcome.Placements[0].Type)
	assert.Equal(t, "S1", outcome.Waitlist[0].StudentID)
	assert.Equal(t, ChoiceBreakdown{FirstChoice: 1, Total: 1}, outcome.Breakdown)
}

func TestAtRiskActivityLiftsLowerRanks(t *testing.T) {
	winners := func(minCap int) map[string]int {
		counts := map[string]int{}
		for seed := int64(1); seed <= 40; seed++ {
			snapshot := Snapshot{
				Activities: []models.ECAActivity{testActivity("x", "Film Club", 2, models.TimeSlotAfterSchool, 1, minCap)},
				Selections: []models.ECASelection{
					testSelection("sel-a", "A", "x", 1, 0),
					testSelection("sel-b", "B", "x", 2, time.Minute),
				},
			}
			outcome, err := newTestEngine(seed).Run(context.Background(), snapshot, Options{Mode: models.SelectionModeSmart})
			require.NoError(t, err)
			placed := studentsOf(placementsFor(outcome, "x"))
			require.Len(t, placed, 1)
			counts[placed[0]]++
		}
		return counts
	}

	atRisk := winners(5)
	assert.Positive(t, atRisk["A"], "rank 1 still competes")
	assert.Positive(t, atRisk["B"], "rank 2 ties with rank 1 on an at-risk activity")

	healthy := winners(1)
	assert.Equal(t, 40, healthy["A"], "without the lift rank 1 always wins")
	assert.Zero(t, healthy["B"])
}

func TestIterationCapStopsMatching(t *testing.T) {
	a := testActivity("a", "A", 1, models.TimeSlotAfterSchool, 1, 0)
	b := testActivity("b", "B", 1, models.TimeSlotAfterSchool, 0, 0)
	c := testActivity("c", "C", 1, models.TimeSlotAfterSchool, 0, 0)
	d := testActivity("d", "D", 1, models.TimeSlotAfterSchool, 0, 0)
	for _, act := range []*models.ECAActivity{&a, &b, &c, &d} {
		act.ActivityType = models.ActivityTypeTryout
	}
	snapshot := Snapshot{
		Activities: []models.ECAActivity{a, b, c, d},
		Selections: []models.ECASelection{
			testSelection("sel-1", "S1", "a", 1, 0),
			testSelection("sel-2", "S1", "b", 2, 0),
			testSelection("sel-3", "S1", "c", 3, 0),
			testSelection("sel-4", "S2", "a", 1, 0),
			testSelection("sel-5", "S2", "b", 2, 0),
			testSelection("sel-6", "S2", "c", 3, 0),
			testSelection("sel-7", "S2", "d", 4, 0),
			testSelection("sel-8", "S1", "d", 4, 0),
		},
	}

	engine := NewEngine(rand.New(rand.NewSource(1)), zap.NewNop(), 1)
	outcome, err := engine.Run(context.Background(), snapshot, Options{Mode: models.SelectionModeSmart})
	require.NoError(t, err)

	assert.True(t, outcome.IterationCapHit)
	assert.Equal(t, 2, outcome.Iterations)
	assert.Len(t, outcome.Placements, 1)
	require.Len(t, outcome.Waitlist, 1)
	assert.Equal(t, "a", outcome.Waitlist[0].ActivityID)
}

func TestRunRejectsUnknownMode(t *testing.T) {
	_, err := newTestEngine(1).Run(context.Background(), Snapshot{}, Options{Mode: "RANDOM"})
	assert.Error(t, err)
}

func TestRunHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snapshot := Snapshot{
		Activities: []models.ECAActivity{testActivity("a", "A", 1, models.TimeSlotAfterSchool, 1, 0)},
		Selections: []models.ECASelection{testSelection("sel-1", "S1", "a", 1, 0)},
	}
	_, err := newTestEngine(1).Run(ctx, snapshot, Options{Mode: models.SelectionModeSmart})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunSkipsInactiveAndCancelledActivities(t *testing.T) {
	inactive := testActivity("inactive", "Inactive", 1, models.TimeSlotAfterSchool, 5, 0)
	inactive.IsActive = false
	cancelled := testActivity("cancelled", "Cancelled", 1, models.TimeSlotAfterSchool, 5, 0)
	cancelled.IsCancelled = true
	snapshot := Snapshot{
		Activities: []models.ECAActivity{inactive, cancelled},
		Selections: []models.ECASelection{
			testSelection("sel-1", "S1", "inactive", 1, 0),
			testSelection("sel-2", "S2", "cancelled", 1, 0),
		},
	}

	outcome, err := newTestEngine(1).Run(context.Background(), snapshot, Options{Mode: models.SelectionModeSmart, CancelBelowMinimum: true})
	require.NoError(t, err)
	assert.Empty(t, outcome.Placements)
	assert.Empty(t, outcome.Waitlist)
	assert.Empty(t, outcome.Cancellations)
}

func TestSameSeedProducesSameOutcome(t *testing.T) {
	snapshot := generatedSnapshot(42, 24)
	opts := Options{Mode: models.SelectionModeSmart, CancelBelowMinimum: true}

	first, err := newTestEngine(99).Run(context.Background(), snapshot, opts)
	require.NoError(t, err)
	second, err := newTestEngine(99).Run(context.Background(), snapshot, opts)
	require.NoError(t, err)

	assert.Equal(t, first.Placements, second.Placements)
	assert.Equal(t, first.Waitlist, second.Waitlist)
}

func TestAllocationInvariantsHoldAcrossSeeds(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		for _, mode := range []models.SelectionMode{models.SelectionModeSmart, models.SelectionModeFirstCome} {
			for _, cancelBelow := range []bool{false, true} {
				name := fmt.Sprintf("seed=%d/%s/cancel=%t", seed, mode, cancelBelow)
				t.Run(name, func(t *testing.T) {
					snapshot := generatedSnapshot(seed, 30)
					outcome, err := newTestEngine(seed).Run(context.Background(), snapshot, Options{Mode: mode, CancelBelowMinimum: cancelBelow})
					require.NoError(t, err)
					assertInvariants(t, snapshot, outcome, mode, cancelBelow)
				})
			}
		}
	}
}

func assertInvariants(t *testing.T, snapshot Snapshot, outcome *Outcome, mode models.SelectionMode, cancelBelow bool) {
	t.Helper()

	activities := make(map[string]models.ECAActivity, len(snapshot.Activities))
	for _, activity := range snapshot.Activities {
		activities[activity.ID] = activity
	}
	cancelled := make(map[string]bool)
	for _, c := range outcome.Cancellations {
		cancelled[c.ActivityID] = true
	}

	held := make(map[studentSlot]int)
	enrollment := make(map[string]int)
	for _, p := range outcome.Placements {
		held[studentSlot{StudentID: p.StudentID, Slot: p.Slot}]++
		enrollment[p.ActivityID]++
		assert.False(t, cancelled[p.ActivityID], "placement in cancelled activity %s", p.ActivityID)
	}
	for _, alloc := range outcome.Preserved {
		held[studentSlot{StudentID: alloc.StudentID, Slot: slotOf(activities[alloc.ActivityID])}]++
		enrollment[alloc.ActivityID]++
	}
	for key, count := range held {
		assert.LessOrEqual(t, count, 1, "student %s double booked in %s", key.StudentID, key.Slot)
	}
	for activityID, count := range enrollment {
		assert.LessOrEqual(t, count, MaxCapacity(activities[activityID]), "activity %s over capacity", activityID)
	}

	if mode == models.SelectionModeSmart {
		b := outcome.Breakdown
		assert.Equal(t, b.Total, b.FirstChoice+b.SecondChoice+b.ThirdChoice+b.Forced)
		assert.Equal(t, len(outcome.Placements), b.Total)
	}

	waitlisted := make(map[studentSlot]bool)
	for _, entry := range outcome.Waitlist {
		assert.False(t, cancelled[entry.ActivityID])
		waitlisted[studentSlot{StudentID: entry.StudentID, Slot: slotOf(activities[entry.ActivityID])}] = true
	}
	for key := range waitlisted {
		assert.Zero(t, held[key], "student %s both placed and waitlisted in %s", key.StudentID, key.Slot)
	}

	if mode == models.SelectionModeSmart && !cancelBelow {
		for _, selection := range snapshot.Selections {
			key := studentSlot{StudentID: selection.StudentID, Slot: slotOf(activities[selection.ActivityID])}
			assert.True(t, held[key] == 1 || waitlisted[key], "student %s neither placed nor waitlisted in %s", key.StudentID, key.Slot)
		}
	}
}

// generatedSnapshot builds two contended slots with explicit capacities and mixed preferences.
func generatedSnapshot(seed int64, students int) Snapshot {
	rnd := rand.New(rand.NewSource(seed))
	activities := []models.ECAActivity{
		testActivity("a", "Art", 1, models.TimeSlotAfterSchool, 3, 2),
		testActivity("b", "Basketball", 1, models.TimeSlotAfterSchool, 4, 2),
		testActivity("c", "Coding", 1, models.TimeSlotAfterSchool, 2, 1),
		testActivity("d", "Debate", 2, models.TimeSlotBeforeSchool, 5, 3),
		testActivity("e", "Eco Club", 2, models.TimeSlotBeforeSchool, 2, 1),
		testActivity("f", "Film", 2, models.TimeSlotBeforeSchool, 3, 2),
	}
	slots := [][]string{{"a", "b", "c"}, {"d", "e", "f"}}

	selections := make([]models.ECASelection, 0)
	seq := 0
	for i := 0; i < students; i++ {
		studentID := fmt.Sprintf("S%02d", i)
		for _, slotActivities := range slots {
			picks := rnd.Perm(len(slotActivities))[:1+rnd.Intn(len(slotActivities))]
			for rank, idx := range picks {
				seq++
				selection := testSelection(fmt.Sprintf("sel-%03d", seq), studentID, slotActivities[idx], rank+1, time.Duration(rnd.Intn(3600))*time.Second)
				selection.IsPriority = rank == 0 && rnd.Intn(10) == 0
				selections = append(selections, selection)
			}
		}
	}
	return Snapshot{Activities: activities, Selections: selections}
}
