package allocation

import (
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

type proposal struct {
	StudentID string
	Pref      Preference
	Effective int
}

type proposer struct {
	StudentID string
	Prefs     []Preference
	Next      int
}

// matchResult summarises one deferred-acceptance pass.
type matchResult struct {
	Iterations int
	CapHit     bool
}

// deferredAcceptance runs student-proposing Gale-Shapley over one slot. Activities hold
// their best proposals up to remaining capacity; over-subscribed activities break ties
// with a shuffle followed by a stable sort on effective rank.
func (e *Engine) deferredAcceptance(ctx *AllocationContext, group *slotGroup, proposers []*proposer, iterationCap int) matchResult {
	held := make(map[string][]proposal)
	matched := make(map[string]bool, len(proposers))
	result := matchResult{}

	for {
		incoming := make(map[string][]proposal)
		proposed := false
		for _, p := range proposers {
			if matched[p.StudentID] || p.Next >= len(p.Prefs) {
				continue
			}
			pref := p.Prefs[p.Next]
			p.Next++
			incoming[pref.ActivityID] = append(incoming[pref.ActivityID], proposal{
				StudentID: p.StudentID,
				Pref:      pref,
				Effective: effectiveRank(pref.Rank, ctx.demand[pref.ActivityID].Level),
			})
			proposed = true
		}
		if !proposed {
			break
		}
		if result.Iterations >= iterationCap {
			result.CapHit = true
			break
		}
		result.Iterations++

		activityIDs := make([]string, 0, len(incoming))
		for activityID := range incoming {
			activityIDs = append(activityIDs, activityID)
		}
		sort.Strings(activityIDs)

		for _, activityID := range activityIDs {
			pool := append(held[activityID], incoming[activityID]...)
			capacity := ctx.remaining(activityID)
			if capacity < 0 {
				capacity = 0
			}
			if len(pool) <= capacity {
				held[activityID] = pool
				for _, prop := range pool {
					matched[prop.StudentID] = true
				}
				continue
			}
			e.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
			sort.SliceStable(pool, func(i, j int) bool { return pool[i].Effective < pool[j].Effective })
			held[activityID] = pool[:capacity:capacity]
			for _, prop := range pool[:capacity] {
				matched[prop.StudentID] = true
			}
			for _, prop := range pool[capacity:] {
				matched[prop.StudentID] = false
			}
		}
	}

	if result.CapHit {
		e.logger.Warn("deferred acceptance iteration cap reached",
			zap.String("slot", group.Slot.String()),
			zap.Int("iterations", result.Iterations),
			zap.Int("cap", iterationCap),
			zap.Int("students", len(proposers)),
		)
	}

	for _, activity := range group.Activities {
		for _, prop := range held[activity.ID] {
			allocationType := models.AllocationTypeSmartRanked
			if prop.Pref.Forced {
				allocationType = models.AllocationTypeSmartForced
			}
			ctx.commit(Placement{
				StudentID:  prop.StudentID,
				ActivityID: activity.ID,
				Slot:       group.Slot,
				Type:       allocationType,
				Rank:       prop.Pref.Rank,
				Forced:     prop.Pref.Forced,
			})
		}
	}

	for _, p := range proposers {
		if matched[p.StudentID] || len(p.Prefs) == 0 {
			continue
		}
		ctx.enqueue(p.StudentID, p.Prefs[0].ActivityID)
		ctx.markUnplaced(p.StudentID, group.Slot, ReasonWaitlisted)
	}
	return result
}
