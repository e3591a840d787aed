package allocation

import "github.com/noah-isme/sma-eca-api/internal/models"

// DemandLevel classifies requests for an activity against its capacity.
type DemandLevel string

const (
	DemandAtRisk         DemandLevel = "AT_RISK"
	DemandLow            DemandLevel = "LOW_DEMAND"
	DemandBalanced       DemandLevel = "BALANCED"
	DemandHigh           DemandLevel = "HIGH_DEMAND"
	DemandOversubscribed DemandLevel = "OVERSUBSCRIBED"
)

// Demand is the analysed request volume for one activity.
type Demand struct {
	ActivityID  string      `json:"activityId"`
	Requests    int         `json:"requests"`
	MaxCapacity int         `json:"maxCapacity"`
	MinCapacity int         `json:"minCapacity"`
	Level       DemandLevel `json:"level"`
}

// ClassifyDemand maps a request count onto a demand level.
func ClassifyDemand(requests, maxCapacity, minCapacity int) DemandLevel {
	limit := float64(maxCapacity)
	switch r := float64(requests); {
	case requests < minCapacity:
		return DemandAtRisk
	case r < 0.5*limit:
		return DemandLow
	case r <= limit:
		return DemandBalanced
	case r <= 1.5*limit:
		return DemandHigh
	default:
		return DemandOversubscribed
	}
}

// AnalyzeDemand counts selections per activity and classifies each one.
func AnalyzeDemand(activities []models.ECAActivity, selections []models.ECASelection) map[string]Demand {
	counts := make(map[string]int, len(activities))
	for _, selection := range selections {
		counts[selection.ActivityID]++
	}
	result := make(map[string]Demand, len(activities))
	for _, activity := range activities {
		maxCap := MaxCapacity(activity)
		minCap := MinCapacity(activity)
		requests := counts[activity.ID]
		result[activity.ID] = Demand{
			ActivityID:  activity.ID,
			Requests:    requests,
			MaxCapacity: maxCap,
			MinCapacity: minCap,
			Level:       ClassifyDemand(requests, maxCap, minCap),
		}
	}
	return result
}

// effectiveRank applies the at-risk boost of one rank tier, never going below 1.
func effectiveRank(rank int, level DemandLevel) int {
	if level == DemandAtRisk {
		rank--
	}
	if rank < 1 {
		return 1
	}
	return rank
}
