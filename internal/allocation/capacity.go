package allocation

import (
	"strings"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

const (
	// DefaultMaxCapacity applies to activities without an explicit maximum.
	DefaultMaxCapacity = 25
	// LargeEnsembleCapacity applies to unbounded choir, dance and orchestra activities.
	LargeEnsembleCapacity = 100
	// DefaultMinCapacity is the minimum viable enrollment when none is configured.
	DefaultMinCapacity = 8
)

var largeEnsembleKeywords = []string{"choir", "dance", "orchestra"}

// MaxCapacity resolves the effective maximum enrollment of an activity.
func MaxCapacity(activity models.ECAActivity) int {
	if activity.MaxCapacity != nil {
		return *activity.MaxCapacity
	}
	name := strings.ToLower(activity.Name)
	for _, keyword := range largeEnsembleKeywords {
		if strings.Contains(name, keyword) {
			return LargeEnsembleCapacity
		}
	}
	return DefaultMaxCapacity
}

// MinCapacity resolves the minimum viable enrollment of an activity.
func MinCapacity(activity models.ECAActivity) int {
	if activity.MinCapacity != nil {
		return *activity.MinCapacity
	}
	return DefaultMinCapacity
}
