// Package relevance scores memory nodes by importance, connectivity, and
// recency. The base formula is pure and deterministic; access boosts and
// idle decay are applied to stored scores by the graph store, never here.
package relevance

import (
	"time"

	"github.com/soundprediction/go-livemem/pkg/types"
)

// Weights holds the scoring policy. The constants are tunable policy, not
// derived invariants; DefaultWeights matches the shipped behavior.
type Weights struct {
	HighImportance       float64 `mapstructure:"high_importance"`
	ProfessionalCategory float64 `mapstructure:"professional_category"`
	Base                 float64 `mapstructure:"base"`

	ConnectionWeight     float64 `mapstructure:"connection_weight"`
	ConnectionSaturation int     `mapstructure:"connection_saturation"`

	RecentBonus float64 `mapstructure:"recent_bonus"`
	RecentDays  int     `mapstructure:"recent_days"`
	MidBonus    float64 `mapstructure:"mid_bonus"`
	MidDays     int     `mapstructure:"mid_days"`

	AccessBoost    float64 `mapstructure:"access_boost"`
	DecayFactor    float64 `mapstructure:"decay_factor"`
	DecayAfterDays int     `mapstructure:"decay_after_days"`
}

// DefaultWeights returns the standard scoring policy.
func DefaultWeights() Weights {
	return Weights{
		HighImportance:       0.3,
		ProfessionalCategory: 0.2,
		Base:                 0.1,
		ConnectionWeight:     0.3,
		ConnectionSaturation: 10,
		RecentBonus:          0.4,
		RecentDays:           30,
		MidBonus:             0.2,
		MidDays:              90,
		AccessBoost:          1.1,
		DecayFactor:          0.9,
		DecayAfterDays:       30,
	}
}

// Calculator computes base relevance scores.
type Calculator struct {
	weights Weights
}

// NewCalculator creates a calculator with the given weights.
func NewCalculator(w Weights) *Calculator {
	if w.ConnectionSaturation <= 0 {
		w.ConnectionSaturation = DefaultWeights().ConnectionSaturation
	}
	return &Calculator{weights: w}
}

// Weights returns the calculator's scoring policy.
func (c *Calculator) Weights() Weights {
	return c.weights
}

// Score computes the base relevance score for a node's attributes.
// With default weights the result is always within [0.1, 1.0].
func (c *Calculator) Score(importance types.Importance, category string, connections, ageDays int) float64 {
	w := c.weights

	base := w.Base
	switch {
	case importance == types.ImportanceHigh:
		base = w.HighImportance
	case category == "professional":
		base = w.ProfessionalCategory
	}

	if connections < 0 {
		connections = 0
	}
	if connections > w.ConnectionSaturation {
		connections = w.ConnectionSaturation
	}
	connBonus := float64(connections) / float64(w.ConnectionSaturation) * w.ConnectionWeight

	var ageBonus float64
	switch {
	case ageDays < w.RecentDays:
		ageBonus = w.RecentBonus
	case ageDays < w.MidDays:
		ageBonus = w.MidBonus
	}

	return base + connBonus + ageBonus
}

// ScoreNode scores a node using its loaded connection count and its age
// relative to now.
func (c *Calculator) ScoreNode(node *types.MemoryNode, now time.Time) float64 {
	return c.Score(node.Importance, node.Category, node.Connections, node.AgeDays(now))
}
