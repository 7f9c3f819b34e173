package relevance

import (
	"fmt"
	"strconv"
	"time"

	"github.com/soundprediction/go-livemem/pkg/cache"
	"github.com/soundprediction/go-livemem/pkg/types"
)

// Memoizer caches base-formula scores by equivalence bucket. Two inputs
// that land in the same (importance, category-class, connection, age-band)
// bucket always produce the same score, so caching by bucket is lossless.
type Memoizer struct {
	calc  *Calculator
	cache cache.Cache
	ttl   time.Duration
}

// NewMemoizer wraps calc with bucket-level caching. A nil cache disables
// memoization and every call falls through to the calculator.
func NewMemoizer(calc *Calculator, c cache.Cache, ttl time.Duration) *Memoizer {
	return &Memoizer{calc: calc, cache: c, ttl: ttl}
}

// Score returns the memoized base score for the given inputs.
func (m *Memoizer) Score(importance types.Importance, category string, connections, ageDays int) float64 {
	if m.cache == nil {
		return m.calc.Score(importance, category, connections, ageDays)
	}

	key := m.bucketKey(importance, category, connections, ageDays)
	if raw, err := m.cache.Get(key); err == nil {
		if score, err := strconv.ParseFloat(string(raw), 64); err == nil {
			return score
		}
	}

	score := m.calc.Score(importance, category, connections, ageDays)
	_ = m.cache.Set(key, strconv.AppendFloat(nil, score, 'g', -1, 64), m.ttl)
	return score
}

func (m *Memoizer) bucketKey(importance types.Importance, category string, connections, ageDays int) string {
	w := m.calc.Weights()

	// Only the "professional" category changes the base term, so all other
	// categories share one bucket.
	catClass := "other"
	if category == "professional" {
		catClass = "professional"
	}

	if connections < 0 {
		connections = 0
	}
	if connections > w.ConnectionSaturation {
		connections = w.ConnectionSaturation
	}

	ageBand := 2
	switch {
	case ageDays < w.RecentDays:
		ageBand = 0
	case ageDays < w.MidDays:
		ageBand = 1
	}

	return fmt.Sprintf("relevance:%s:%s:%d:%d", importance, catClass, connections, ageBand)
}
