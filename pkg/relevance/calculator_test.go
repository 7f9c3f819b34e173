package relevance_test

import (
	"testing"
	"time"

	"github.com/soundprediction/go-livemem/pkg/cache"
	"github.com/soundprediction/go-livemem/pkg/relevance"
	"github.com/soundprediction/go-livemem/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	calc := relevance.NewCalculator(relevance.DefaultWeights())

	tests := []struct {
		name        string
		importance  types.Importance
		category    string
		connections int
		ageDays     int
		want        float64
	}{
		{
			name:        "high importance fresh connected",
			importance:  types.ImportanceHigh,
			category:    "personal",
			connections: 4,
			ageDays:     20,
			want:        0.3 + 0.12 + 0.4,
		},
		{
			name:       "professional mid-age",
			importance: types.ImportanceNormal,
			category:   "professional",
			ageDays:    45,
			want:       0.2 + 0 + 0.2,
		},
		{
			name:       "high importance beats professional category",
			importance: types.ImportanceHigh,
			category:   "professional",
			ageDays:    200,
			want:       0.3,
		},
		{
			name:    "floor",
			ageDays: 365,
			want:    0.1,
		},
		{
			name:        "connection bonus saturates at ten",
			importance:  types.ImportanceHigh,
			connections: 50,
			ageDays:     5,
			want:        0.3 + 0.3 + 0.4,
		},
		{
			name:        "negative connections clamp to zero",
			connections: -3,
			ageDays:     365,
			want:        0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Score(tt.importance, tt.category, tt.connections, tt.ageDays)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScoreBounds(t *testing.T) {
	calc := relevance.NewCalculator(relevance.DefaultWeights())

	for _, importance := range []types.Importance{types.ImportanceHigh, types.ImportanceNormal, types.ImportanceLow, ""} {
		for _, category := range []string{"professional", "personal", ""} {
			for conns := 0; conns <= 12; conns++ {
				for _, age := range []int{0, 29, 30, 89, 90, 400} {
					score := calc.Score(importance, category, conns, age)
					assert.GreaterOrEqual(t, score, 0.1)
					assert.LessOrEqual(t, score, 1.0)
				}
			}
		}
	}
}

func TestScoreNodeUsesLastTouched(t *testing.T) {
	calc := relevance.NewCalculator(relevance.DefaultWeights())
	now := time.Now()

	// Created long ago but updated recently: recency bonus applies.
	updated := now.AddDate(0, 0, -10)
	node := &types.MemoryNode{
		ID:          "a",
		CreatedAt:   now.AddDate(0, 0, -400),
		UpdatedAt:   &updated,
		Connections: 10,
	}
	assert.InDelta(t, 0.1+0.3+0.4, calc.ScoreNode(node, now), 1e-9)
}

func TestMemoizer(t *testing.T) {
	calc := relevance.NewCalculator(relevance.DefaultWeights())
	store, err := cache.NewBadgerCache("")
	require.NoError(t, err)
	defer store.Close()

	memo := relevance.NewMemoizer(calc, store, time.Minute)

	direct := calc.Score(types.ImportanceHigh, "personal", 4, 20)
	assert.InDelta(t, direct, memo.Score(types.ImportanceHigh, "personal", 4, 20), 1e-9)
	// Second call hits the cache and must agree.
	assert.InDelta(t, direct, memo.Score(types.ImportanceHigh, "personal", 4, 20), 1e-9)

	// Same bucket, different raw inputs: ages 5 and 20 share the recent
	// band.
	assert.InDelta(t,
		memo.Score(types.ImportanceHigh, "personal", 4, 5),
		memo.Score(types.ImportanceHigh, "personal", 4, 20), 1e-9)

	// Non-professional categories share a bucket by design of the base
	// formula.
	assert.InDelta(t,
		calc.Score(types.ImportanceNormal, "travel", 2, 50),
		memo.Score(types.ImportanceNormal, "hobby", 2, 50), 1e-9)
}

func TestMemoizerWithoutCache(t *testing.T) {
	calc := relevance.NewCalculator(relevance.DefaultWeights())
	memo := relevance.NewMemoizer(calc, nil, 0)
	assert.InDelta(t, 0.82, memo.Score(types.ImportanceHigh, "personal", 4, 20), 1e-9)
}
