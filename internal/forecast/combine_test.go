package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlend_UnweightedMean(t *testing.T) {
	c := NewCombiner()

	got := c.Blend([]float64{10, 20, 30}, []float64{20, 30, 40})
	assert.Equal(t, []float64{15, 25, 35}, got)
}

func TestBlend_TruncatesToShorter(t *testing.T) {
	c := NewCombiner()

	tests := []struct {
		name       string
		regression []float64
		seasonal   []float64
		wantLen    int
	}{
		{name: "regression longer", regression: []float64{1, 2, 3, 4, 5}, seasonal: []float64{1, 2}, wantLen: 2},
		{name: "seasonal longer", regression: []float64{1, 2}, seasonal: []float64{1, 2, 3, 4}, wantLen: 2},
		{name: "equal length", regression: []float64{1, 2, 3}, seasonal: []float64{4, 5, 6}, wantLen: 3},
		{name: "one empty", regression: nil, seasonal: []float64{1, 2}, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, c.Blend(tt.regression, tt.seasonal), tt.wantLen)
		})
	}
}

func TestNewWeightedCombiner(t *testing.T) {
	c := NewWeightedCombiner(0.8)
	got := c.Blend([]float64{10}, []float64{20})
	assert.InDelta(t, 12.0, got[0], 1e-12)

	// Out-of-range weights fall back to the unweighted mean.
	for _, w := range []float64{0, 1, -0.5, 1.5} {
		c := NewWeightedCombiner(w)
		got := c.Blend([]float64{10}, []float64{20})
		assert.InDelta(t, 15.0, got[0], 1e-12, "weight %v", w)
	}
}

func TestBlendPoints_Dates(t *testing.T) {
	c := NewCombiner()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	points := c.BlendPoints([]float64{10, 20, 30}, []float64{20, 30, 40}, start)
	require.Len(t, points, 3)

	for i, p := range points {
		assert.Equal(t, start.AddDate(0, 0, i), p.Date)
	}
	assert.Equal(t, 15.0, points[0].Value)
	assert.Equal(t, 35.0, points[2].Value)

	// Month boundaries advance by calendar day.
	endOfMonth := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	points = c.BlendPoints([]float64{1, 2}, []float64{1, 2}, endOfMonth)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), points[1].Date)
}
