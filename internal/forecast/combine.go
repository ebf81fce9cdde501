package forecast

import (
	"time"
)

// DefaultRegressionWeight is the regression model's share in the blend.
// The reference behavior is a plain unweighted ensemble, so the default
// stays at one half; Combiner exists as the extension point for a
// historically-weighted blend.
const DefaultRegressionWeight = 0.5

// Combiner blends two prediction sequences into one.
type Combiner struct {
	regressionWeight float64
}

// NewCombiner returns the default unweighted combiner.
func NewCombiner() *Combiner {
	return &Combiner{regressionWeight: DefaultRegressionWeight}
}

// NewWeightedCombiner returns a combiner giving the regression model the
// supplied weight and the seasonal model the remainder. Weights outside
// (0,1) fall back to the unweighted default.
func NewWeightedCombiner(regressionWeight float64) *Combiner {
	if regressionWeight <= 0 || regressionWeight >= 1 {
		regressionWeight = DefaultRegressionWeight
	}
	return &Combiner{regressionWeight: regressionWeight}
}

// Blend truncates both sequences to the shorter length and combines them
// elementwise. With the default weight this is the arithmetic mean.
func (c *Combiner) Blend(regression, seasonal []float64) []float64 {
	n := len(regression)
	if len(seasonal) < n {
		n = len(seasonal)
	}

	out := make([]float64, n)
	w := c.regressionWeight
	for i := 0; i < n; i++ {
		out[i] = w*regression[i] + (1-w)*seasonal[i]
	}
	return out
}

// BlendPoints combines two sequences and assigns dates starting at the
// forecast start date, one calendar day apart.
func (c *Combiner) BlendPoints(regression, seasonal []float64, start time.Time) []Point {
	values := c.Blend(regression, seasonal)
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Date: start.AddDate(0, 0, i), Value: v}
	}
	return points
}
