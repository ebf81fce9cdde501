// Package forecast defines the forecast result types, the unweighted
// model combiner and the directional accuracy score.
package forecast

import (
	"time"
)

// Point is a single (date, predicted value) pair.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Report is the terminal output of a forecast run: a human-readable
// summary plus the three prediction sequences. It is created fresh per
// invocation and never mutated after being returned. On failure the
// summary carries the error message and all three sequences are empty.
type Report struct {
	Symbol      string    `json:"symbol"`
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Summary  string  `json:"summary"`
	Accuracy float64 `json:"accuracy"` // directional accuracy percentage, 0-100
	Scored   bool    `json:"scored"`   // false when the test segment was empty

	Regression []Point `json:"regression"`
	Seasonal   []Point `json:"seasonal"`
	Combined   []Point `json:"combined"`
}

// Values extracts the prediction values from a point sequence.
func Values(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
