package features

import (
	"math"
	"time"
)

// Default feature configuration. The seasonal lag of 12 matches the
// reference model's monthly-seasonality assumption and is kept literal
// even for daily series.
const (
	DefaultSeasonalLag = 12
	ShortRollingWindow = 7
	LongRollingWindow  = 30

	// TrainFraction is the share of rows assigned to the contiguous
	// training prefix by Split.
	TrainFraction = 0.80
)

// Row is a single engineered observation. Every field except Date and
// Close is a model input; Close is the regression target. A row at time
// t never references information from t+1 or later.
type Row struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`

	// Derived transforms
	Diff         float64 `json:"diff"`
	LogClose     float64 `json:"log_close"`
	SeasonalDiff float64 `json:"seasonal_diff"`

	// Calendar attributes
	DayOfWeek  int `json:"day_of_week"`
	DayOfMonth int `json:"day_of_month"`
	ISOWeek    int `json:"iso_week"`
	Month      int `json:"month"`
	Quarter    int `json:"quarter"`
	Year       int `json:"year"`

	// Lagged closes
	Lag1 float64 `json:"lag_1"`
	Lag2 float64 `json:"lag_2"`
	Lag3 float64 `json:"lag_3"`

	// Trailing rolling statistics
	RollMean7  float64 `json:"roll_mean_7"`
	RollStd7   float64 `json:"roll_std_7"`
	RollMean30 float64 `json:"roll_mean_30"`
	RollStd30  float64 `json:"roll_std_30"`
}

// NumPredictors is the width of the predictor vector produced by Vector.
const NumPredictors = 16

// Vector returns the predictor columns in a fixed order, excluding the
// target. The order must stay stable: fitted models index into it.
func (r Row) Vector() []float64 {
	return []float64{
		r.Diff,
		r.LogClose,
		r.SeasonalDiff,
		float64(r.DayOfWeek),
		float64(r.DayOfMonth),
		float64(r.ISOWeek),
		float64(r.Month),
		float64(r.Quarter),
		float64(r.Year),
		r.Lag1,
		r.Lag2,
		r.Lag3,
		r.RollMean7,
		r.RollStd7,
		r.RollMean30,
		r.RollStd30,
	}
}

// hasMissing reports whether any column carries the NaN sentinel.
func (r Row) hasMissing() bool {
	for _, v := range r.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return math.IsNaN(r.Close) || math.IsInf(r.Close, 0)
}

// Frame is an ordered sequence of engineered rows for one symbol.
type Frame struct {
	Symbol string `json:"symbol"`
	Rows   []Row  `json:"rows"`
}

// Len returns the number of rows in the frame.
func (f Frame) Len() int { return len(f.Rows) }

// Targets returns the close column in order.
func (f Frame) Targets() []float64 {
	out := make([]float64, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r.Close
	}
	return out
}

// Matrix returns the predictor rows in order, aligned with Targets.
func (f Frame) Matrix() [][]float64 {
	out := make([][]float64, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r.Vector()
	}
	return out
}

// Dates returns the row dates in order.
func (f Frame) Dates() []time.Time {
	out := make([]time.Time, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r.Date
	}
	return out
}
