package dataset

import (
	"fmt"
	"sort"
	"time"
)

// Bar represents a single day's price bar for a symbol.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// IsValid checks if the bar data is internally consistent
func (b Bar) IsValid() bool {
	return !b.Date.IsZero() && b.Close > 0 && b.High >= b.Low &&
		b.Volume >= 0
}

// Return calculates the simple return relative to the previous close
func (b Bar) Return(prevClose float64) float64 {
	if prevClose <= 0 {
		return 0
	}
	return (b.Close - prevClose) / prevClose
}

// PriceSeries is a date-indexed sequence of price bars, strictly
// increasing by date with no duplicates. Chronological order is
// load-bearing for every downstream step and must never be disturbed.
type PriceSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// NewPriceSeries builds a series from bars, sorting by date and
// rejecting duplicate dates.
func NewPriceSeries(symbol string, bars []Bar) (*PriceSeries, error) {
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Equal(sorted[i-1].Date) {
			return nil, fmt.Errorf("duplicate date in series: %s", sorted[i].Date.Format("2006-01-02"))
		}
	}

	return &PriceSeries{Symbol: symbol, Bars: sorted}, nil
}

// Len returns the number of bars in the series.
func (ps *PriceSeries) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.Bars)
}

// IsEmpty reports whether the series has no bars at all.
func (ps *PriceSeries) IsEmpty() bool {
	return ps.Len() == 0
}

// Closes returns the closing prices in chronological order.
func (ps *PriceSeries) Closes() []float64 {
	closes := make([]float64, ps.Len())
	for i, b := range ps.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Dates returns the bar dates in chronological order.
func (ps *PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, ps.Len())
	for i, b := range ps.Bars {
		dates[i] = b.Date
	}
	return dates
}

// Start returns the first bar date, or the zero time for an empty series.
func (ps *PriceSeries) Start() time.Time {
	if ps.IsEmpty() {
		return time.Time{}
	}
	return ps.Bars[0].Date
}

// End returns the last bar date, or the zero time for an empty series.
func (ps *PriceSeries) End() time.Time {
	if ps.IsEmpty() {
		return time.Time{}
	}
	return ps.Bars[len(ps.Bars)-1].Date
}
