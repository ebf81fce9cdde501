// Package datasource abstracts market-data retrieval behind the
// Provider interface so the forecasting core stays free of I/O.
package datasource

import (
	"context"
	"time"

	"pricecast/internal/dataset"
)

// Provider fetches a date-indexed series of price bars for a symbol.
// Implementations must return bars in chronological order.
type Provider interface {
	// Name identifies the provider for logging.
	Name() string

	// Fetch returns the bars for symbol between start and end inclusive.
	// An empty result is not an error at this level; the pipeline
	// decides how to treat it.
	Fetch(ctx context.Context, symbol string, start, end time.Time) (*dataset.PriceSeries, error)
}

// Static is an in-memory provider used in tests and for replaying
// recorded series.
type Static struct {
	Series map[string]*dataset.PriceSeries
}

// NewStatic creates a provider serving the given series.
func NewStatic(series ...*dataset.PriceSeries) *Static {
	m := make(map[string]*dataset.PriceSeries, len(series))
	for _, s := range series {
		m[s.Symbol] = s
	}
	return &Static{Series: m}
}

func (s *Static) Name() string { return "static" }

// Fetch returns the stored bars filtered to the requested window.
func (s *Static) Fetch(_ context.Context, symbol string, start, end time.Time) (*dataset.PriceSeries, error) {
	stored, ok := s.Series[symbol]
	if !ok {
		return &dataset.PriceSeries{Symbol: symbol}, nil
	}

	var bars []dataset.Bar
	for _, b := range stored.Bars {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		bars = append(bars, b)
	}
	return &dataset.PriceSeries{Symbol: symbol, Bars: bars}, nil
}
