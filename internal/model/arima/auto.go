package arima

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"
)

// SearchConfig bounds the stepwise order search.
type SearchConfig struct {
	MaxP int `json:"max_p"`
	MaxD int `json:"max_d"`
	MaxQ int `json:"max_q"`
}

// DefaultSearchConfig mirrors the usual auto-ARIMA bounds.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{MaxP: 5, MaxD: 2, MaxQ: 5}
}

// AutoFit selects an order by stepwise search minimizing AICc, then
// refits the winner on the same training data with the full refinement
// procedure. Candidate orders that fail to converge are skipped rather
// than surfaced; AutoFit only errors when no candidate at all fits.
func AutoFit(ctx context.Context, series []float64, sc SearchConfig, logger *slog.Logger) (*Model, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(series) < 10 {
		return nil, fmt.Errorf("series too short for order selection: %d points", len(series))
	}

	d := selectDifferencing(series, sc.MaxD)

	type fitResult struct {
		order Order
		aicc  float64
	}

	tried := make(map[Order]bool)
	var best *fitResult

	evaluate := func(order Order) {
		if tried[order] || !withinBounds(order, sc) || !order.IsValid() {
			return
		}
		tried[order] = true

		model, err := Fit(series, order)
		if err != nil {
			logger.DebugContext(ctx, "order candidate skipped",
				"order", order.String(),
				"error", err,
			)
			return
		}
		if best == nil || model.AICc() < best.aicc {
			best = &fitResult{order: order, aicc: model.AICc()}
		}
	}

	// Stepwise search: seed with the conventional starting set, then
	// walk single-step neighbors of the incumbent until no move improves
	// the criterion.
	for _, start := range []Order{{2, d, 2}, {1, d, 0}, {0, d, 1}, {1, d, 1}} {
		evaluate(start)
	}
	if best == nil {
		// Widen to a plain AR sweep before giving up.
		for p := 1; p <= sc.MaxP; p++ {
			evaluate(Order{P: p, D: d, Q: 0})
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no ARIMA order converged for series of %d points", len(series))
	}

	for improved := true; improved; {
		improved = false
		current := best.order
		neighbors := []Order{
			{current.P + 1, d, current.Q},
			{current.P - 1, d, current.Q},
			{current.P, d, current.Q + 1},
			{current.P, d, current.Q - 1},
			{current.P + 1, d, current.Q + 1},
			{current.P - 1, d, current.Q - 1},
		}
		before := best.aicc
		for _, n := range neighbors {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("order search cancelled: %w", ctx.Err())
			default:
			}
			evaluate(n)
		}
		if best.aicc < before {
			improved = true
		}
	}

	logger.InfoContext(ctx, "order selection completed",
		"order", best.order.String(),
		"aicc", best.aicc,
		"candidates_tried", len(tried),
	)

	// Full refit of the selected order. Fit already iterates the
	// coefficient refinement, so this is the final estimation pass on
	// the complete training data.
	model, err := Fit(series, best.order)
	if err != nil {
		return nil, fmt.Errorf("refit selected order %s: %w", best.order, err)
	}
	return model, nil
}

// withinBounds checks the order against the configured search box.
func withinBounds(o Order, sc SearchConfig) bool {
	return o.P >= 0 && o.P <= sc.MaxP && o.Q >= 0 && o.Q <= sc.MaxQ &&
		o.D >= 0 && o.D <= sc.MaxD
}

// unitRootThreshold is the lag-1 autocorrelation above which a series is
// treated as near-integrated and differenced once more. Stationary but
// strongly autocorrelated processes stay well below it, so a plain
// variance-shrinkage rule would over-difference where this does not.
const unitRootThreshold = 0.95

// selectDifferencing picks the smallest d at which the lag-1
// autocorrelation drops below the near-unit-root threshold, a cheap
// stand-in for a formal unit-root test that works well on price data.
func selectDifferencing(series []float64, maxD int) int {
	current := append([]float64(nil), series...)

	for d := 0; d < maxD; d++ {
		if len(current) < 3 {
			return d
		}
		r := lag1Autocorrelation(current)
		if math.IsNaN(r) || r < unitRootThreshold {
			return d
		}
		current = difference(current, 1)
	}
	return maxD
}

// lag1Autocorrelation estimates the first-order serial correlation of
// the series. A constant series has no variance and yields NaN.
func lag1Autocorrelation(data []float64) float64 {
	n := len(data)
	return stat.Correlation(data[1:], data[:n-1], nil)
}
