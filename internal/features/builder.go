package features

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"pricecast/internal/dataset"
)

// Builder derives calendar and statistical features from a raw price
// series. It never reorders the input and never reads past the row it
// is computing (no look-ahead).
type Builder struct {
	seasonalLag int
	lags        []int
	windows     []int
	logger      *slog.Logger
}

// NewBuilder creates a feature builder with the default configuration:
// seasonal difference at lag 12, close lags 1-3, rolling windows 7 and 30.
//
// The seasonal lag of 12 is carried over from the reference model even
// though the input is daily data; see the quirk test in builder_test.go.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		seasonalLag: DefaultSeasonalLag,
		lags:        []int{1, 2, 3},
		windows:     []int{ShortRollingWindow, LongRollingWindow},
		logger:      logger,
	}
}

// Build computes the full feature frame for the series and drops every
// row containing an undefined value. Rows whose lag or rolling window
// cannot be fully populated at the start of the series are therefore
// excluded, as are rows where the log transform hit a non-positive price.
func (b *Builder) Build(ctx context.Context, series *dataset.PriceSeries) (Frame, error) {
	if series.IsEmpty() {
		return Frame{}, fmt.Errorf("empty price series")
	}

	closes := series.Closes()
	dates := series.Dates()
	n := len(closes)

	b.logger.DebugContext(ctx, "building features",
		"symbol", series.Symbol,
		"bars", n,
		"seasonal_lag", b.seasonalLag,
	)

	rows := make([]Row, 0, n)
	dropped := 0

	for i := 0; i < n; i++ {
		row := Row{
			Date:   dates[i],
			Close:  closes[i],
			Diff:   diffAt(closes, i, 1),
			LogClose: logClose(closes[i]),
			SeasonalDiff: diffAt(closes, i, b.seasonalLag),
		}
		row.fillCalendar(dates[i])

		row.Lag1 = lagAt(closes, i, 1)
		row.Lag2 = lagAt(closes, i, 2)
		row.Lag3 = lagAt(closes, i, 3)

		row.RollMean7, row.RollStd7 = rollingStats(closes, i, ShortRollingWindow)
		row.RollMean30, row.RollStd30 = rollingStats(closes, i, LongRollingWindow)

		if row.hasMissing() {
			dropped++
			continue
		}
		rows = append(rows, row)
	}

	b.logger.InfoContext(ctx, "feature engineering completed",
		"symbol", series.Symbol,
		"input_rows", n,
		"valid_rows", len(rows),
		"dropped_rows", dropped,
	)

	return Frame{Symbol: series.Symbol, Rows: rows}, nil
}

// diffAt returns close(i) - close(i-lag), or NaN when the lagged
// observation does not exist.
func diffAt(closes []float64, i, lag int) float64 {
	if i-lag < 0 {
		return math.NaN()
	}
	return closes[i] - closes[i-lag]
}

// lagAt returns close(i-lag), or NaN when unavailable.
func lagAt(closes []float64, i, lag int) float64 {
	if i-lag < 0 {
		return math.NaN()
	}
	return closes[i-lag]
}

// logClose returns ln(close). The log transform is undefined for a
// non-positive price; the NaN sentinel marks the row for removal
// instead of escalating the domain error.
func logClose(close float64) float64 {
	if close <= 0 {
		return math.NaN()
	}
	return math.Log(close)
}

// rollingStats computes the trailing mean and sample standard deviation
// over the window ending at and including index i. The window must be
// fully populated; partial windows yield NaN.
func rollingStats(closes []float64, i, window int) (mean, std float64) {
	if i-window+1 < 0 {
		return math.NaN(), math.NaN()
	}
	w := closes[i-window+1 : i+1]
	mean = stat.Mean(w, nil)
	std = stat.StdDev(w, nil)
	return mean, std
}

// fillCalendar populates the integer calendar attributes for the date.
func (r *Row) fillCalendar(d time.Time) {
	r.DayOfWeek = int(d.Weekday())
	r.DayOfMonth = d.Day()
	_, week := d.ISOWeek()
	r.ISOWeek = week
	r.Month = int(d.Month())
	r.Quarter = (int(d.Month())-1)/3 + 1
	r.Year = d.Year()
}
