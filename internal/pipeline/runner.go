// Package pipeline sequences the forecasting steps: data fetch, feature
// engineering, temporal split, dual model fitting, forecast combination
// and directional scoring. A run either completes with a full report or
// fails with empty prediction sequences and a single descriptive
// message; there is no retry and no partially-filled result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pricecast/internal/datasource"
	apierrors "pricecast/internal/errors"
	"pricecast/internal/features"
	"pricecast/internal/forecast"
	"pricecast/internal/model/arima"
	"pricecast/internal/model/forest"
)

// DefaultHorizon is the number of forecast steps projected beyond the
// training window.
const DefaultHorizon = 30

// Request describes a single forecast run.
type Request struct {
	Symbol        string    `json:"symbol" validate:"required"`
	Start         time.Time `json:"start" validate:"required"`
	End           time.Time `json:"end" validate:"required,gtfield=Start"`
	ForecastStart time.Time `json:"forecast_start"`
	Horizon       int       `json:"horizon"`
	Seed          int64     `json:"seed"`
}

// normalized applies defaults to optional fields.
func (r Request) normalized() Request {
	if r.Horizon <= 0 {
		r.Horizon = DefaultHorizon
	}
	if r.ForecastStart.IsZero() {
		r.ForecastStart = r.End.AddDate(0, 0, 1)
	}
	return r
}

// Runner owns the step sequence for forecast runs. It holds no state
// across runs; every invocation gets its own RunState.
type Runner struct {
	provider datasource.Provider
	builder  *features.Builder
	combiner *forecast.Combiner
	observer Observer
	logger   *slog.Logger

	forestSearch func(seed int64) forest.SearchConfig
	arimaSearch  arima.SearchConfig
}

// NewRunner wires a runner with its collaborators. A nil observer is
// replaced by a logging observer.
func NewRunner(provider datasource.Provider, logger *slog.Logger, observer Observer) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = NewSlogObserver(logger)
	}
	return &Runner{
		provider:     provider,
		builder:      features.NewBuilder(logger),
		combiner:     forecast.NewCombiner(),
		observer:     observer,
		logger:       logger,
		forestSearch: forest.DefaultSearchConfig,
		arimaSearch:  arima.DefaultSearchConfig(),
	}
}

// SetForestSearch overrides the regression hyperparameter grid, mainly
// to shrink it in tests.
func (r *Runner) SetForestSearch(fn func(seed int64) forest.SearchConfig) {
	r.forestSearch = fn
}

// Run executes the full pipeline. The returned report is always
// non-nil: fatal conditions are converted into the summary message and
// empty prediction sequences rather than surfaced as an error.
func (r *Runner) Run(ctx context.Context, req Request) (*forecast.Report, RunSnapshot) {
	req = req.normalized()

	state := NewRunState(uuid.NewString(), req.Symbol)
	state.Start()
	r.observer.RunStarted(ctx, state.Snapshot())

	report, err := r.execute(ctx, req, state)
	if err != nil {
		state.Fail(err)
		r.observer.RunFailed(ctx, state.Snapshot(), err)
		return failedReport(state.ID, req.Symbol, err), state.Snapshot()
	}

	report.RunID = state.ID
	state.Complete()
	r.observer.RunCompleted(ctx, state.Snapshot(), report)
	return report, state.Snapshot()
}

// execute walks the steps in order. The first failing step aborts the
// run; its error becomes the single run-level message.
func (r *Runner) execute(ctx context.Context, req Request, state *RunState) (*forecast.Report, error) {
	// Fetch.
	fetch := state.Step(StepFetchData)
	fetch.Start()
	series, err := r.provider.Fetch(ctx, req.Symbol, req.Start, req.End)
	if err != nil {
		fetch.Fail(err)
		return nil, err
	}
	if series.IsEmpty() {
		err := apierrors.NewDataUnavailableError(req.Symbol)
		fetch.Fail(err)
		return nil, err
	}
	fetch.Complete(fmt.Sprintf("%d bars", series.Len()))

	// Feature engineering.
	feats := state.Step(StepFeatures)
	feats.Start()
	frame, err := r.builder.Build(ctx, series)
	if err != nil {
		feats.Fail(err)
		return nil, apierrors.NewInsufficientDataError("feature engineering produced no usable rows", err)
	}
	feats.Complete(fmt.Sprintf("%d rows", frame.Len()))

	// Temporal split.
	splitStep := state.Step(StepSplit)
	splitStep.Start()
	split, err := features.NewSplit(frame)
	if err != nil {
		wrapped := apierrors.NewInsufficientDataError("training segment has no valid target values", err)
		splitStep.Fail(wrapped)
		return nil, wrapped
	}
	splitStep.Complete(fmt.Sprintf("train=%d test=%d", split.Train.Len(), split.Test.Len()))

	// Fit both models concurrently. The combiner below is the single
	// mandatory synchronization point.
	var (
		regPreds  []float64
		seaModel  *arima.Model
		seaFuture []float64
	)

	g, gctx := errgroup.WithContext(ctx)

	regStep := state.Step(StepRegression)
	regStep.Start()
	g.Go(func() error {
		model, result, err := forest.GridSearch(gctx,
			split.Train.Matrix(), split.Train.Targets(),
			r.forestSearch(req.Seed), r.logger)
		if err != nil {
			wrapped := apierrors.NewModelFitError("regression", err)
			regStep.Fail(wrapped)
			return wrapped
		}
		regPreds = model.Predict(frame.Matrix())
		regStep.Complete(fmt.Sprintf("trees=%d depth=%d", result.Best.Trees, result.Best.MaxDepth))
		return nil
	})

	seaStep := state.Step(StepSeasonal)
	seaStep.Start()
	g.Go(func() error {
		model, err := arima.AutoFit(gctx, split.Train.Targets(), r.arimaSearch, r.logger)
		if err != nil {
			wrapped := apierrors.NewModelFitError("seasonal", err)
			seaStep.Fail(wrapped)
			return wrapped
		}
		seaModel = model
		seaFuture = model.Forecast(req.Horizon)
		seaStep.Complete(model.Order().String())
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Combine the regression full-series predictions with the seasonal
	// forward projection.
	combineStep := state.Step(StepCombine)
	combineStep.Start()
	combined := r.combiner.BlendPoints(regPreds, seaFuture, req.ForecastStart)
	combineStep.Complete(fmt.Sprintf("%d points", len(combined)))

	report := &forecast.Report{
		Symbol:      req.Symbol,
		GeneratedAt: time.Now(),
		Regression:  pointsWithDates(frame.Dates(), regPreds),
		Seasonal:    pointsFromStart(req.ForecastStart, seaFuture),
		Combined:    combined,
	}

	// Score directional accuracy on the test window.
	scoreStep := state.Step(StepScore)
	scoreStep.Start()
	if !split.HasTestData() {
		scoreStep.Complete("skipped: empty test segment")
		return report, nil
	}

	cut := split.Train.Len()
	regTest := regPreds[cut:]
	seaTest := seaModel.FittedValues(frame.Len())[cut:]
	blendedTest := r.combiner.Blend(regTest, seaTest)

	accuracy, err := forecast.DirectionalAccuracy(split.Test.Targets(), blendedTest)
	if err != nil {
		// A one-row test segment has no direction to score; the run is
		// still a success, just unscored.
		scoreStep.Complete("skipped: test segment too short to score")
		return report, nil
	}

	report.Accuracy = accuracy
	report.Scored = true
	report.Summary = forecast.FormatAccuracy(accuracy)
	scoreStep.Complete(report.Summary)

	return report, nil
}

// failedReport builds the empty-result report for a failed run.
func failedReport(runID, symbol string, err error) *forecast.Report {
	summary := err.Error()
	if appErr, ok := apierrors.AsAppError(err); ok {
		summary = appErr.Message
	}
	return &forecast.Report{
		Symbol:      symbol,
		RunID:       runID,
		GeneratedAt: time.Now(),
		Summary:     summary,
		Regression:  []forecast.Point{},
		Seasonal:    []forecast.Point{},
		Combined:    []forecast.Point{},
	}
}

func pointsWithDates(dates []time.Time, values []float64) []forecast.Point {
	n := len(values)
	if len(dates) < n {
		n = len(dates)
	}
	points := make([]forecast.Point, n)
	for i := 0; i < n; i++ {
		points[i] = forecast.Point{Date: dates[i], Value: values[i]}
	}
	return points
}

func pointsFromStart(start time.Time, values []float64) []forecast.Point {
	points := make([]forecast.Point, len(values))
	for i, v := range values {
		points[i] = forecast.Point{Date: start.AddDate(0, 0, i), Value: v}
	}
	return points
}
