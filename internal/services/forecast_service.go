// Package services holds the application layer between HTTP transport
// and the forecasting pipeline. Services validate requests, enforce run
// timeouts and retain completed run state for later inspection.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"pricecast/internal/config"
	"pricecast/internal/datasource"
	apierrors "pricecast/internal/errors"
	"pricecast/internal/exporter"
	"pricecast/internal/forecast"
	"pricecast/internal/model/forest"
	"pricecast/internal/pipeline"
)

// maxRetainedRuns bounds the in-memory run history.
const maxRetainedRuns = 100

// ForecastService coordinates forecast runs: it validates requests,
// executes the pipeline under the configured timeout, hands completed
// reports to the renderers and keeps a bounded history of run snapshots.
type ForecastService struct {
	runner    *pipeline.Runner
	renderers []exporter.Renderer
	validate  *validator.Validate
	cfg       config.ForecastConfig
	logger    *slog.Logger

	mu      sync.RWMutex
	runs    map[string]storedRun
	runList []string
}

type storedRun struct {
	snapshot pipeline.RunSnapshot
	report   *forecast.Report
}

// NewForecastService wires the pipeline runner with its collaborators.
func NewForecastService(
	provider datasource.Provider,
	renderers []exporter.Renderer,
	observer pipeline.Observer,
	cfg config.ForecastConfig,
	logger *slog.Logger,
) *ForecastService {
	return &ForecastService{
		runner:    pipeline.NewRunner(provider, logger, observer),
		renderers: renderers,
		validate:  validator.New(),
		cfg:       cfg,
		logger:    logger,
		runs:      make(map[string]storedRun),
	}
}

// SetForestSearch overrides the regression hyperparameter grid, mainly
// to shrink it in tests.
func (s *ForecastService) SetForestSearch(fn func(seed int64) forest.SearchConfig) {
	s.runner.SetForestSearch(fn)
}

// Run validates and executes a forecast request. Validation problems
// are returned as errors; pipeline failures are reported inside the
// returned report with empty prediction sequences.
func (s *ForecastService) Run(ctx context.Context, req pipeline.Request) (*forecast.Report, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apierrors.NewValidationError("invalid forecast request", err)
	}
	if req.Seed == 0 {
		req.Seed = s.cfg.Seed
	}
	if req.Horizon <= 0 {
		req.Horizon = s.cfg.Horizon
	}

	runCtx := ctx
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	report, snapshot := s.runner.Run(runCtx, req)
	s.store(snapshot, report)

	s.render(ctx, report)
	return report, nil
}

// render hands the report to every configured renderer. Renderer
// failures are logged, not propagated; the forecast itself succeeded.
func (s *ForecastService) render(ctx context.Context, report *forecast.Report) {
	for _, r := range s.renderers {
		if err := r.Render(ctx, report); err != nil {
			s.logger.ErrorContext(ctx, "report rendering failed",
				"renderer", r.Name(),
				"run_id", report.RunID,
				"error", err,
			)
		}
	}
}

// store retains the run snapshot and report, evicting the oldest run
// once the history exceeds maxRetainedRuns.
func (s *ForecastService) store(snapshot pipeline.RunSnapshot, report *forecast.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[snapshot.ID] = storedRun{snapshot: snapshot, report: report}
	s.runList = append(s.runList, snapshot.ID)

	for len(s.runList) > maxRetainedRuns {
		oldest := s.runList[0]
		s.runList = s.runList[1:]
		delete(s.runs, oldest)
	}
}

// GetRun returns the snapshot and report for a completed run.
func (s *ForecastService) GetRun(id string) (pipeline.RunSnapshot, *forecast.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return pipeline.RunSnapshot{}, nil, &apierrors.AppError{
			Type:    apierrors.ErrTypeNotFound,
			Message: fmt.Sprintf("run %s not found", id),
		}
	}
	return run.snapshot, run.report, nil
}

// ListRuns returns snapshots of all retained runs, newest first.
func (s *ForecastService) ListRuns() []pipeline.RunSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots := make([]pipeline.RunSnapshot, 0, len(s.runs))
	for _, run := range s.runs {
		snapshots = append(snapshots, run.snapshot)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].StartTime.After(snapshots[j].StartTime)
	})
	return snapshots
}

// HealthStatus is the payload returned by the health endpoint.
type HealthStatus struct {
	Status    string    `json:"status"`
	Provider  string    `json:"provider"`
	Runs      int       `json:"runs"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthService reports service liveness and basic run statistics.
type HealthService struct {
	provider datasource.Provider
	forecast *ForecastService
}

// NewHealthService creates a health service.
func NewHealthService(provider datasource.Provider, forecast *ForecastService) *HealthService {
	return &HealthService{provider: provider, forecast: forecast}
}

// Check returns the current health status.
func (h *HealthService) Check(_ context.Context) HealthStatus {
	return HealthStatus{
		Status:    "healthy",
		Provider:  h.provider.Name(),
		Runs:      len(h.forecast.ListRuns()),
		Timestamp: time.Now(),
	}
}
