package pipeline

import (
	"context"
	"log/slog"

	"pricecast/internal/forecast"
)

// Observer receives lifecycle notifications from the runner. Observers
// replace process-wide logging side effects: the runner invokes them at
// defined points and otherwise stays free of global state.
type Observer interface {
	RunStarted(ctx context.Context, snapshot RunSnapshot)
	RunCompleted(ctx context.Context, snapshot RunSnapshot, report *forecast.Report)
	RunFailed(ctx context.Context, snapshot RunSnapshot, err error)
}

// SlogObserver logs lifecycle events through a structured logger.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates an observer writing to the given logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) RunStarted(ctx context.Context, snapshot RunSnapshot) {
	o.logger.InfoContext(ctx, "forecast run started",
		"run_id", snapshot.ID,
		"symbol", snapshot.Symbol,
	)
}

func (o *SlogObserver) RunCompleted(ctx context.Context, snapshot RunSnapshot, report *forecast.Report) {
	o.logger.InfoContext(ctx, "forecast run completed",
		"run_id", snapshot.ID,
		"symbol", snapshot.Symbol,
		"scored", report.Scored,
		"accuracy", report.Accuracy,
		"combined_points", len(report.Combined),
	)
}

func (o *SlogObserver) RunFailed(ctx context.Context, snapshot RunSnapshot, err error) {
	o.logger.ErrorContext(ctx, "forecast run failed",
		"run_id", snapshot.ID,
		"symbol", snapshot.Symbol,
		"error", err,
	)
}

// multiObserver fans notifications out to several observers.
type multiObserver struct {
	observers []Observer
}

// NewMultiObserver combines observers; nil entries are skipped.
func NewMultiObserver(observers ...Observer) Observer {
	var valid []Observer
	for _, o := range observers {
		if o != nil {
			valid = append(valid, o)
		}
	}
	return &multiObserver{observers: valid}
}

func (m *multiObserver) RunStarted(ctx context.Context, s RunSnapshot) {
	for _, o := range m.observers {
		o.RunStarted(ctx, s)
	}
}

func (m *multiObserver) RunCompleted(ctx context.Context, s RunSnapshot, report *forecast.Report) {
	for _, o := range m.observers {
		o.RunCompleted(ctx, s, report)
	}
}

func (m *multiObserver) RunFailed(ctx context.Context, s RunSnapshot, err error) {
	for _, o := range m.observers {
		o.RunFailed(ctx, s, err)
	}
}
