// Package exporter renders forecast reports to files. Rendering is an
// external collaborator of the pipeline: the core produces a Report and
// stays free of I/O.
package exporter

import (
	"context"

	"pricecast/internal/forecast"
)

// Renderer writes a forecast report somewhere a human or another system
// can read it.
type Renderer interface {
	// Name identifies the renderer for logging.
	Name() string

	// Render writes the report. Implementations must not mutate it.
	Render(ctx context.Context, report *forecast.Report) error
}

// Noop discards reports; used when the caller only wants the API
// response.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Render(context.Context, *forecast.Report) error { return nil }
