package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pricecast/internal/forecast"
)

// JSONRenderer writes each report as a pretty-printed JSON file.
type JSONRenderer struct {
	Dir string
}

// NewJSONRenderer creates a renderer writing files under dir.
func NewJSONRenderer(dir string) *JSONRenderer {
	return &JSONRenderer{Dir: dir}
}

func (r *JSONRenderer) Name() string { return "json" }

// Render writes <dir>/<symbol>_<run id>.json atomically via a temp file.
func (r *JSONRenderer) Render(_ context.Context, report *forecast.Report) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	path := filepath.Join(r.Dir, fmt.Sprintf("%s_%s.json", report.Symbol, report.RunID))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize report %s: %w", path, err)
	}
	return nil
}
