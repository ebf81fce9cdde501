package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"pricecast/internal/forecast"
)

// XLSXRenderer writes each report into a per-run Excel workbook with a
// summary sheet and one sheet per prediction sequence.
type XLSXRenderer struct {
	Dir string
}

// NewXLSXRenderer creates a renderer writing workbooks under dir.
func NewXLSXRenderer(dir string) *XLSXRenderer {
	return &XLSXRenderer{Dir: dir}
}

func (r *XLSXRenderer) Name() string { return "xlsx" }

// Render writes <dir>/<symbol>_<run id>.xlsx.
func (r *XLSXRenderer) Render(_ context.Context, report *forecast.Report) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := r.writeSummary(f, report); err != nil {
		return err
	}
	for _, seq := range []struct {
		sheet  string
		points []forecast.Point
	}{
		{"Regression", report.Regression},
		{"Seasonal", report.Seasonal},
		{"Combined", report.Combined},
	} {
		if err := writeSeries(f, seq.sheet, seq.points); err != nil {
			return err
		}
	}

	path := filepath.Join(r.Dir, fmt.Sprintf("%s_%s.xlsx", report.Symbol, report.RunID))
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// writeSummary fills the default sheet with the run header.
func (r *XLSXRenderer) writeSummary(f *excelize.File, report *forecast.Report) error {
	const sheet = "Sheet1"
	if err := f.SetSheetName(sheet, "Summary"); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Symbol", report.Symbol},
		{"Run ID", report.RunID},
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Summary", report.Summary},
	}
	if report.Scored {
		rows = append(rows, []interface{}{"Directional accuracy (%)", report.Accuracy})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow("Summary", cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	return nil
}

// writeSeries writes a date/value sheet for one prediction sequence.
func writeSeries(f *excelize.File, sheet string, points []forecast.Point) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	header := []interface{}{"Date", "Predicted Close"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}

	for i, p := range points {
		row := []interface{}{p.Date.Format("2006-01-02"), p.Value}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
