package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"pricecast/internal/dataset"
	apierrors "pricecast/internal/errors"
)

// CSVProvider reads daily bars from per-symbol CSV files laid out as
// <dir>/<SYMBOL>.csv with a date,open,high,low,close,volume header.
type CSVProvider struct {
	Dir string
}

// NewCSVProvider creates a provider reading from the given directory.
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{Dir: dir}
}

func (p *CSVProvider) Name() string { return "csv" }

// Fetch loads the symbol's file and filters to the requested window.
// A missing file yields an empty series, not an error.
func (p *CSVProvider) Fetch(_ context.Context, symbol string, start, end time.Time) (*dataset.PriceSeries, error) {
	path := filepath.Join(p.Dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &dataset.PriceSeries{Symbol: symbol}, nil
		}
		return nil, apierrors.NewParsingError(fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apierrors.NewParsingError(fmt.Sprintf("read %s", path), err)
	}
	if len(records) < 2 {
		return &dataset.PriceSeries{Symbol: symbol}, nil
	}

	bars := make([]dataset.Bar, 0, len(records)-1)
	for i, rec := range records[1:] { // skip header
		if len(rec) < 6 {
			return nil, apierrors.NewParsingError(
				fmt.Sprintf("%s line %d: expected 6 columns, got %d", path, i+2, len(rec)), nil)
		}

		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, apierrors.NewParsingError(fmt.Sprintf("%s line %d: bad date", path, i+2), err)
		}
		if date.Before(start) || date.After(end) {
			continue
		}

		values := make([]float64, 5)
		for j := 1; j <= 5; j++ {
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, apierrors.NewParsingError(
					fmt.Sprintf("%s line %d column %d: bad number", path, i+2, j+1), err)
			}
			values[j-1] = v
		}

		bars = append(bars, dataset.Bar{
			Date:   date,
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}

	return dataset.NewPriceSeries(symbol, bars)
}
