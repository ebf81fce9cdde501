package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "pricecast/internal/errors"
)

const sampleCSV = `date,open,high,low,close,volume
2024-01-02,100.0,102.0,99.0,101.0,10000
2024-01-03,101.0,103.0,100.0,102.5,12000
2024-01-04,102.5,104.0,101.0,103.0,9000
`

func writeSymbolFile(t *testing.T, symbol, content string) *CSVProvider {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(content), 0o644))
	return NewCSVProvider(dir)
}

func TestCSVProvider_Fetch(t *testing.T) {
	p := writeSymbolFile(t, "ACME", sampleCSV)

	series, err := p.Fetch(context.Background(),
		"ACME",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Equal(t, 3, series.Len())
	assert.Equal(t, "ACME", series.Symbol)
	assert.Equal(t, []float64{101, 102.5, 103}, series.Closes())
	assert.Equal(t, 10000.0, series.Bars[0].Volume)
}

func TestCSVProvider_FiltersDateWindow(t *testing.T) {
	p := writeSymbolFile(t, "ACME", sampleCSV)

	series, err := p.Fetch(context.Background(),
		"ACME",
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Equal(t, 1, series.Len())
	assert.Equal(t, 102.5, series.Bars[0].Close)
}

func TestCSVProvider_MissingFileYieldsEmptySeries(t *testing.T) {
	p := NewCSVProvider(t.TempDir())

	series, err := p.Fetch(context.Background(), "NOPE",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, series.IsEmpty())
	assert.Equal(t, "NOPE", series.Symbol)
}

func TestCSVProvider_MalformedRows(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "bad date",
			content: "date,open,high,low,close,volume\nnot-a-date,1,2,3,4,5\n",
		},
		{
			name:    "bad number",
			content: "date,open,high,low,close,volume\n2024-01-02,1,2,3,abc,5\n",
		},
		{
			name:    "too few columns",
			content: "date,open,high,low,close,volume\n2024-01-02,1,2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeSymbolFile(t, "BAD", tt.content)
			_, err := p.Fetch(context.Background(), "BAD", start, end)
			require.Error(t, err)
			assert.True(t, apierrors.IsType(err, apierrors.ErrTypeParsing))
		})
	}
}

func TestCSVProvider_HeaderOnlyFile(t *testing.T) {
	p := writeSymbolFile(t, "EMPTY", "date,open,high,low,close,volume\n")

	series, err := p.Fetch(context.Background(), "EMPTY",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, series.IsEmpty())
}
