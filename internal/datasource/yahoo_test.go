package datasource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricecast/internal/dataset"
	apierrors "pricecast/internal/errors"
)

// staticSeries builds consecutive daily bars from the given closes.
func staticSeries(t *testing.T, symbol string, start time.Time, closes ...float64) *dataset.PriceSeries {
	t.Helper()
	bars := make([]dataset.Bar, len(closes))
	for i, c := range closes {
		bars[i] = dataset.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 100}
	}
	series, err := dataset.NewPriceSeries(symbol, bars)
	require.NoError(t, err)
	return series
}

func chartResponse(timestamps []int64, closes []interface{}) string {
	quote := func(vals []interface{}) string {
		out := "["
		for i, v := range vals {
			if i > 0 {
				out += ","
			}
			if v == nil {
				out += "null"
			} else {
				out += fmt.Sprintf("%v", v)
			}
		}
		return out + "]"
	}

	ts := "["
	for i, t := range timestamps {
		if i > 0 {
			ts += ","
		}
		ts += fmt.Sprintf("%d", t)
	}
	ts += "]"

	q := quote(closes)
	return fmt.Sprintf(`{"chart":{"result":[{"timestamp":%s,"indicators":{"quote":[{"open":%s,"high":%s,"low":%s,"close":%s,"volume":%s}]}}],"error":null}}`,
		ts, q, q, q, q, q)
}

func yahooTestProvider(handler http.HandlerFunc) (*YahooProvider, func()) {
	server := httptest.NewServer(handler)
	p := NewYahooProvider()
	p.BaseURL = server.URL
	return p, server.Close
}

func TestYahooProvider_Fetch(t *testing.T) {
	day1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	p, closeFn := yahooTestProvider(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v8/finance/chart/ACME")
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, chartResponse(
			[]int64{day1.Unix(), day2.Unix()},
			[]interface{}{101.5, 102.25},
		))
	})
	defer closeFn()

	series, err := p.Fetch(context.Background(), "ACME", day1, day2)
	require.NoError(t, err)

	require.Equal(t, 2, series.Len())
	assert.Equal(t, []float64{101.5, 102.25}, series.Closes())
	assert.Equal(t, day1, series.Bars[0].Date)
}

func TestYahooProvider_SkipsNullBars(t *testing.T) {
	day1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	p, closeFn := yahooTestProvider(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartResponse(
			[]int64{day1.Unix(), day1.AddDate(0, 0, 1).Unix(), day1.AddDate(0, 0, 2).Unix()},
			[]interface{}{101.5, nil, 103.0},
		))
	})
	defer closeFn()

	series, err := p.Fetch(context.Background(), "ACME", day1, day1.AddDate(0, 0, 2))
	require.NoError(t, err)

	assert.Equal(t, []float64{101.5, 103.0}, series.Closes())
}

func TestYahooProvider_RaggedArrays(t *testing.T) {
	day1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	day3 := day1.AddDate(0, 0, 2)

	// Three timestamps but only two volume entries; the short array caps
	// the bars instead of panicking.
	p, closeFn := yahooTestProvider(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w,
			`{"chart":{"result":[{"timestamp":[%d,%d,%d],"indicators":{"quote":[{"open":[101,102,103],"high":[102,103,104],"low":[100,101,102],"close":[101.5,102.5,103.5],"volume":[900,800]}]}}],"error":null}}`,
			day1.Unix(), day2.Unix(), day3.Unix())
	})
	defer closeFn()

	series, err := p.Fetch(context.Background(), "ACME", day1, day3)
	require.NoError(t, err)
	assert.Equal(t, []float64{101.5, 102.5}, series.Closes())
}

func TestYahooProvider_HTTPError(t *testing.T) {
	p, closeFn := yahooTestProvider(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer closeFn()

	_, err := p.Fetch(context.Background(), "ACME", time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeNetwork))
}

func TestYahooProvider_APIError(t *testing.T) {
	p, closeFn := yahooTestProvider(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	})
	defer closeFn()

	_, err := p.Fetch(context.Background(), "NOPE", time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeParsing))
}

func TestYahooProvider_EmptyResult(t *testing.T) {
	p, closeFn := yahooTestProvider(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	})
	defer closeFn()

	series, err := p.Fetch(context.Background(), "ACME", time.Now().AddDate(0, -1, 0), time.Now())
	require.NoError(t, err)
	assert.True(t, series.IsEmpty())
}

func TestStatic_Fetch(t *testing.T) {
	day1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := staticSeries(t, "ACME", day1, 101.5, 102.0, 103.0)
	p := NewStatic(series)

	got, err := p.Fetch(context.Background(), "ACME", day1, day1.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, series.Closes(), got.Closes())

	// The window filter trims bars outside the requested range.
	trimmed, err := p.Fetch(context.Background(), "ACME", day1, day1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, []float64{101.5, 102.0}, trimmed.Closes())

	missing, err := p.Fetch(context.Background(), "OTHER", day1, day1.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.True(t, missing.IsEmpty())

	assert.Equal(t, "static", p.Name())
}
