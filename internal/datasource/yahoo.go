package datasource

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"context"

	"pricecast/internal/dataset"
	apierrors "pricecast/internal/errors"
)

// YahooProvider fetches daily bars from the Yahoo Finance chart API.
type YahooProvider struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooProvider creates a Yahoo Finance provider with a sane timeout.
func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		BaseURL: "https://query1.finance.yahoo.com",
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

// yahooChart is the response structure from the chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// Fetch retrieves daily bars between start and end inclusive. Null bars
// (exchange holidays) are skipped.
func (p *YahooProvider) Fetch(ctx context.Context, symbol string, start, end time.Time) (*dataset.PriceSeries, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		p.BaseURL, url.PathEscape(symbol), start.Unix(), end.AddDate(0, 0, 1).Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, apierrors.NewNetworkError("build chart request", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, apierrors.NewNetworkError("fetch chart", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.NewNetworkError("read chart response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apierrors.NewNetworkError(
			fmt.Sprintf("chart API returned status %d", resp.StatusCode), nil)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, apierrors.NewParsingError("decode chart response", err)
	}
	if chart.Chart.Error != nil {
		return nil, apierrors.NewParsingError(
			fmt.Sprintf("chart API error: %s", chart.Chart.Error.Description), nil)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return &dataset.PriceSeries{Symbol: symbol}, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	// Malformed responses can carry ragged arrays; index only up to the
	// shortest one.
	n := len(result.Timestamp)
	for _, field := range [][]interface{}{quote.Open, quote.High, quote.Low, quote.Close, quote.Volume} {
		if len(field) < n {
			n = len(field)
		}
	}

	bars := make([]dataset.Bar, 0, n)
	for i := 0; i < n; i++ {
		ts := result.Timestamp[i]
		o, h, l, c := toFloat(quote.Open[i]), toFloat(quote.High[i]), toFloat(quote.Low[i]), toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // null bar, holiday
		}
		bars = append(bars, dataset.Bar{
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(quote.Volume[i]),
		})
	}

	return dataset.NewPriceSeries(symbol, bars)
}
