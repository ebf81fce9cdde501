package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewPriceSeries_SortsByDate(t *testing.T) {
	bars := []Bar{
		{Date: day(2024, 1, 3), Close: 103},
		{Date: day(2024, 1, 1), Close: 101},
		{Date: day(2024, 1, 2), Close: 102},
	}

	series, err := NewPriceSeries("TEST", bars)
	require.NoError(t, err)

	assert.Equal(t, []float64{101, 102, 103}, series.Closes())
	assert.Equal(t, day(2024, 1, 1), series.Start())
	assert.Equal(t, day(2024, 1, 3), series.End())
}

func TestNewPriceSeries_RejectsDuplicateDates(t *testing.T) {
	bars := []Bar{
		{Date: day(2024, 1, 1), Close: 101},
		{Date: day(2024, 1, 1), Close: 102},
	}

	_, err := NewPriceSeries("TEST", bars)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate date")
}

func TestPriceSeries_Empty(t *testing.T) {
	series, err := NewPriceSeries("TEST", nil)
	require.NoError(t, err)

	assert.True(t, series.IsEmpty())
	assert.Equal(t, 0, series.Len())
	assert.True(t, series.Start().IsZero())
	assert.True(t, series.End().IsZero())

	var nilSeries *PriceSeries
	assert.True(t, nilSeries.IsEmpty())
}

func TestBar_IsValid(t *testing.T) {
	tests := []struct {
		name string
		bar  Bar
		want bool
	}{
		{
			name: "valid bar",
			bar:  Bar{Date: day(2024, 1, 1), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000},
			want: true,
		},
		{
			name: "zero date",
			bar:  Bar{Close: 10.5, High: 11, Low: 9},
			want: false,
		},
		{
			name: "non-positive close",
			bar:  Bar{Date: day(2024, 1, 1), Close: 0, High: 11, Low: 9},
			want: false,
		},
		{
			name: "high below low",
			bar:  Bar{Date: day(2024, 1, 1), Close: 10, High: 9, Low: 11},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bar.IsValid())
		})
	}
}

func TestBar_Return(t *testing.T) {
	b := Bar{Close: 110}
	assert.InDelta(t, 0.10, b.Return(100), 1e-12)
	assert.Equal(t, 0.0, b.Return(0))
}
