package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameOf(n int) Frame {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{Date: start.AddDate(0, 0, i), Close: 100 + float64(i)}
	}
	return Frame{Symbol: "TEST", Rows: rows}
}

func TestNewSplit_Sizes(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		wantTrain int
		wantTest  int
	}{
		{name: "exact multiple", rows: 10, wantTrain: 8, wantTest: 2},
		{name: "floor rounds down", rows: 11, wantTrain: 8, wantTest: 3},
		{name: "larger frame", rows: 253, wantTrain: 202, wantTest: 51},
		{name: "single row", rows: 1, wantTrain: 0, wantTest: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := NewSplit(frameOf(tt.rows))
			if tt.wantTrain == 0 {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTrain, split.Train.Len())
			assert.Equal(t, tt.wantTest, split.Test.Len())
		})
	}
}

func TestNewSplit_PreservesOrder(t *testing.T) {
	frame := frameOf(50)
	split, err := NewSplit(frame)
	require.NoError(t, err)

	// Concatenating train and test reconstructs the original frame.
	rebuilt := append(append([]Row{}, split.Train.Rows...), split.Test.Rows...)
	assert.Equal(t, frame.Rows, rebuilt)

	// Every training date precedes every test date.
	lastTrain := split.Train.Rows[split.Train.Len()-1].Date
	firstTest := split.Test.Rows[0].Date
	assert.True(t, lastTrain.Before(firstTest))
}

func TestNewSplit_RejectsMissingTrainTarget(t *testing.T) {
	frame := frameOf(20)
	frame.Rows[3].Close = math.NaN()

	_, err := NewSplit(frame)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "training target missing")
}

func TestSplit_HasTestData(t *testing.T) {
	split, err := NewSplit(frameOf(10))
	require.NoError(t, err)
	assert.True(t, split.HasTestData())
}
