package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricecast/internal/forecast"
	"pricecast/internal/pipeline"
)

func snapshot(status pipeline.Status) pipeline.RunSnapshot {
	start := time.Now().Add(-2 * time.Second)
	end := time.Now()
	return pipeline.RunSnapshot{
		ID:        "run-1",
		Symbol:    "ACME",
		Status:    status,
		StartTime: start,
		EndTime:   &end,
	}
}

func TestObserver_RunCompleted(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(NewRecorder(reg))

	obs.RunCompleted(context.Background(), snapshot(pipeline.StatusCompleted), &forecast.Report{
		Scored:   true,
		Accuracy: 62.5,
	})

	completed := testutil.ToFloat64(obs.recorder.runsTotal.WithLabelValues("completed"))
	assert.Equal(t, 1.0, completed)

	count, err := testutil.GatherAndCount(reg,
		"pricecast_forecast_runs_total",
		"pricecast_forecast_run_duration_seconds",
		"pricecast_forecast_directional_accuracy_percent")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestObserver_UnscoredRunSkipsAccuracy(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := NewRecorder(reg)
	obs := NewObserver(recorder)

	obs.RunCompleted(context.Background(), snapshot(pipeline.StatusCompleted), &forecast.Report{Scored: false})

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "pricecast_forecast_directional_accuracy_percent" {
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, uint64(0), f.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
}

func TestObserver_RunFailed(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(NewRecorder(reg))

	obs.RunFailed(context.Background(), snapshot(pipeline.StatusFailed), fmt.Errorf("no data"))

	failed := testutil.ToFloat64(obs.recorder.runsTotal.WithLabelValues("failed"))
	assert.Equal(t, 1.0, failed)
}
