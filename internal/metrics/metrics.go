// Package metrics records every forecast run's outcome for audit and
// exposes the collectors on the standard /metrics endpoint.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pricecast/internal/forecast"
	"pricecast/internal/pipeline"
)

// Recorder holds the forecast run collectors.
type Recorder struct {
	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram
	accuracy    prometheus.Histogram
}

// NewRecorder creates and registers the collectors on the registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricecast",
			Name:      "forecast_runs_total",
			Help:      "Forecast runs by terminal status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pricecast",
			Name:      "forecast_run_duration_seconds",
			Help:      "Wall-clock duration of forecast runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		accuracy: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pricecast",
			Name:      "forecast_directional_accuracy_percent",
			Help:      "Directional accuracy of scored runs.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
	}
	reg.MustRegister(r.runsTotal, r.runDuration, r.accuracy)
	return r
}

// Observer adapts the recorder to the pipeline observer interface.
type Observer struct {
	recorder *Recorder
}

// NewObserver wraps a recorder as a pipeline observer.
func NewObserver(recorder *Recorder) *Observer {
	return &Observer{recorder: recorder}
}

func (o *Observer) RunStarted(context.Context, pipeline.RunSnapshot) {}

func (o *Observer) RunCompleted(_ context.Context, snapshot pipeline.RunSnapshot, report *forecast.Report) {
	o.recorder.runsTotal.WithLabelValues(string(pipeline.StatusCompleted)).Inc()
	o.recorder.runDuration.Observe(durationSeconds(snapshot))
	if report.Scored {
		o.recorder.accuracy.Observe(report.Accuracy)
	}
}

func (o *Observer) RunFailed(_ context.Context, snapshot pipeline.RunSnapshot, _ error) {
	o.recorder.runsTotal.WithLabelValues(string(pipeline.StatusFailed)).Inc()
	o.recorder.runDuration.Observe(durationSeconds(snapshot))
}

func durationSeconds(snapshot pipeline.RunSnapshot) float64 {
	end := time.Now()
	if snapshot.EndTime != nil {
		end = *snapshot.EndTime
	}
	return end.Sub(snapshot.StartTime).Seconds()
}
