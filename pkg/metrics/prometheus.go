package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	barsIngested    *prometheus.CounterVec
	windowsComputed *prometheus.CounterVec
	windowsSkipped  *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		barsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "truevol_bars_ingested_total",
				Help: "Total number of bars ingested per source",
			},
			[]string{"source", "symbol"},
		),
		windowsComputed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "truevol_windows_computed_total",
				Help: "Windows that met the bar-count threshold",
			},
			[]string{"policy"},
		),
		windowsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "truevol_windows_skipped_total",
				Help: "Windows skipped for insufficient bars",
			},
			[]string{"policy"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "truevol_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "truevol_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordBarIngested records one ingested bar.
func (r *Recorder) RecordBarIngested(source, symbol string) {
	r.barsIngested.WithLabelValues(source, symbol).Inc()
}

// RecordWindowsComputed records windows that produced a result.
func (r *Recorder) RecordWindowsComputed(policy string, count int) {
	r.windowsComputed.WithLabelValues(policy).Add(float64(count))
}

// RecordWindowsSkipped records windows dropped below threshold.
func (r *Recorder) RecordWindowsSkipped(policy string, count int) {
	if count < 0 {
		return
	}
	r.windowsSkipped.WithLabelValues(policy).Add(float64(count))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
