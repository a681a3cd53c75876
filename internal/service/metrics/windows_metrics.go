package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	WindowsLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "truevol",
			Subsystem: "windows",
			Name:      "latency_seconds",
			Help:      "Latency of window analysis endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	WindowsErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "truevol",
			Subsystem: "windows",
			Name:      "errors_total",
			Help:      "Errors by window analysis endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(WindowsLatency, WindowsErrors)
	})
}
