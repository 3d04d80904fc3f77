package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	admissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stolik",
			Name:      "admissions_total",
			Help:      "Booking admission attempts by outcome.",
		},
		[]string{"result"},
	)

	cancellations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stolik",
			Name:      "cancellations_total",
			Help:      "Booking cancellation attempts by outcome.",
		},
		[]string{"result"},
	)

	lockWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stolik",
			Name:      "admission_lock_wait_seconds",
			Help:      "Time spent waiting for the per (table, date) exclusion.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 2},
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stolik",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(admissions, cancellations, lockWait, httpRequests)
	})
}

// IncAdmission counts one admission attempt outcome.
func IncAdmission(result string) {
	admissions.WithLabelValues(result).Inc()
}

// IncCancellation counts one cancellation attempt outcome.
func IncCancellation(result string) {
	cancellations.WithLabelValues(result).Inc()
}

// ObserveLockWait records how long an admit or cancel waited for its key.
func ObserveLockWait(d time.Duration) {
	lockWait.Observe(d.Seconds())
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
