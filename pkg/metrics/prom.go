package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	registry = prometheus.NewRegistry()

	fetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "readmit",
		Name:      "fetch_total",
		Help:      "Dataset fetches by dataset and outcome.",
	}, []string{"dataset", "outcome"})

	fetchSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "readmit",
		Name:      "fetch_seconds",
		Help:      "Dataset fetch latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"dataset"})

	refreshTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "readmit",
		Name:      "refresh_total",
		Help:      "Refresh cycles started.",
	})

	staleTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "readmit",
		Name:      "stale_responses_total",
		Help:      "Responses discarded because a newer refresh cycle superseded them.",
	})
)

func init() {
	registry.MustRegister(fetchTotal, fetchSeconds, refreshTotal, staleTotal)
}

// ObserveFetch records one dataset fetch.
func ObserveFetch(dataset string, d time.Duration, err error) {
	if !enabled {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	fetchTotal.WithLabelValues(dataset, outcome).Inc()
	fetchSeconds.WithLabelValues(dataset).Observe(d.Seconds())
}

// CountRefresh records the start of a refresh cycle.
func CountRefresh() {
	if enabled {
		refreshTotal.Inc()
	}
}

// CountStale records a discarded stale response.
func CountStale() {
	if enabled {
		staleTotal.Inc()
	}
}

// Registry exposes the collectors, mostly for tests.
func Registry() *prometheus.Registry { return registry }

// Handler serves the collectors in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
