// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "message_search"

// Refresh tick outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Search request outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotReady = "not_ready"
	OutcomeInvalid  = "invalid"
)

var (
	refreshTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_ticks_total",
			Help:      "Refresh ticks by outcome.",
		},
		[]string{"outcome"},
	)

	refreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent fetching and installing a snapshot.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	corpusRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_records",
			Help:      "Records in the current snapshot.",
		},
	)

	snapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_version",
			Help:      "Version of the current snapshot.",
		},
	)

	consecutiveFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_consecutive_failures",
			Help:      "Failed refreshes since the last success.",
		},
	)

	searchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Search calls by outcome.",
		},
		[]string{"outcome"},
	)

	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search latency inside the engine.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
	)

	httpPanicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_panics_total",
			Help:      "Handler panics recovered, by route path.",
		},
		[]string{"path"},
	)
)

// ObserveRefresh records one refresh tick.
func ObserveRefresh(outcome string, d time.Duration) {
	refreshTicksTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSkipped {
		refreshDuration.Observe(d.Seconds())
	}
}

// SetCorpus publishes the state of the installed snapshot.
func SetCorpus(records int, version uint64) {
	corpusRecords.Set(float64(records))
	snapshotVersion.Set(float64(version))
}

// SetConsecutiveFailures publishes the current failure streak.
func SetConsecutiveFailures(n int) {
	consecutiveFailures.Set(float64(n))
}

// ObserveSearch records one search call.
func ObserveSearch(outcome string, d time.Duration) {
	searchRequestsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		searchDuration.Observe(d.Seconds())
	}
}

// IncPanic counts a recovered handler panic.
func IncPanic(path string) {
	httpPanicsTotal.WithLabelValues(path).Inc()
}
