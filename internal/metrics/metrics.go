// Package metrics provides Prometheus metrics for the curation pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blogcurator"

var (
	// ClassificationsTotal counts finished classifications by provenance tier.
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Total number of classifications by provenance",
		},
		[]string{"provenance"},
	)

	// CacheLookupsTotal counts classification cache lookups.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classification_cache_lookups_total",
			Help:      "Classification cache lookups by result",
		},
		[]string{"result"},
	)

	// AIRequestsTotal counts AI request attempts by outcome.
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "AI request attempts by outcome",
		},
		[]string{"backend", "outcome"},
	)

	// AIRequestDuration measures successful AI round trips.
	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "Duration of AI requests in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"backend"},
	)

	// ThrottleWait observes time spent waiting for rate budget.
	ThrottleWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_throttle_wait_seconds",
			Help:      "Time spent waiting on the AI rate limiter",
			Buckets:   []float64{0, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// PipelineRunsTotal counts pipeline stage runs.
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by stage and status",
		},
		[]string{"stage", "status"},
	)

	// ReadingListEntries reports the size of the last generated lists.
	ReadingListEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reading_list_entries",
			Help:      "Entries in the most recent reading list",
		},
		[]string{"list"},
	)
)

// RecordClassification records a finished classification.
func RecordClassification(provenance string) {
	ClassificationsTotal.WithLabelValues(provenance).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordAIRequest records one AI attempt.
func RecordAIRequest(backend, outcome string, seconds float64) {
	AIRequestsTotal.WithLabelValues(backend, outcome).Inc()
	if outcome == "ok" {
		AIRequestDuration.WithLabelValues(backend).Observe(seconds)
	}
}

// RecordThrottleWait records time spent on the limiter.
func RecordThrottleWait(seconds float64) {
	ThrottleWait.Observe(seconds)
}

// RecordPipelineRun records a stage outcome.
func RecordPipelineRun(stage, status string) {
	PipelineRunsTotal.WithLabelValues(stage, status).Inc()
}

// SetReadingListEntries records list sizes.
func SetReadingListEntries(list string, n int) {
	ReadingListEntries.WithLabelValues(list).Set(float64(n))
}
