package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Feed metrics
	FeedGenerationTime  prometheus.HistogramVec
	FeedRequestsTotal   prometheus.CounterVec
	FeedCandidates      prometheus.HistogramVec
	ViewerContextsTotal prometheus.CounterVec

	// Relevance recompute metrics
	RelevanceRunsTotal     prometheus.CounterVec
	RelevancePostsUpdated  prometheus.Counter
	RelevancePostsFailed   prometheus.Counter
	RelevanceRunDuration   prometheus.Histogram
	RelevanceLastSuccessTS prometheus.Gauge
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),

			FeedGenerationTime: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_generation_duration_seconds",
					Help:    "Time to generate feed in seconds",
					Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"feed_type"},
			),
			FeedRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "feed_requests_total",
					Help: "Total number of feed requests by type and outcome",
				},
				[]string{"feed_type", "outcome"},
			),
			FeedCandidates: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_candidates",
					Help:    "Number of candidate posts ranked per feed request",
					Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000},
				},
				[]string{"feed_type"},
			),
			ViewerContextsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "feed_viewer_contexts_total",
					Help: "Viewer context lookups by source; cache counts Redis hits, the others count feed requests",
				},
				[]string{"source"},
			),

			RelevanceRunsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "relevance_runs_total",
					Help: "Relevance recompute runs by status",
				},
				[]string{"status"},
			),
			RelevancePostsUpdated: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "relevance_posts_updated_total",
					Help: "Posts whose baseline relevance score was rewritten",
				},
			),
			RelevancePostsFailed: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "relevance_posts_failed_total",
					Help: "Posts whose baseline relevance score could not be written",
				},
			),
			RelevanceRunDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "relevance_run_duration_seconds",
					Help:    "Duration of relevance recompute runs in seconds",
					Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300},
				},
			),
			RelevanceLastSuccessTS: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "relevance_last_success_timestamp_seconds",
					Help: "Unix time of the last successful relevance recompute",
				},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}
