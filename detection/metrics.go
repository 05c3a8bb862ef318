package detection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// thresholdRequests counts /otsu requests by outcome
	thresholdRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floodmap_otsu_requests_total",
		Help: "Total Otsu threshold requests by result",
	}, []string{"result"}) // "ok", "degenerate" or "invalid"

	// thresholdBuckets tracks the size of submitted histograms
	thresholdBuckets = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "floodmap_otsu_histogram_buckets",
		Help:    "Number of buckets per submitted histogram",
		Buckets: prometheus.ExponentialBuckets(2, 2, 9), // 2 to 512
	})

	// queryDuration tracks detection lookups by handler
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "floodmap_detection_query_duration_seconds",
		Help:    "Detection query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
	}, []string{"handler"})

	// queryErrors counts failed detection lookups by handler
	queryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floodmap_detection_query_errors_total",
		Help: "Total detection query errors by handler",
	}, []string{"handler"})
)
