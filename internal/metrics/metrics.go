package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodblog_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodblog_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foodblog_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Search Metrics
	SearchQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodblog_search_queries_total",
			Help: "Total number of search queries",
		},
		[]string{"filtered"},
	)

	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodblog_search_results",
			Help:    "Number of documents returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	// Recommendation Metrics
	RecommendationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodblog_recommendation_runs_total",
			Help: "Total number of recommendation runs",
		},
		[]string{"mode", "result"},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodblog_recommendation_duration_seconds",
			Help:    "Duration of recommendation runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Catalog Metrics
	RecordsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodblog_records_rejected_total",
			Help: "Catalog records skipped because they failed validation",
		},
		[]string{"kind"},
	)

	// Claim Metrics
	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodblog_claims_total",
			Help: "Restaurant ownership claim attempts by stage and outcome",
		},
		[]string{"stage", "result"},
	)

	ClaimsThrottledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodblog_claims_throttled_total",
			Help: "Claim attempts refused by the rate limiter",
		},
		[]string{"stage"},
	)

	// Draft Metrics
	DraftsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodblog_drafts_generated_total",
			Help: "Review drafts requested from the language model",
		},
		[]string{"provider", "result"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSearch records one search and the size of its result
func RecordSearch(filtered bool, results int) {
	label := "false"
	if filtered {
		label = "true"
	}
	SearchQueriesTotal.WithLabelValues(label).Inc()
	SearchResults.Observe(float64(results))
}

// RecordRecommendation records one recommendation run
func RecordRecommendation(explain bool, duration time.Duration, err error) {
	mode := "plain"
	if explain {
		mode = "explain"
	}
	RecommendationRunsTotal.WithLabelValues(mode, result(err)).Inc()
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordRejected counts a catalog record skipped for failing validation
func RecordRejected(kind string) {
	RecordsRejectedTotal.WithLabelValues(kind).Inc()
}

// RecordClaim records a claim attempt; stage is "issue" or "verify"
func RecordClaim(stage string, err error) {
	ClaimsTotal.WithLabelValues(stage, result(err)).Inc()
}

// RecordThrottled counts a claim attempt refused by the rate limiter
func RecordThrottled(stage string) {
	ClaimsThrottledTotal.WithLabelValues(stage).Inc()
}

// RecordDraft records a draft generation attempt
func RecordDraft(provider string, err error) {
	DraftsGeneratedTotal.WithLabelValues(provider, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
