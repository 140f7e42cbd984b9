package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	evaluationsTotal      *prometheus.CounterVec
	progressCacheLookups  *prometheus.CounterVec
	evaluationBandsRecord *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors used by the HTTP layer and services.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ielts",
			Name:      "api_requests_total",
			Help:      "Total number of API v2 requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ielts",
			Name:      "api_latency_seconds",
			Help:      "Latency distribution for API v2 requests.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ielts",
			Name:      "api_errors_total",
			Help:      "Total number of error responses returned by API v2 endpoints.",
		}, []string{"method", "route", "status"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ielts",
			Name:      "evaluations_total",
			Help:      "Evaluation attempts by module and outcome.",
		}, []string{"module", "status"})

		progressCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ielts",
			Name:      "progress_cache_lookups_total",
			Help:      "Progress cache lookups by result.",
		}, []string{"result"})

		evaluationBandsRecord = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ielts",
			Name:      "evaluation_overall_band",
			Help:      "Distribution of validated overall bands.",
			Buckets:   prometheus.LinearBuckets(0.5, 0.5, 18),
		}, []string{"module"})

		prometheus.MustRegister(apiRequestsTotal, apiLatencySeconds, apiErrorsTotal, evaluationsTotal, progressCacheLookups, evaluationBandsRecord)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Evaluations exposes the evaluation outcome counter.
func Evaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}

// ProgressCacheLookups exposes the progress cache hit/miss counter.
func ProgressCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return progressCacheLookups
}

// EvaluationBands exposes the overall band histogram.
func EvaluationBands() *prometheus.HistogramVec {
	RegisterMetrics()
	return evaluationBandsRecord
}
