// Package monitoring provides Prometheus metrics and OpenTelemetry tracing
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nutrilab"

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec
	errorRateTotal      *prometheus.CounterVec

	// Nutrition metrics
	calculationsTotal       *prometheus.CounterVec
	calculationDuration     *prometheus.HistogramVec
	aminoAcidScore          prometheus.Histogram
	limitingAminoAcid       *prometheus.CounterVec
	cacheOperations         *prometheus.CounterVec
	recommendationsReturned prometheus.Histogram

	// Database metrics
	dbQueriesTotal  *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
}

// NewMetricsCollector creates a new metrics collector registered on reg
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(reg)
	return &MetricsCollector{
		// HTTP metrics
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),
		errorRateTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_errors_total",
				Help:      "Total number of HTTP error responses",
			},
			[]string{"error_type"},
		),

		// Nutrition metrics
		calculationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calculations_total",
				Help:      "Total number of nutrition calculations by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		calculationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "calculation_duration_seconds",
				Help:      "Nutrition calculation duration in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"source"},
		),
		aminoAcidScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "amino_acid_score_percent",
				Help:      "Distribution of computed amino acid scores",
				Buckets:   []float64{25, 50, 75, 90, 100, 125, 150},
			},
		),
		limitingAminoAcid: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "limiting_amino_acid_total",
				Help:      "How often each amino acid is the limiting one",
			},
			[]string{"amino_acid"},
		),
		cacheOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Report cache lookups by result",
			},
			[]string{"result"},
		),
		recommendationsReturned: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recommendations_returned",
				Help:      "Number of supplementation recommendations per calculation",
				Buckets:   []float64{0, 1, 2, 3},
			},
		),

		// Database metrics
		dbQueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_queries_total",
				Help:      "Reference database statements by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Reference database statement duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
	}
}

// RecordHTTPRequest records one served request. path is the route pattern,
// not the raw URL, to keep label cardinality bounded.
func (m *MetricsCollector) RecordHTTPRequest(method, path string, status int, duration time.Duration, responseSize int) {
	statusCode := strconv.Itoa(status)

	m.httpRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, path, statusCode).Observe(duration.Seconds())
	m.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))

	// Record errors
	if status >= 400 {
		errorType := "client_error"
		if status >= 500 {
			errorType = "server_error"
		}
		m.errorRateTotal.WithLabelValues(errorType).Inc()
	}
}

// RecordCalculation records a calculation served from source ("computed"
// or "cached") with its outcome
func (m *MetricsCollector) RecordCalculation(source, outcome string, duration time.Duration) {
	m.calculationsTotal.WithLabelValues(source, outcome).Inc()
	m.calculationDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordAminoAcidScore records a computed score and its limiting amino acid
func (m *MetricsCollector) RecordAminoAcidScore(score float64, limiting string) {
	m.aminoAcidScore.Observe(score)
	if limiting != "" {
		m.limitingAminoAcid.WithLabelValues(limiting).Inc()
	}
}

// RecordCacheLookup records a report cache hit or miss
func (m *MetricsCollector) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheOperations.WithLabelValues(result).Inc()
}

// RecordRecommendations records how many recommendations were returned
func (m *MetricsCollector) RecordRecommendations(count int) {
	m.recommendationsReturned.Observe(float64(count))
}

// RecordDBQuery records one reference database statement
func (m *MetricsCollector) RecordDBQuery(operation string, duration time.Duration, failed bool) {
	outcome := "success"
	if failed {
		outcome = "error"
	}
	m.dbQueriesTotal.WithLabelValues(operation, outcome).Inc()
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler returns an HTTP handler exposing the metrics in gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
