// Package healthcheck metrics integration
// Provides Prometheus metrics for health check monitoring
package healthcheck

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthMetrics provides Prometheus metrics for health checks
type HealthMetrics struct {
	// Counter metrics
	checksTotal  *prometheus.CounterVec
	checkErrors  *prometheus.CounterVec
	circuitTrips *prometheus.CounterVec

	// Histogram metrics
	checkDuration *prometheus.HistogramVec

	// Gauge metrics
	healthStatus        *prometheus.GaugeVec
	circuitBreakerState *prometheus.GaugeVec
}

// MetricsConfig holds configuration for metrics
type MetricsConfig struct {
	Namespace string
	Subsystem string
	Enabled   bool
}

// DefaultMetricsConfig returns default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "nutrilab",
		Subsystem: "healthcheck",
		Enabled:   true,
	}
}

// NewHealthMetrics creates health metrics registered on reg with the
// default configuration
func NewHealthMetrics(reg prometheus.Registerer) *HealthMetrics {
	return NewHealthMetricsWithConfig(reg, DefaultMetricsConfig())
}

// NewHealthMetricsWithConfig creates a new health metrics instance with configuration.
// Disabled metrics return a zero value whose methods are no-ops.
func NewHealthMetricsWithConfig(reg prometheus.Registerer, config MetricsConfig) *HealthMetrics {
	if !config.Enabled {
		return &HealthMetrics{}
	}

	factory := promauto.With(reg)
	return &HealthMetrics{
		checksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "checks_total",
				Help:      "Total number of health checks performed",
			},
			[]string{"check_name", "status"},
		),

		checkErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "check_errors_total",
				Help:      "Total number of health check errors",
			},
			[]string{"check_name", "error_type"},
		),

		circuitTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "circuit_trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"circuit_name"},
		),

		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "check_duration_seconds",
				Help:      "Duration of health checks in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"check_name"},
		),

		healthStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "status",
				Help:      "Current health status (0=unhealthy, 1=degraded, 2=healthy)",
			},
			[]string{"check_name"},
		),

		circuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "circuit_breaker_state",
				Help:      "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"circuit_name"},
		),
	}
}

// RecordCheck records the overall result of a round of checks
func (hm *HealthMetrics) RecordCheck(status Status, duration time.Duration) {
	hm.RecordCheckByName("overall", status, duration)
}

// RecordCheckByName records a health check execution for a specific check
func (hm *HealthMetrics) RecordCheckByName(checkName string, status Status, duration time.Duration) {
	if hm == nil || hm.checksTotal == nil {
		return
	}

	hm.checksTotal.WithLabelValues(checkName, string(status)).Inc()
	hm.checkDuration.WithLabelValues(checkName).Observe(duration.Seconds())
	hm.healthStatus.WithLabelValues(checkName).Set(statusToFloat(status))
	if status == StatusUnhealthy {
		hm.checkErrors.WithLabelValues(checkName, "health_check_failed").Inc()
	}
}

// RecordCircuitBreakerState records circuit breaker state; transitions to
// open also count as a trip
func (hm *HealthMetrics) RecordCircuitBreakerState(name string, state CircuitBreakerState) {
	if hm == nil || hm.circuitBreakerState == nil {
		return
	}

	hm.circuitBreakerState.WithLabelValues(name).Set(circuitStateToFloat(state))
	if state == StateOpen {
		hm.circuitTrips.WithLabelValues(name).Inc()
	}
}

// OnStateChange adapts the metrics to CircuitBreakerConfig.OnStateChange
func (hm *HealthMetrics) OnStateChange(name string, _, to CircuitBreakerState) {
	hm.RecordCircuitBreakerState(name, to)
}

// statusToFloat converts a Status to a float for Prometheus metrics
func statusToFloat(status Status) float64 {
	switch status {
	case StatusHealthy:
		return 2
	case StatusDegraded:
		return 1
	case StatusUnhealthy:
		return 0
	default:
		return -1
	}
}

// circuitStateToFloat converts a CircuitBreakerState to a float for Prometheus metrics
func circuitStateToFloat(state CircuitBreakerState) float64 {
	switch state {
	case StateClosed:
		return 0
	case StateHalfOpen:
		return 1
	case StateOpen:
		return 2
	default:
		return -1
	}
}

// timedChecker records per-check metrics around another checker
type timedChecker struct {
	metrics *HealthMetrics
	next    Checker
}

// Check implements Checker interface with metrics collection
func (tc *timedChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := tc.next.Check(ctx)
	tc.metrics.RecordCheckByName(check.Name, check.Status, time.Since(start))
	return check
}

// WithMetrics wraps a checker with metrics collection. Use it for checkers
// run outside a HealthCheck, which records its own.
func WithMetrics(metrics *HealthMetrics, checker Checker) Checker {
	if metrics == nil {
		return checker
	}
	return &timedChecker{metrics: metrics, next: checker}
}
