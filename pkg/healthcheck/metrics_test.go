package healthcheck

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthMetrics_CircuitStateChanges(t *testing.T) {
	metrics := NewHealthMetrics(prometheus.NewRegistry())
	config := testConfig()
	config.OnStateChange = metrics.OnStateChange
	cb, _ := newTestBreaker(config)

	cb.ForceOpen()

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.circuitBreakerState.WithLabelValues("test")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.circuitTrips.WithLabelValues("test")))

	cb.Reset()
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.circuitBreakerState.WithLabelValues("test")))
}

func TestHealthMetrics_Disabled(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHealthMetricsWithConfig(reg, MetricsConfig{Enabled: false})

	assert.NotPanics(t, func() {
		metrics.RecordCheck(StatusHealthy, 0)
		metrics.RecordCircuitBreakerState("x", StateOpen)
	})

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}

func TestHealthMetrics_NilIsNoop(t *testing.T) {
	var metrics *HealthMetrics

	assert.NotPanics(t, func() {
		metrics.RecordCheckByName("x", StatusHealthy, 0)
		metrics.OnStateChange("x", StateClosed, StateOpen)
	})
}

func TestWithMetrics(t *testing.T) {
	metrics := NewHealthMetrics(prometheus.NewRegistry())
	checker := WithMetrics(metrics, staticChecker(StatusDegraded, "slow"))

	check := checker.Check(context.Background())

	assert.Equal(t, StatusDegraded, check.Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.checksTotal.WithLabelValues("static", "degraded")))

	plain := staticChecker(StatusHealthy, "")
	assert.Equal(t, plain, WithMetrics(nil, plain))
}
