package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func staticChecker(status Status, message string) Checker {
	return NewCustomChecker("static", func(ctx context.Context) (Status, string, interface{}) {
		return status, message, nil
	})
}

func newTestHealthCheck(t *testing.T) *HealthCheck {
	h := New("1.0.0", zaptest.NewLogger(t))
	h.SetCacheTTL(0)
	return h
}

func TestHealthCheck_Check_NoCheckers(t *testing.T) {
	h := newTestHealthCheck(t)

	response := h.Check(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Empty(t, response.Checks)
}

func TestHealthCheck_Check_AggregatesStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{name: "all healthy", statuses: []Status{StatusHealthy, StatusHealthy}, want: StatusHealthy},
		{name: "one degraded", statuses: []Status{StatusHealthy, StatusDegraded}, want: StatusDegraded},
		{name: "unhealthy wins", statuses: []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, want: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHealthCheck(t)
			for i, status := range tt.statuses {
				h.Register(string(rune('a'+i)), staticChecker(status, ""))
			}

			assert.Equal(t, tt.want, h.Check(context.Background()).Status)
		})
	}
}

func TestHealthCheck_Check_PreservesRegistrationOrder(t *testing.T) {
	h := newTestHealthCheck(t)
	h.Register("reference", staticChecker(StatusHealthy, ""))
	h.Register("cache", staticChecker(StatusHealthy, ""))
	h.Register("database", staticChecker(StatusHealthy, ""))
	h.Register("cache", staticChecker(StatusDegraded, "slow"))

	response := h.Check(context.Background())

	require.Len(t, response.Checks, 3)
	assert.Equal(t, "reference", response.Checks[0].Name)
	assert.Equal(t, "cache", response.Checks[1].Name)
	assert.Equal(t, StatusDegraded, response.Checks[1].Status)
	assert.Equal(t, "database", response.Checks[2].Name)
}

func TestHealthCheck_Check_Caching(t *testing.T) {
	var calls int32
	h := New("1.0.0", nil)
	h.SetCacheTTL(time.Minute)
	h.Register("counted", NewCustomChecker("counted", func(ctx context.Context) (Status, string, interface{}) {
		atomic.AddInt32(&calls, 1)
		return StatusHealthy, "", nil
	}))

	h.Check(context.Background())
	h.Check(context.Background())

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHealthCheck_Check_Timeout(t *testing.T) {
	h := newTestHealthCheck(t)
	h.SetTimeout(10 * time.Millisecond)
	h.Register("slow", NewCustomChecker("slow", func(ctx context.Context) (Status, string, interface{}) {
		<-ctx.Done()
		return StatusUnhealthy, ctx.Err().Error(), nil
	}))

	response := h.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, response.Status)
	assert.Contains(t, response.Checks[0].Message, "deadline")
}

func TestHealthCheck_Check_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHealthMetrics(reg)
	h := newTestHealthCheck(t)
	h.SetMetrics(metrics)
	h.Register("cache", staticChecker(StatusUnhealthy, "down"))

	h.Check(context.Background())

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.checksTotal.WithLabelValues("cache", "unhealthy")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.checkErrors.WithLabelValues("cache", "health_check_failed")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.healthStatus.WithLabelValues("overall")))
}

func TestHealthCheck_Handlers(t *testing.T) {
	tests := []struct {
		name       string
		status     Status
		handler    func(h *HealthCheck) http.HandlerFunc
		wantCode   int
		wantStatus string
	}{
		{"health healthy", StatusHealthy, (*HealthCheck).Handler, http.StatusOK, "healthy"},
		{"health degraded", StatusDegraded, (*HealthCheck).Handler, http.StatusOK, "degraded"},
		{"health unhealthy", StatusUnhealthy, (*HealthCheck).Handler, http.StatusServiceUnavailable, "unhealthy"},
		{"ready", StatusHealthy, (*HealthCheck).ReadinessHandler, http.StatusOK, "ready"},
		{"not ready", StatusDegraded, (*HealthCheck).ReadinessHandler, http.StatusServiceUnavailable, "not_ready"},
		{"alive", StatusUnhealthy, (*HealthCheck).LivenessHandler, http.StatusOK, "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHealthCheck(t)
			h.Register("check", staticChecker(tt.status, ""))

			rec := httptest.NewRecorder()
			tt.handler(h)(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
		})
	}
}

func TestCircuitChecker(t *testing.T) {
	cb, clock := newTestBreaker(testConfig())
	checker := NewCircuitChecker(cb)

	assert.Equal(t, StatusHealthy, checker.Check(context.Background()).Status)

	cb.ForceOpen()
	check := checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.Equal(t, "test", check.Name)

	clock.Advance(2 * time.Second)
	cb.mu.Lock()
	cb.allowRequest()
	cb.mu.Unlock()
	assert.Equal(t, StatusDegraded, checker.Check(context.Background()).Status)
}

func TestCheck_MarshalJSON(t *testing.T) {
	check := Check{
		Name:     "database",
		Status:   StatusHealthy,
		Duration: 1500 * time.Millisecond,
	}

	data, err := json.Marshal(check)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(1500), decoded["duration_ms"])
	assert.Equal(t, "database", decoded["name"])
}

func TestResponse_MarshalJSON(t *testing.T) {
	response := Response{
		Status:        StatusHealthy,
		Version:       "1.0.0",
		TotalDuration: 250 * time.Millisecond,
		Checks:        []Check{},
	}

	data, err := json.Marshal(response)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(250), decoded["total_duration_ms"])
	assert.Equal(t, "healthy", decoded["status"])
}
