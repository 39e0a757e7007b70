package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags_Defaults(t *testing.T) {
	t.Setenv("HEALTH_CHECK_URL", "")
	opts := parseFlags(nil)

	assert.Equal(t, "http://localhost:8080/health", opts.URL)
	assert.Equal(t, "healthy", opts.ExpectedStatus)
	assert.Equal(t, 10*time.Second, opts.Timeout)
}

func TestRemoteHealthCheck(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expect   string
		wantCode int
	}{
		{"healthy", `{"status":"healthy"}`, "healthy", exitCodeSuccess},
		{"unhealthy", `{"status":"unhealthy"}`, "healthy", exitCodeFailure},
		{"degraded when healthy expected", `{"status":"degraded"}`, "healthy", exitCodeFailure},
		{"degraded accepted", `{"status":"degraded"}`, "degraded", exitCodeSuccess},
		{"not json", `ok`, "healthy", exitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			var out bytes.Buffer
			code := runRemoteHealthCheck(Options{
				URL:            ts.URL,
				Timeout:        time.Second,
				ExpectedStatus: tt.expect,
			}, &out)

			assert.Equal(t, tt.wantCode, code, out.String())
		})
	}
}

func TestRemoteHealthCheck_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	var out bytes.Buffer
	code := runRemoteHealthCheck(Options{
		URL:            url,
		Timeout:        time.Second,
		ExpectedStatus: "healthy",
		RetryCount:     1,
		RetryDelay:     time.Millisecond,
	}, &out)

	assert.Equal(t, exitCodeError, code)
	assert.Contains(t, out.String(), "after 2 attempts")
}

func TestLocalHealthCheck(t *testing.T) {
	var out bytes.Buffer
	code := runLocalHealthCheck(Options{
		Timeout:        5 * time.Second,
		ExpectedStatus: "healthy",
		OutputFormat:   "text",
		Verbose:        true,
	}, &out)

	assert.Equal(t, exitCodeSuccess, code, out.String())
	assert.Contains(t, out.String(), "reference: healthy")
}
