// Package main provides a standalone health check command for nutrilab
// This command can be used for Docker health checks, monitoring scripts, and debugging
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alchemorsel/nutrilab/internal/infrastructure/config"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/container"
	"github.com/alchemorsel/nutrilab/pkg/healthcheck"
	"go.uber.org/fx"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Options holds command-line configuration
type Options struct {
	URL            string
	Timeout        time.Duration
	Verbose        bool
	OutputFormat   string
	ExpectedStatus string
	RetryCount     int
	RetryDelay     time.Duration
	ConfigPath     string
	LocalCheck     bool
}

func main() {
	opts := parseFlags(os.Args[1:])

	if opts.LocalCheck {
		os.Exit(runLocalHealthCheck(opts, os.Stdout))
	}
	os.Exit(runRemoteHealthCheck(opts, os.Stdout))
}

// parseFlags parses command-line flags
func parseFlags(args []string) Options {
	opts := Options{}
	fs := flag.NewFlagSet("health-check", flag.ExitOnError)

	fs.StringVar(&opts.URL, "url", "", "Health check endpoint URL (e.g., http://localhost:8080/health)")
	fs.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Verbose output")
	fs.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, compact")
	fs.StringVar(&opts.ExpectedStatus, "expect", "healthy", "Expected status: healthy, degraded, unhealthy")
	fs.IntVar(&opts.RetryCount, "retry", 0, "Number of retries on failure")
	fs.DurationVar(&opts.RetryDelay, "retry-delay", 1*time.Second, "Delay between retries")
	fs.StringVar(&opts.ConfigPath, "config", "", "Configuration file path")
	fs.BoolVar(&opts.LocalCheck, "local", false, "Build the service in-process instead of calling the HTTP endpoint")

	_ = fs.Parse(args)

	if opts.URL == "" {
		opts.URL = os.Getenv("HEALTH_CHECK_URL")
	}
	if opts.URL == "" {
		opts.URL = "http://localhost:8080/health"
	}

	return opts
}

// runRemoteHealthCheck performs a remote health check via HTTP
func runRemoteHealthCheck(opts Options, out io.Writer) int {
	client := &http.Client{Timeout: opts.Timeout}

	var lastError error
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			if opts.Verbose {
				fmt.Fprintf(out, "Retrying in %v... (attempt %d/%d)\n", opts.RetryDelay, attempt, opts.RetryCount)
			}
			time.Sleep(opts.RetryDelay)
		}

		resp, err := client.Get(opts.URL)
		if err != nil {
			lastError = err
			if opts.Verbose {
				fmt.Fprintf(out, "Request failed: %v\n", err)
			}
			continue
		}

		return handleResponse(resp, opts, out)
	}

	fmt.Fprintf(out, "Health check failed after %d attempts: %v\n", opts.RetryCount+1, lastError)
	return exitCodeError
}

// runLocalHealthCheck builds the core container and runs its registered
// checks without starting the HTTP server
func runLocalHealthCheck(opts Options, out io.Writer) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(out, "Failed to load configuration: %v\n", err)
		return exitCodeError
	}
	cfg.App.LogLevel = "error"

	var health *healthcheck.HealthCheck
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		container.CoreModule,
		fx.Populate(&health),
	)
	if err := app.Err(); err != nil {
		fmt.Fprintf(out, "Failed to build service: %v\n", err)
		return exitCodeError
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(out, "Failed to start service: %v\n", err)
		return exitCodeError
	}
	defer func() { _ = app.Stop(context.Background()) }()

	return outputResult(health.Check(ctx), opts, out)
}

// handleResponse handles the HTTP response
func handleResponse(resp *http.Response, opts Options, out io.Writer) int {
	defer resp.Body.Close()

	var response map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		fmt.Fprintf(out, "Failed to decode response: %v\n", err)
		return exitCodeError
	}

	return outputResult(response, opts, out)
}

// outputResult outputs the result based on the configured format
func outputResult(result interface{}, opts Options, out io.Writer) int {
	status := extractStatus(result)

	switch opts.OutputFormat {
	case "json":
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(out, string(data))
	case "compact":
		data, _ := json.Marshal(result)
		fmt.Fprintln(out, string(data))
	default: // text
		outputText(result, opts.Verbose, out)
	}

	expectedStatus := healthcheck.Status(opts.ExpectedStatus)
	if status == expectedStatus {
		return exitCodeSuccess
	}

	if status == healthcheck.StatusUnhealthy {
		return exitCodeFailure
	}

	// For degraded status when expecting healthy
	if status == healthcheck.StatusDegraded && expectedStatus == healthcheck.StatusHealthy {
		return exitCodeFailure
	}

	return exitCodeSuccess
}

// extractStatus extracts the status from the result
func extractStatus(result interface{}) healthcheck.Status {
	switch r := result.(type) {
	case healthcheck.Response:
		return r.Status
	case map[string]interface{}:
		if status, ok := r["status"].(string); ok {
			return healthcheck.Status(status)
		}
	}

	return healthcheck.StatusUnhealthy
}

// outputText outputs the result in text format
func outputText(result interface{}, verbose bool, out io.Writer) {
	switch r := result.(type) {
	case healthcheck.Response:
		fmt.Fprintf(out, "Status: %s\n", r.Status)
		fmt.Fprintf(out, "Version: %s\n", r.Version)
		fmt.Fprintf(out, "Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(out, "Duration: %dms\n", r.TotalDuration.Milliseconds())

		if verbose && len(r.Checks) > 0 {
			fmt.Fprintln(out, "\nChecks:")
			for _, check := range r.Checks {
				fmt.Fprintf(out, "  %s: %s", check.Name, check.Status)
				if check.Message != "" {
					fmt.Fprintf(out, " (%s)", check.Message)
				}
				fmt.Fprintf(out, " [%dms]\n", check.Duration.Milliseconds())
			}
		}

	case map[string]interface{}:
		if status, ok := r["status"].(string); ok {
			fmt.Fprintf(out, "Status: %s\n", status)
		}
		if verbose {
			data, _ := json.MarshalIndent(r, "", "  ")
			fmt.Fprintln(out, string(data))
		}

	default:
		fmt.Fprintf(out, "Unknown result type: %T\n", result)
	}
}
