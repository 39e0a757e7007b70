// Package apiserver provides the JSON API HTTP server
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/alchemorsel/nutrilab/internal/infrastructure/config"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrilab/internal/ports/inbound"
	"github.com/alchemorsel/nutrilab/pkg/healthcheck"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Dependencies are the collaborators the server routes to. Metrics,
// Gatherer and RateLimiter are optional.
type Dependencies struct {
	Service     inbound.NutritionService
	Health      *healthcheck.HealthCheck
	Metrics     *monitoring.MetricsCollector
	Gatherer    prometheus.Gatherer
	RateLimiter *middleware.RateLimiter
}

// APIServer is the JSON API HTTP server
type APIServer struct {
	config  *config.Config
	logger  *zap.Logger
	deps    Dependencies
	server  *http.Server
	router  *chi.Mux
	openAPI *OpenAPIHandler
}

// NewAPIServer creates a new API server instance
func NewAPIServer(cfg *config.Config, log *zap.Logger, deps Dependencies) *APIServer {
	s := &APIServer{
		config:  cfg,
		logger:  log,
		deps:    deps,
		openAPI: NewOpenAPIHandler(log),
	}

	s.router = s.setupRoutes()

	var handler http.Handler = s.router
	if cfg.Monitoring.EnableTracing {
		handler = otelhttp.NewHandler(s.router, "http.server",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}

	h2 := &http2.Server{IdleTimeout: cfg.Server.IdleTimeout}
	if cfg.Server.EnableH2C {
		handler = h2c.NewHandler(handler, h2)
	}

	s.server = &http.Server{
		Addr:           net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port)),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	if err := http2.ConfigureServer(s.server, h2); err != nil {
		log.Error("Failed to configure HTTP/2", zap.Error(err))
	}

	return s
}

// setupRoutes configures the router. Probes and metrics sit outside the
// API group so rate limiting and content negotiation never affect them.
func (s *APIServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()
	r.NotFound(middleware.NotFound())

	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recoverer(s.logger))
	r.Use(middleware.Security())
	r.Use(middleware.CORS(s.config.Server))
	if s.deps.Metrics != nil {
		r.Use(middleware.Metrics(s.deps.Metrics))
	}

	if s.deps.Health != nil {
		r.Get(s.config.Monitoring.HealthCheckPath, s.deps.Health.Handler())
		r.Get(s.config.Monitoring.ReadinessPath, s.deps.Health.ReadinessHandler())
		r.Get("/live", s.deps.Health.LivenessHandler())
	}
	if s.config.Monitoring.EnableMetrics && s.deps.Gatherer != nil {
		r.Method(http.MethodGet, s.config.Monitoring.MetricsPath, monitoring.Handler(s.deps.Gatherer))
	}

	r.Get("/api/v1/openapi.yaml", s.openAPI.ServeOpenAPISpec)
	r.Get("/api/v1/openapi.json", s.openAPI.ServeOpenAPIJSON)

	r.Route("/api/v1", func(r chi.Router) {
		if s.deps.RateLimiter != nil {
			r.Use(s.deps.RateLimiter.Handler)
		}
		r.Use(chimiddleware.Timeout(s.requestTimeout()))
		r.Use(chimiddleware.Compress(5))
		r.Use(middleware.MaxBody(s.config.Server.MaxBodyBytes))
		r.Use(middleware.JSONOnly())

		handlers.NewAPIHandlers(s.deps.Service, s.logger).Routes(r)
	})

	return r
}

func (s *APIServer) requestTimeout() time.Duration {
	if s.config.Server.WriteTimeout > 0 {
		return s.config.Server.WriteTimeout
	}
	return 30 * time.Second
}

// Handler returns the fully wrapped HTTP handler
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server and blocks until it stops. A graceful
// shutdown is not reported as an error.
func (s *APIServer) Start() error {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on ln
func (s *APIServer) Serve(ln net.Listener) error {
	s.logger.Info("Starting API server", zap.String("address", ln.Addr().String()))

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Server returns the underlying HTTP server instance
func (s *APIServer) Server() *http.Server {
	return s.server
}

// Shutdown gracefully shuts down the server
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}
