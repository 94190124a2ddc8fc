package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jonwraymond/modeflow/cache"
	"github.com/jonwraymond/modeflow/health"
	"github.com/jonwraymond/modeflow/mode"
	"github.com/jonwraymond/modeflow/monitor"
	"github.com/jonwraymond/modeflow/observe"
	"github.com/jonwraymond/modeflow/request"
)

// maxBodyBytes bounds a process request body.
const maxBodyBytes int64 = 1 << 20

// Processor is the dispatcher surface served over HTTP.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Process must honor cancellation of ctx.
type Processor interface {
	Process(ctx context.Context, req request.Request, wctx request.WritingContext, m mode.Mode) (request.Response, error)
	PerformanceReport() monitor.Report
	HealthStatus() monitor.HealthStatus
	ModeConfiguration(m mode.Mode) (mode.Configuration, error)
	CacheStats() cache.Stats
}

// Server routes HTTP requests to a Processor.
type Server struct {
	proc    Processor
	logger  observe.Logger
	health  *health.Aggregator
	metrics http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and error logger.
func WithLogger(l observe.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHealth mounts the health endpoints backed by agg.
func WithHealth(agg *health.Aggregator) Option {
	return func(s *Server) { s.health = agg }
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// New creates a Server.
func New(proc Processor, opts ...Option) *Server {
	s := &Server{proc: proc, logger: observe.NopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.recoverer)
	r.Use(s.accessLog)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/process", s.handleProcess)
		r.Get("/performance", s.handlePerformance)
		r.Get("/performance/health", s.handlePerformanceHealth)
		r.Get("/cache", s.handleCache)
		r.Get("/modes", s.handleModes)
		r.Get("/modes/{mode}", s.handleMode)
	})

	if s.health != nil {
		health.Mount(r, s.health)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}
