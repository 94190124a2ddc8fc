package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/modeflow/config"
	"github.com/jonwraymond/modeflow/dispatch"
	"github.com/jonwraymond/modeflow/health"
	"github.com/jonwraymond/modeflow/httpapi"
	"github.com/jonwraymond/modeflow/observe"
	"github.com/jonwraymond/modeflow/telemetry"
	"github.com/jonwraymond/modeflow/upstream"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dispatcher API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			svc, err := build(ctx, cfg)
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", cfg.HTTP.Addr)
			if err != nil {
				svc.close(context.Background())
				return fmt.Errorf("listen %s: %w", cfg.HTTP.Addr, err)
			}
			return svc.serve(ctx, ln)
		},
	}
}

// service owns everything serve starts, in shutdown order.
type service struct {
	cfg        config.Config
	obs        observe.Observer
	logger     observe.Logger
	dispatcher *dispatch.Dispatcher
	nats       *telemetry.NATSSink
	server     *http.Server
}

func build(ctx context.Context, cfg config.Config) (*service, error) {
	obs, err := observe.NewObserver(ctx, cfg.ObserveConfig())
	if err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}
	svc := &service{cfg: cfg, obs: obs, logger: obs.Logger()}

	fail := func(err error) (*service, error) {
		svc.close(context.Background())
		return nil, err
	}

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fail(fmt.Errorf("observe middleware: %w", err))
	}
	client, err := upstream.NewHTTPClient(cfg.UpstreamConfig(), upstream.WithLogger(svc.logger))
	if err != nil {
		return fail(fmt.Errorf("upstream client: %w", err))
	}

	var sinks []telemetry.Sink
	if cfg.Telemetry.Log {
		sinks = append(sinks, telemetry.NewLogSink(svc.logger))
	}
	if cfg.Telemetry.NATS.Enabled {
		svc.nats, err = telemetry.DialNATS(cfg.Telemetry.NATS.NATSConfig, svc.logger)
		if err != nil {
			return fail(fmt.Errorf("telemetry nats: %w", err))
		}
		sinks = append(sinks, svc.nats)
	}

	metrics, err := observe.NewRequestMetrics(obs.Meter())
	if err != nil {
		return fail(fmt.Errorf("request metrics: %w", err))
	}
	svc.dispatcher, err = dispatch.New(upstream.Instrument(client, mw), cfg.Dispatch,
		dispatch.WithLogger(svc.logger),
		dispatch.WithTelemetry(telemetry.Multi(sinks...)),
		dispatch.WithTracer(observe.NewTracer(obs.Tracer())),
		dispatch.WithMetrics(metrics),
	)
	if err != nil {
		return fail(fmt.Errorf("dispatcher: %w", err))
	}

	agg := health.NewAggregator(health.AggregatorConfig{})
	agg.Register(svc.dispatcher.Checker())
	agg.Register(client.Checker("upstream"))

	opts := []httpapi.Option{httpapi.WithLogger(svc.logger), httpapi.WithHealth(agg)}
	if cfg.Observe.Metrics.Enabled && cfg.Observe.Metrics.Exporter == "prometheus" {
		opts = append(opts, httpapi.WithMetricsHandler(promhttp.Handler()))
	}
	svc.server = &http.Server{
		Handler:           httpapi.New(svc.dispatcher, opts...).Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}
	return svc, nil
}

// serve blocks until ctx is done or the listener fails, then shuts down.
func (s *service) serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- s.server.Serve(ln) }()
	s.logger.Info(ctx, "modeflowd listening",
		observe.F("addr", ln.Addr().String()),
		observe.F("upstream", s.cfg.Upstream.Endpoint))

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	s.logger.Info(shutdownCtx, "modeflowd shutting down")
	if err := s.server.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("http shutdown: %w", err)
	}
	s.close(shutdownCtx)
	return serveErr
}

func (s *service) close(ctx context.Context) {
	if s.dispatcher != nil {
		s.dispatcher.Cleanup()
	}
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			s.logger.Warn(ctx, "nats close", observe.F("error", err))
		}
	}
	if err := s.obs.Shutdown(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "observer shutdown:", err)
	}
}
