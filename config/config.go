package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/modeflow/dispatch"
	"github.com/jonwraymond/modeflow/observe"
	"github.com/jonwraymond/modeflow/telemetry"
	"github.com/jonwraymond/modeflow/upstream"
)

// ErrInvalid matches every validation failure reported by Config.Validate.
var ErrInvalid = errors.New("config: invalid")

// Config is the modeflowd configuration file.
type Config struct {
	Service   ServiceConfig       `yaml:"service"`
	Dispatch  dispatch.Config     `yaml:"dispatch"`
	Upstream  upstream.HTTPConfig `yaml:"upstream"`
	Telemetry TelemetryConfig     `yaml:"telemetry"`
	Observe   observe.Config      `yaml:"observe"`
	HTTP      HTTPConfig          `yaml:"http"`
}

// ServiceConfig names the running service in traces and logs.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// TelemetryConfig selects the sinks that receive dispatcher events.
type TelemetryConfig struct {
	// Log writes every event through the service logger.
	Log  bool       `yaml:"log"`
	NATS NATSConfig `yaml:"nats"`
}

// NATSConfig enables publishing events to NATS.
type NATSConfig struct {
	Enabled              bool `yaml:"enabled"`
	telemetry.NATSConfig `yaml:",inline"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Defaults returns a configuration that validates once an upstream
// endpoint is set.
func Defaults() Config {
	return Config{
		Service:  ServiceConfig{Name: "modeflow", Version: "dev"},
		Dispatch: dispatch.DefaultConfig(),
		Upstream: upstream.DefaultHTTPConfig(),
		Telemetry: TelemetryConfig{
			Log: true,
			NATS: NATSConfig{NATSConfig: telemetry.NATSConfig{
				SubjectPrefix:  "modeflow",
				ConnectTimeout: 5 * time.Second,
			}},
		},
		Observe: observe.Config{
			Tracing: observe.TracingConfig{Exporter: "none", SamplePct: 1.0},
			Metrics: observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
			Logging: observe.LoggingConfig{Enabled: true, Level: "info", Backend: "json"},
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    45 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Service.Name) == "" {
		return fmt.Errorf("%w: service.name is required", ErrInvalid)
	}
	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("%w: dispatch: %w", ErrInvalid, err)
	}
	if err := c.UpstreamConfig().Validate(); err != nil {
		return fmt.Errorf("%w: upstream: %w", ErrInvalid, err)
	}
	obs := c.ObserveConfig()
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("%w: observe: %w", ErrInvalid, err)
	}
	if c.Telemetry.NATS.Enabled && strings.TrimSpace(c.Telemetry.NATS.URL) == "" {
		return fmt.Errorf("%w: telemetry.nats.url is required when nats is enabled", ErrInvalid)
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("%w: http.addr is required", ErrInvalid)
	}
	if c.HTTP.WriteTimeout > 0 && c.Dispatch.RequestTimeout > 0 && c.HTTP.WriteTimeout <= c.Dispatch.RequestTimeout {
		return fmt.Errorf("%w: http.write_timeout %s must exceed dispatch.request_timeout %s",
			ErrInvalid, c.HTTP.WriteTimeout, c.Dispatch.RequestTimeout)
	}
	return nil
}

// UpstreamConfig returns the upstream client settings. dispatch.max_retries
// governs upstream retries.
func (c Config) UpstreamConfig() upstream.HTTPConfig {
	u := c.Upstream
	u.MaxRetries = c.Dispatch.MaxRetries
	return u
}

// ObserveConfig returns the observer settings named after the service.
func (c Config) ObserveConfig() observe.Config {
	o := c.Observe
	if o.ServiceName == "" {
		o.ServiceName = c.Service.Name
	}
	if o.Version == "" {
		o.Version = c.Service.Version
	}
	return o
}
