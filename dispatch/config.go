package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/modeflow/mode"
)

// ErrInvalidConfig matches every configuration validation failure.
var ErrInvalidConfig = errors.New("dispatch: invalid config")

// Config configures a Dispatcher. Start from DefaultConfig; New uses the
// values as given.
type Config struct {
	// MaxCacheSize caps cached responses.
	MaxCacheSize int `yaml:"max_cache_size"`

	// CacheTTL is how long a response stays cached.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// CleanupInterval is the period of the cache expiry sweep. Zero leaves
	// expiry lazy.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`

	// DebounceDelay is how long a new call waits for identical calls to
	// join it. Zero executes immediately.
	DebounceDelay time.Duration `yaml:"debounce_delay"`

	// SlowRequestThreshold marks a request as slow.
	SlowRequestThreshold time.Duration `yaml:"slow_request_threshold"`

	// RequestTimeout bounds the backend call only. Zero leaves it unbounded.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxRetries and FallbackMode are carried for the upstream client. The
	// dispatcher itself never retries or switches modes.
	MaxRetries   int       `yaml:"max_retries"`
	FallbackMode mode.Mode `yaml:"fallback_mode"`

	// MemorySampleInterval is the period of heap sampling.
	MemorySampleInterval time.Duration `yaml:"memory_sample_interval"`

	// MemoryCeiling is the heap size above which the report recommends a
	// smaller cache.
	MemoryCeiling uint64 `yaml:"memory_ceiling"`

	// CoarseDebounce coalesces in-flight calls on mode, kind, and context
	// alone, ignoring request content. By default calls coalesce only when
	// their cache keys match.
	CoarseDebounce bool `yaml:"coarse_debounce"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxCacheSize:         100,
		CacheTTL:             30 * time.Second,
		CleanupInterval:      10 * time.Second,
		DebounceDelay:        300 * time.Millisecond,
		SlowRequestThreshold: time.Second,
		RequestTimeout:       30 * time.Second,
		MaxRetries:           3,
		FallbackMode:         mode.Manual,
		MemorySampleInterval: 30 * time.Second,
		MemoryCeiling:        100 << 20,
	}
}

// Validate checks every field.
func (c Config) Validate() error {
	switch {
	case c.MaxCacheSize <= 0:
		return fmt.Errorf("%w: max_cache_size must be positive, got %d", ErrInvalidConfig, c.MaxCacheSize)
	case c.CacheTTL <= 0:
		return fmt.Errorf("%w: cache_ttl must be positive, got %s", ErrInvalidConfig, c.CacheTTL)
	case c.CleanupInterval < 0:
		return fmt.Errorf("%w: cleanup_interval must not be negative, got %s", ErrInvalidConfig, c.CleanupInterval)
	case c.DebounceDelay < 0:
		return fmt.Errorf("%w: debounce_delay must not be negative, got %s", ErrInvalidConfig, c.DebounceDelay)
	case c.SlowRequestThreshold <= 0:
		return fmt.Errorf("%w: slow_request_threshold must be positive, got %s", ErrInvalidConfig, c.SlowRequestThreshold)
	case c.RequestTimeout < 0:
		return fmt.Errorf("%w: request_timeout must not be negative, got %s", ErrInvalidConfig, c.RequestTimeout)
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: max_retries must not be negative, got %d", ErrInvalidConfig, c.MaxRetries)
	case !c.FallbackMode.Valid():
		return fmt.Errorf("%w: fallback_mode %v is not a mode", ErrInvalidConfig, c.FallbackMode)
	case c.MemorySampleInterval <= 0:
		return fmt.Errorf("%w: memory_sample_interval must be positive, got %s", ErrInvalidConfig, c.MemorySampleInterval)
	case c.MemoryCeiling == 0:
		return fmt.Errorf("%w: memory_ceiling must be positive", ErrInvalidConfig)
	}
	return nil
}
