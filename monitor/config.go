package monitor

import (
	"time"

	"github.com/jonwraymond/modeflow/mode"
)

// Defaults.
const (
	DefaultWindowSize           = 100
	DefaultModeWindowSize       = 50
	DefaultSlowThreshold        = time.Second
	DefaultMemorySampleInterval = 30 * time.Second
	DefaultMemoryCeiling        = 100 << 20
)

// DefaultTargets are the per-mode average latency targets.
func DefaultTargets() map[mode.Mode]time.Duration {
	return map[mode.Mode]time.Duration{
		mode.Manual:    500 * time.Millisecond,
		mode.Hybrid:    1000 * time.Millisecond,
		mode.FullyAuto: 2000 * time.Millisecond,
	}
}

// Config configures a Monitor. Zero fields take the defaults above.
type Config struct {
	WindowSize           int
	ModeWindowSize       int
	SlowThreshold        time.Duration
	MemorySampleInterval time.Duration
	MemoryCeiling        uint64
	Targets              map[mode.Mode]time.Duration
}

func (c Config) withDefaults() Config {
	if c.WindowSize <= 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.ModeWindowSize <= 0 {
		c.ModeWindowSize = DefaultModeWindowSize
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = DefaultSlowThreshold
	}
	if c.MemorySampleInterval <= 0 {
		c.MemorySampleInterval = DefaultMemorySampleInterval
	}
	if c.MemoryCeiling == 0 {
		c.MemoryCeiling = DefaultMemoryCeiling
	}
	if c.Targets == nil {
		c.Targets = DefaultTargets()
	}
	return c
}
