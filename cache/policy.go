package cache

import "time"

// Policy configures caching behavior.
type Policy struct {
	// TTL is how long an entry stays live after it is stored.
	// If zero, caching is disabled.
	TTL time.Duration

	// MaxEntries caps the number of stored entries.
	MaxEntries int

	// CleanupInterval is the period of the background expiry sweep.
	// If zero, no sweep runs and expiry is purely lazy.
	CleanupInterval time.Duration

	// SentinelTTL replaces TTL for entries keyed on SentinelHash.
	SentinelTTL time.Duration

	// MaxSentinelEntries caps how many sentinel-keyed entries may exist.
	MaxSentinelEntries int
}

// DefaultPolicy returns the default caching policy.
// TTL: 30s, MaxEntries: 100, CleanupInterval: 10s, SentinelTTL: 5s, MaxSentinelEntries: 10
func DefaultPolicy() Policy {
	return Policy{
		TTL:                30 * time.Second,
		MaxEntries:         100,
		CleanupInterval:    10 * time.Second,
		SentinelTTL:        5 * time.Second,
		MaxSentinelEntries: 10,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.TTL > 0 && p.MaxEntries > 0
}

// EffectiveTTL returns the TTL for an entry. Sentinel entries never outlive
// regular ones.
func (p Policy) EffectiveTTL(sentinel bool) time.Duration {
	if !sentinel {
		return p.TTL
	}
	if p.SentinelTTL <= 0 || p.SentinelTTL > p.TTL {
		return p.TTL
	}
	return p.SentinelTTL
}
