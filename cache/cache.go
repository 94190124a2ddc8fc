package cache

import (
	"context"
	"errors"
	"strings"

	"github.com/jonwraymond/modeflow/mode"
	"github.com/jonwraymond/modeflow/request"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// KeySeparator joins the parts of a composite key. Hashes are hex and mode
// names never contain it, so the join is unambiguous.
const KeySeparator = "|"

// Sentinel errors for cache operations.
var (
	ErrNilCache     = errors.New("cache: cache is nil")
	ErrInvalidKey   = errors.New("cache: key is invalid")
	ErrKeyTooLong   = errors.New("cache: key exceeds max length")
	ErrDegradedHash = errors.New("cache: hashing degraded to sentinel")
)

// EntryMeta describes where a cached response came from.
type EntryMeta struct {
	Mode        mode.Mode
	ContextHash string
	RequestHash string
}

// Sentinel reports whether either hash fell back to SentinelHash.
func (m EntryMeta) Sentinel() bool {
	return m.ContextHash == SentinelHash || m.RequestHash == SentinelHash
}

// Cache stores dispatcher responses by composite key.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Ownership: responses are copied in and copied out; callers never share
//   slices with the cache.
// - Errors: Get never errors; it returns (zero, false) on miss or expiry.
type Cache interface {
	// Get returns a live entry and refreshes its recency.
	Get(ctx context.Context, key string) (request.Response, bool)

	// Set inserts or replaces an entry, evicting the least recently used
	// entry first when the cache is full.
	Set(ctx context.Context, key string, resp request.Response, meta EntryMeta) error

	// Delete removes an entry. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry.
	Clear()

	// Len returns the number of stored entries, expired or not.
	Len() int
}

// Key builds the composite cache key mode|requestHash|contextHash. The same
// request under a different mode is a different key.
func Key(m mode.Mode, requestHash, contextHash string) string {
	return m.String() + KeySeparator + requestHash + KeySeparator + contextHash
}

// DebounceKey builds the coarse in-flight key mode|kind|contextHash. It
// ignores request content so near-duplicate calls collapse.
func DebounceKey(m mode.Mode, kind request.Kind, contextHash string) string {
	return m.String() + KeySeparator + string(kind) + KeySeparator + contextHash
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
