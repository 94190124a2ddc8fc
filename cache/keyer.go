package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/jonwraymond/modeflow/request"
)

// SentinelHash is returned in place of a real hash when canonicalization
// fails. Entries keyed on it collide by construction, so the cache gives
// them a short TTL and caps how many exist.
const SentinelHash = "0000000000000000"

// DefaultContentLimit is how many runes of request content are hashed.
const DefaultContentLimit = 1000

// Keyer derives short, stable fingerprints for requests and contexts.
//
// Contract:
// - Determinism: equal inputs produce equal hashes across calls.
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: on failure implementations return SentinelHash together with an
//   error wrapping ErrDegradedHash. The hash is always usable.
type Keyer interface {
	HashRequest(req request.Request) (string, error)
	HashContext(wctx request.WritingContext) (string, error)
}

// DefaultKeyer hashes a canonical JSON form with SHA-256 and keeps the first
// 16 hex characters.
type DefaultKeyer struct {
	// ContentLimit caps how many runes of content are hashed. The full
	// length is hashed too, so truncated prefixes of different sizes differ.
	ContentLimit int
}

// NewDefaultKeyer creates a keyer with DefaultContentLimit.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{ContentLimit: DefaultContentLimit}
}

// HashRequest fingerprints kind, truncated content, and the flags that
// change the response shape.
func (k *DefaultKeyer) HashRequest(req request.Request) (string, error) {
	limit := k.ContentLimit
	if limit <= 0 {
		limit = DefaultContentLimit
	}

	input := map[string]any{
		"kind":          string(req.Kind),
		"content":       truncateRunes(req.Content, limit),
		"contentLength": len(req.Content),
		"explicit":      req.ExplicitlyUserInitiated,
		"enhancement":   string(req.EnhancementLevel),
	}
	if req.ApprovalRequired != nil {
		input["approval"] = *req.ApprovalRequired
	}
	return hashCanonical(input)
}

// HashContext fingerprints a writing context. Goal order is significant.
func (k *DefaultKeyer) HashContext(wctx request.WritingContext) (string, error) {
	goals := make([]any, len(wctx.UserGoals))
	for i, g := range wctx.UserGoals {
		goals[i] = g
	}
	return hashCanonical(map[string]any{
		"documentType":   wctx.DocumentType,
		"writingPhase":   wctx.WritingPhase,
		"userGoals":      goals,
		"userExperience": string(wctx.UserExperience),
	})
}

func hashCanonical(v any) (string, error) {
	canonical, err := canonicalize(v)
	if err != nil {
		return SentinelHash, fmt.Errorf("%w: %v", ErrDegradedHash, err)
	}
	hash := sha256.Sum256(canonical)
	return hex.EncodeToString(hash[:8]), nil // First 8 bytes = 16 hex chars
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	case string:
		if !utf8.ValidString(val) {
			// json.Marshal folds invalid bytes into U+FFFD; keep them distinct.
			return fmt.Appendf(nil, `{"bytes":%q}`, hex.EncodeToString([]byte(val))), nil
		}
		return json.Marshal(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, '}'), nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}
		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, ']'), nil
}

var _ Keyer = (*DefaultKeyer)(nil)
