package mode

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned when a mode name cannot be parsed.
var ErrUnknownMode = errors.New("mode: unknown mode")

// Mode selects how proactively the dispatcher acts and how much approval it
// requires before presenting output. The set is closed.
type Mode int

const (
	// Manual never acts without an explicit user instruction.
	Manual Mode = iota + 1
	// Hybrid answers and offers contextual suggestions for approval.
	Hybrid
	// FullyAuto answers and applies proactive enhancements without approval.
	FullyAuto
)

// All lists every mode in declaration order.
var All = []Mode{Manual, Hybrid, FullyAuto}

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case Manual:
		return "manual"
	case Hybrid:
		return "hybrid"
	case FullyAuto:
		return "fully-auto"
	default:
		return "unknown"
	}
}

// Valid reports whether m is one of the closed set of modes.
func (m Mode) Valid() bool {
	return m >= Manual && m <= FullyAuto
}

// Parse parses a mode name. Matching is case-insensitive and accepts the
// underscore and camel-case spellings of fully-auto.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manual":
		return Manual, nil
	case "hybrid":
		return Hybrid, nil
	case "fully-auto", "fully_auto", "fullyauto", "auto":
		return FullyAuto, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

var _ fmt.Stringer = Mode(0)
