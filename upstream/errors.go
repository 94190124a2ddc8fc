package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonwraymond/modeflow/resilience"
)

// ErrUpstream matches every *Error via errors.Is.
var ErrUpstream = errors.New("upstream: call failed")

// ErrMissingEndpoint indicates HTTPConfig.Endpoint is empty.
var ErrMissingEndpoint = errors.New("upstream: endpoint is required")

// ErrMissingSigningKey indicates a token signer without a key.
var ErrMissingSigningKey = errors.New("upstream: signing key is required")

// Error is a failed or timed-out backend call.
type Error struct {
	Op         string
	StatusCode int // zero when no HTTP response was received
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("upstream: ")
	b.WriteString(e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both ErrUpstream and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}

// Retryable reports whether another attempt might succeed: 5xx and 429
// responses, and transport failures other than cancellation or an open
// circuit.
func (e *Error) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return true
	case e.StatusCode != 0:
		return false
	}
	return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, resilience.ErrCircuitOpen)
}

// Timeout reports whether the call ran out of time.
func (e *Error) Timeout() bool {
	return errors.Is(e.Err, resilience.ErrTimeout) || errors.Is(e.Err, context.DeadlineExceeded)
}

// Wrap returns err as an *Error. An existing *Error is returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *Error
	if errors.As(err, &ue) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	return errors.Is(err, resilience.ErrTimeout)
}

// IsTimeout reports whether err is an upstream timeout.
func IsTimeout(err error) bool {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Timeout()
	}
	return errors.Is(err, resilience.ErrTimeout)
}
