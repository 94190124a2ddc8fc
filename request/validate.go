package request

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonwraymond/modeflow/mode"
)

// MaxContentLength bounds request content, in runes.
const MaxContentLength = 50000

// ErrValidation is the sentinel wrapped by every ValidationError.
var ErrValidation = errors.New("request: validation failed")

// ValidationError reports which input was structurally invalid.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("request: invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ValidRequest reports whether req has a known kind and bounded, non-empty content.
func ValidRequest(req Request) bool {
	return checkRequest(req) == nil
}

// ValidMode reports whether m is in the closed set of modes.
func ValidMode(m mode.Mode) bool {
	return m.Valid()
}

// ValidContext reports whether wctx carries the minimum required fields.
func ValidContext(wctx WritingContext) bool {
	return checkContext(wctx) == nil
}

// Validate checks all three inputs and returns the first violation as a
// *ValidationError, or nil.
func Validate(req Request, wctx WritingContext, m mode.Mode) error {
	if err := checkRequest(req); err != nil {
		return err
	}
	if !ValidMode(m) {
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %d", int(m))}
	}
	return checkContext(wctx)
}

func checkRequest(req Request) *ValidationError {
	if !req.Kind.Known() {
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", req.Kind)}
	}
	if strings.TrimSpace(req.Content) == "" {
		return &ValidationError{Field: "content", Reason: "empty"}
	}
	if !utf8.ValidString(req.Content) {
		return &ValidationError{Field: "content", Reason: "not valid UTF-8"}
	}
	// Byte length is an upper bound on rune count; skip the count when it fits.
	if len(req.Content) > MaxContentLength && utf8.RuneCountInString(req.Content) > MaxContentLength {
		return &ValidationError{Field: "content", Reason: fmt.Sprintf("exceeds %d characters", MaxContentLength)}
	}
	if req.EnhancementLevel != "" && !knownEnhancementLevels[req.EnhancementLevel] {
		return &ValidationError{Field: "enhancementLevel", Reason: fmt.Sprintf("unknown level %q", req.EnhancementLevel)}
	}
	return nil
}

func checkContext(wctx WritingContext) error {
	if !utf8.ValidString(wctx.DocumentType) || !utf8.ValidString(wctx.WritingPhase) {
		return &ValidationError{Field: "context", Reason: "not valid UTF-8"}
	}
	for _, g := range wctx.UserGoals {
		if !utf8.ValidString(g) {
			return &ValidationError{Field: "context.userGoals", Reason: "not valid UTF-8"}
		}
	}
	if strings.TrimSpace(wctx.DocumentType) == "" {
		return &ValidationError{Field: "context.documentType", Reason: "required"}
	}
	if strings.TrimSpace(wctx.WritingPhase) == "" {
		return &ValidationError{Field: "context.writingPhase", Reason: "required"}
	}
	if _, err := ParseExperience(string(wctx.UserExperience)); err != nil {
		return &ValidationError{Field: "context.userExperience", Reason: fmt.Sprintf("unknown level %q", wctx.UserExperience)}
	}
	return nil
}
