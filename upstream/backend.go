package upstream

import (
	"context"

	"github.com/jonwraymond/modeflow/mode"
	"github.com/jonwraymond/modeflow/observe"
	"github.com/jonwraymond/modeflow/request"
)

// Access carries the mode-derived shaping of a call. The backend decides
// what to do with it.
type Access struct {
	Mode          mode.Mode          `json:"mode"`
	Configuration mode.Configuration `json:"configuration"`
	Augmentation  mode.Augmentation  `json:"augmentation"`
	ContextHash   string             `json:"contextHash,omitempty"`
}

// Call is one backend invocation.
type Call struct {
	Kind            request.Kind       `json:"kind"`
	Content         string             `json:"content"`
	ExperienceLevel request.Experience `json:"experienceLevel"`
	Access          Access             `json:"access"`
}

// Backend is the AI-completion collaborator.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: implementations must honor cancellation and deadlines.
// - Errors: failures should be *Error so callers can classify them.
type Backend interface {
	Invoke(ctx context.Context, call Call) (string, error)
}

// Func adapts a function to Backend.
type Func func(ctx context.Context, call Call) (string, error)

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, call Call) (string, error) {
	return f(ctx, call)
}

type instrumented struct {
	next Backend
	mw   *observe.Middleware
}

// Instrument wraps b so every call is traced, measured, and logged by mw.
// A nil mw returns b unchanged.
func Instrument(b Backend, mw *observe.Middleware) Backend {
	if mw == nil {
		return b
	}
	return &instrumented{next: b, mw: mw}
}

func (i *instrumented) Invoke(ctx context.Context, call Call) (string, error) {
	invoke := i.mw.Wrap(func(ctx context.Context, _ observe.CallMeta) (string, error) {
		return i.next.Invoke(ctx, call)
	})
	return invoke(ctx, observe.CallMeta{
		Operation: observe.OpUpstream,
		Mode:      call.Access.Mode.String(),
		Kind:      string(call.Kind),
	})
}
