// Package request defines the inputs and outputs of the dispatcher: the
// Request, the WritingContext it belongs to, the tagged Response variant,
// and the structural validation applied before any work begins.
//
// Validation predicates never panic and never allocate errors for the common
// invalid case; Validate returns a *ValidationError that unwraps to
// ErrValidation so callers can fail fast with errors.Is.
package request
