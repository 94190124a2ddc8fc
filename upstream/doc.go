// Package upstream is the port to the AI-completion backend.
//
// Backend is the single operation the dispatcher needs. Func adapts a plain
// function, Instrument adds tracing and metrics, and HTTPClient calls a JSON
// completion endpoint with a signed service token. Retry, circuit breaking,
// concurrency bounds, and rate limits live here rather than in the
// dispatcher, which never retries.
//
// Every failure is an *Error, which matches ErrUpstream and reports whether
// it is retryable.
package upstream
