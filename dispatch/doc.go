// Package dispatch routes writing-assistant requests by operating mode.
//
// Process validates its input, serves repeats from an LRU cache with TTL
// expiry, coalesces identical in-flight requests onto one backend call, and
// shapes the answer by mode:
//
//   - Manual stays silent unless the writer explicitly asked, and then
//     returns content that needs approval.
//   - Hybrid returns content with contextual suggestions, pending approval.
//   - FullyAuto returns content with enhancements already applied.
//
// Every request outcome is recorded by a performance monitor and reported to
// a telemetry sink. The dispatcher never retries; retry policy belongs to
// the upstream backend.
package dispatch
