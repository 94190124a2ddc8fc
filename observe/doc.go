// Package observe provides the observability primitives used across
// modeflow: an OpenTelemetry observer with pluggable exporters, structured
// loggers (JSON or zap, optionally rotated to a file), request and upstream
// metrics, and a middleware that instruments backend invocations.
//
// Fields whose keys appear in RedactedFields are never written in clear.
package observe
