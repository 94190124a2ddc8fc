// Package httpapi serves a dispatcher over HTTP.
//
// Routes:
//
//	POST /v1/process             process one request
//	GET  /v1/performance         performance report
//	GET  /v1/performance/health  monitor health, 503 when unhealthy
//	GET  /v1/cache               cache counters
//	GET  /v1/modes               every mode with its configuration
//	GET  /v1/modes/{mode}        one mode
//
// Health endpoints and /metrics are mounted when configured. Errors are
// returned as ErrorResponse with a stable code: invalid_request (400),
// rate_limited (429), upstream_error (502), shutting_down or
// upstream_unavailable (503) and upstream_timeout (504).
package httpapi
