// Package monitor keeps the rolling performance statistics of a
// dispatcher: an average over the most recent request durations, per-mode
// averages checked against latency targets, cache hit rate, slow and failed
// request counts, and a periodically sampled heap size.
//
// Report derives threshold-based recommendations; Health turns the same
// numbers into a healthy, degraded, or unhealthy verdict.
package monitor
