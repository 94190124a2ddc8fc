// Package health provides health checking primitives: a Status scale,
// Checker results, a parallel Aggregator, and HTTP handlers for liveness,
// readiness, and detailed reports.
//
// The dispatcher's performance monitor is exposed as a Checker, so its
// latency and cache-effectiveness verdicts surface on /readyz and /health:
//
//	agg := health.NewAggregator(health.AggregatorConfig{})
//	agg.Register(dispatcher.Checker())
//
//	r := chi.NewRouter()
//	health.Mount(r, agg)
package health
