package monitor

import (
	"fmt"
	"time"

	"github.com/jonwraymond/modeflow/health"
	"github.com/jonwraymond/modeflow/mode"
)

// Report is a point-in-time view of request performance. Times are in
// milliseconds and rates in percent.
type Report struct {
	AverageResponseTime   float64               `json:"averageResponseTime"`
	CacheHitRate          float64               `json:"cacheHitRate"`
	SlowRequestPercentage float64               `json:"slowRequestPercentage"`
	TotalRequests         int64                 `json:"totalRequests"`
	CacheHits             int64                 `json:"cacheHits"`
	CacheMisses           int64                 `json:"cacheMisses"`
	FailedRequests        int64                 `json:"failedRequests"`
	SlowRequests          int64                 `json:"slowRequests"`
	MemoryUsageEstimate   uint64                `json:"memoryUsageEstimate"`
	PerModeAverages       map[mode.Mode]float64 `json:"perModeAverages"`
	ModeTargetsMet        map[mode.Mode]bool    `json:"modeTargetsMet"`
	Recommendations       []string              `json:"recommendations"`
	GeneratedAt           time.Time             `json:"generatedAt"`
}

// FailureRate returns failed requests as a percentage of all requests.
func (r Report) FailureRate() float64 {
	return percent(r.FailedRequests, r.TotalRequests)
}

// HealthStatus is a Report with a verdict.
type HealthStatus struct {
	Status  health.Status `json:"status"`
	Reasons []string      `json:"reasons,omitempty"`
	Report
}

// Recommendation thresholds.
const (
	lowHitRatePct      = 40.0
	highAverageMs      = 800.0
	highSlowPct        = 10.0
	highFailurePct     = 5.0
	degradedAverageMs  = 2000.0
	unhealthyAverageMs = 5000.0
	degradedHitRatePct = 30.0
	minHealthSample    = 10
)

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func recommendations(r Report, cfg Config) []string {
	recs := []string{}
	if r.CacheHits+r.CacheMisses > 0 && r.CacheHitRate < lowHitRatePct {
		recs = append(recs, fmt.Sprintf("cache hit rate %.1f%% is below %.0f%%: consider a larger cache or a longer TTL", r.CacheHitRate, lowHitRatePct))
	}
	if r.AverageResponseTime > highAverageMs {
		recs = append(recs, fmt.Sprintf("average response time %.0fms exceeds %.0fms: optimize the upstream call", r.AverageResponseTime, highAverageMs))
	}
	if r.MemoryUsageEstimate > cfg.MemoryCeiling {
		recs = append(recs, fmt.Sprintf("memory usage %d MiB exceeds the %d MiB ceiling: reduce the cache size", r.MemoryUsageEstimate>>20, cfg.MemoryCeiling>>20))
	}
	if r.SlowRequestPercentage > highSlowPct {
		recs = append(recs, fmt.Sprintf("%.1f%% of requests are slower than %s: investigate slow requests", r.SlowRequestPercentage, cfg.SlowThreshold))
	}
	if r.FailureRate() > highFailurePct {
		recs = append(recs, fmt.Sprintf("failure rate %.1f%% exceeds %.0f%%: check upstream health", r.FailureRate(), highFailurePct))
	}
	for _, m := range mode.All {
		if met, ok := r.ModeTargetsMet[m]; ok && !met {
			recs = append(recs, fmt.Sprintf("%s mode averages %.0fms against a %s target", m, r.PerModeAverages[m], cfg.Targets[m]))
		}
	}
	return recs
}

func assess(r Report) HealthStatus {
	hs := HealthStatus{Status: health.StatusHealthy, Report: r}

	if r.AverageResponseTime > unhealthyAverageMs {
		hs.Status = health.StatusUnhealthy
		hs.Reasons = append(hs.Reasons, fmt.Sprintf("average response time %.0fms exceeds %.0fms", r.AverageResponseTime, unhealthyAverageMs))
		return hs
	}

	degraded := 0
	if r.AverageResponseTime > degradedAverageMs {
		degraded++
		hs.Reasons = append(hs.Reasons, fmt.Sprintf("average response time %.0fms exceeds %.0fms", r.AverageResponseTime, degradedAverageMs))
	}
	if r.TotalRequests >= minHealthSample && r.CacheHitRate < degradedHitRatePct {
		degraded++
		hs.Reasons = append(hs.Reasons, fmt.Sprintf("cache hit rate %.1f%% is below %.0f%%", r.CacheHitRate, degradedHitRatePct))
	}

	switch degraded {
	case 0:
	case 1:
		hs.Status = health.StatusDegraded
	default:
		hs.Status = health.StatusUnhealthy
	}
	return hs
}
