// Package services – Prometheus instrumentation
//
// Domain-level collectors for the matching engine. HTTP-level metrics live
// in the middleware package; these cover the ranking calls and the sweep so
// cost and match volume can be tracked independently of transport.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// rankingCalls counts outbound ranking calls by path (interactive|sweep)
	// and outcome (ok|failed).
	rankingCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_calls_total",
			Help: "Total number of reasoning-model ranking calls.",
		},
		[]string{"path", "outcome"},
	)

	// matchesCreated counts matches materialized by the sweep.
	matchesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_matches_created_total",
			Help: "Total number of matches created by the auto-match sweep.",
		},
	)

	// sweepDuration records the wall time of complete sweep runs.
	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Duration of auto-match sweep runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s .. ~4m
		},
	)

	// sweepDenials counts sweep invocations denied by the rate limiter.
	sweepDenials = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_rate_limited_total",
			Help: "Total number of sweep invocations denied by the rate limiter.",
		},
	)
)

func init() {
	prometheus.MustRegister(rankingCalls, matchesCreated, sweepDuration, sweepDenials)
}
