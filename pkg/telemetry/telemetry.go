// Package telemetry exposes the engine's Prometheus counters: trades
// matched, fees collected, stuck-loop aborts, and execute failures.
// Counters only. No HTTP server lives here; cmd/matchengine wires
// these into its own /metrics endpoint.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	TradesMatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchengine_trades_matched_total",
			Help: "Matched trades emitted, by market.",
		},
		[]string{"quote_id", "base_id"},
	)

	FeesCollected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchengine_fees_collected_total",
			Help: "Fee shares collected per asset leg (quote|base).",
		},
		[]string{"quote_id", "base_id", "leg"},
	)

	MatchingLoopAborts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchengine_matching_loop_aborts_total",
			Help: "Executions that failed with matching_loop_stuck.",
		},
		[]string{"quote_id", "base_id"},
	)

	ExecuteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchengine_execute_failures_total",
			Help: "Execute calls returning false, by error kind.",
		},
		[]string{"quote_id", "base_id", "kind"},
	)
)

func init() {
	prometheus.MustRegister(TradesMatched, FeesCollected, MatchingLoopAborts, ExecuteFailures)
}
