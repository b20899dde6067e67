package metrics

import "github.com/prometheus/client_golang/prometheus"

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0}

// metrics variables
var (
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esn_agent_gateway_calls_total",
			Help: "Total number of agent gateway calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	AgentCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "esn_agent_gateway_call_duration_seconds",
			Help:    "Duration of agent gateway calls",
			Buckets: durationBuckets,
		},
		[]string{"operation"},
	)

	KeyVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esn_agent_key_verifications_total",
			Help: "Agent key verifications by outcome",
		},
		[]string{"outcome"},
	)

	CommandsEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esn_commands_enqueued_total",
			Help: "Commands added to the queue by type",
		},
		[]string{"type"},
	)

	CommandResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esn_command_results_total",
			Help: "Command results recorded by reported status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(AgentCalls)
	prometheus.MustRegister(AgentCallDuration)

	prometheus.MustRegister(KeyVerifications)

	prometheus.MustRegister(CommandsEnqueued)
	prometheus.MustRegister(CommandResults)
}
