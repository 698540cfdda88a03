package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// toolRuns counts every adapter invocation the scheduler completes, by
// outcome, on the default registerer so pkg/api's GET /metrics exposes it.
var toolRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "miesc",
	Subsystem: "tool",
	Name:      "runs_total",
	Help:      "Total tool adapter runs, by tool_id and outcome",
}, []string{"tool_id", "outcome"})
