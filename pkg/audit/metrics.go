package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Coordinator-level Prometheus counters, registered on the default
// registerer so pkg/api's GET /metrics (promhttp.Handler()) exposes them
// without pkg/audit importing pkg/api. Grounded on the pack's convention of
// one promauto collector per component file (see e.g. the teacher corpus's
// patrol_metrics.go equivalent).
var (
	auditsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "miesc",
		Subsystem: "audit",
		Name:      "started_total",
		Help:      "Total audits started, by profile",
	}, []string{"profile"})

	auditsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "miesc",
		Subsystem: "audit",
		Name:      "completed_total",
		Help:      "Total audits reaching a terminal state, by final state",
	}, []string{"state"})

	auditsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "miesc",
		Subsystem: "audit",
		Name:      "active",
		Help:      "Audits currently not in a terminal state",
	})

	findingsCorrelated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "miesc",
		Subsystem: "finding",
		Name:      "correlated_total",
		Help:      "Total correlated findings emitted, by final severity",
	}, []string{"severity"})
)
