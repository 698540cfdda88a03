package audit

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/miesc-dev/miesc/pkg/bus"
	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/masking"
	"github.com/miesc-dev/miesc/pkg/scheduler"
)

// Store is the persistence surface a Coordinator writes through once one
// is wired via WithStore (spec.md §6.6's per-audit file layout).
// pkg/store.FileWriter satisfies this; nil disables persistence entirely.
type Store interface {
	WritePlan(auditID string, plan any) error
	WriteFinding(auditID, toolID string, f finding.Finding) error
	WriteCorrelated(auditID string, findings []finding.CorrelatedFinding) error
	WriteSummary(auditID string, report any) error
}

// EventRecorder persists the full bus event stream for one audit, for
// replay across process restarts. Both pkg/store.FileWriter (events.ndjson)
// and pkg/store.PostgresSink (bus_events table) satisfy this.
type EventRecorder interface {
	RecordEvents(ctx context.Context, b *bus.Bus, auditID string) error
}

// WithStore wires s as the coordinator's persistence sink. Pass nil to
// disable (the default).
func (c *Coordinator) WithStore(s Store) *Coordinator {
	c.store = s
	return c
}

// WithEventRecorder wires r to receive every bus event published for each
// audit this coordinator runs. Pass nil to disable (the default).
func (c *Coordinator) WithEventRecorder(r EventRecorder) *Coordinator {
	c.recorder = r
	return c
}

// WithMasker wires m into every scheduler this coordinator constructs, so
// adapter output is scrubbed before it reaches findings, the bus, or a
// store. Pass nil to disable (the default).
func (c *Coordinator) WithMasker(m *masking.Service) *Coordinator {
	c.masker = m
	return c
}

// Notifier receives a terminal audit's full report for out-of-band
// delivery (e.g. Slack). pkg/notify.Sink satisfies this.
type Notifier interface {
	NotifyTerminal(ctx context.Context, report Report)
}

// WithNotifier wires n to receive every audit this coordinator completes,
// fails, or cancels. Pass nil to disable (the default).
func (c *Coordinator) WithNotifier(n Notifier) *Coordinator {
	c.notifier = n
	return c
}

// WithTracer wires t into every scheduler this coordinator constructs and
// around the correlation stage, so an audit's spans cover both adapter runs
// and correlation as one trace. Pass nil to disable (the default).
func (c *Coordinator) WithTracer(t trace.Tracer) *Coordinator {
	c.tracer = t
	return c
}

// WithProfiles overrides the coordinator's profile table — cmd/miesc
// builds profiles from pkg/config.Config.SchedulerConfigs() (defaults
// layered with miesc.yaml) and wires the result here, so pkg/audit itself
// never imports pkg/config. A profile name absent from profiles falls
// back to the package's hardcoded baseline in profiles.go. Pass nil to use
// the hardcoded baseline for every profile (the default).
func (c *Coordinator) WithProfiles(profiles map[string]scheduler.Config) *Coordinator {
	c.profiles = profiles
	return c
}

// WithCorrelationConfig overrides the correlation.Engine's
// CROSS_VALIDATION_REQUIRED set and single-witness confidence cap that every
// audit this coordinator runs builds its engine with (spec.md §6.5's
// `correlation.cross_validation_required` / `correlation.
// single_tool_max_confidence`). singleWitnessCap <= 0 keeps the engine
// default (0.60).
func (c *Coordinator) WithCorrelationConfig(crossValidationRequired []string, singleWitnessCap float64) *Coordinator {
	c.correlationRequired = crossValidationRequired
	c.correlationSingleWitnessCap = singleWitnessCap
	return c
}
