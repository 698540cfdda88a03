package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/miesc-dev/miesc/pkg/aocerrors"
	"github.com/miesc-dev/miesc/pkg/bus"
	"github.com/miesc-dev/miesc/pkg/correlation"
	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/masking"
	"github.com/miesc-dev/miesc/pkg/scheduler"
	"github.com/miesc-dev/miesc/pkg/tool"
)

// record is the coordinator's private bookkeeping for one audit, holding
// both the caller-visible Report and the machinery to cancel it.
type record struct {
	mu     sync.Mutex
	report Report
	cancel context.CancelFunc
}

// Coordinator drives every audit's lifecycle (spec.md §4.7): it resolves a
// profile into a Plan, hands the plan to a Scheduler, feeds the resulting
// findings through a correlation.Engine, and publishes every state
// transition on the bus. Generalized from the teacher's SessionService,
// which plays the analogous role for one alert-processing session, minus
// the ent-backed persistence (see DESIGN.md's dropped-deps notes) — state
// lives in memory here and is mirrored to pkg/store when a store is wired.
type Coordinator struct {
	registry *tool.Registry
	bus      *bus.Bus
	logger   *slog.Logger

	fpPriors   finding.FPPriorTable
	compliance finding.ComplianceTable

	store    Store
	recorder EventRecorder
	masker   *masking.Service
	notifier Notifier
	tracer   trace.Tracer
	profiles map[string]scheduler.Config

	correlationRequired         []string
	correlationSingleWitnessCap float64

	mu      sync.RWMutex
	records map[string]*record
}

// New builds a Coordinator over registry, publishing lifecycle events to b.
// fpPriors and compliance feed the per-audit correlation.Engine; either may
// be nil.
func New(registry *tool.Registry, b *bus.Bus, fpPriors finding.FPPriorTable, compliance finding.ComplianceTable, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		registry:   registry,
		bus:        b,
		fpPriors:   fpPriors,
		compliance: compliance,
		logger:     logger,
		records:    make(map[string]*record),
	}
}

// StartAudit validates req, resolves it into a Plan, and launches the audit
// asynchronously, returning its audit_id immediately (spec.md §6.1
// start_audit is fire-and-forget; callers poll get_status or subscribe on
// the bus).
func (c *Coordinator) StartAudit(ctx context.Context, req StartRequest) (string, error) {
	if req.TargetPath == "" {
		return "", aocerrors.Wrapf(aocerrors.KindInputInvalid, "audit.StartAudit", "target_path is required")
	}
	if req.Profile == "" {
		req.Profile = ProfileStandard
	}
	if !ValidProfile(req.Profile) {
		return "", aocerrors.Wrapf(aocerrors.KindInputInvalid, "audit.StartAudit", "unknown profile %q", req.Profile)
	}
	if req.Profile == ProfileCustom && len(req.ToolIDs) == 0 {
		return "", aocerrors.Wrapf(aocerrors.KindInputInvalid, "audit.StartAudit", "custom profile requires tool_ids")
	}

	auditID := ulid.Make().String()
	plan := Plan{
		AuditID:    auditID,
		TargetPath: req.TargetPath,
		Profile:    req.Profile,
		ToolIDs:    resolveToolIDs(c.registry, req),
		Config:     c.resolveConfig(req.Profile),
		CreatedAt:  time.Now(),
	}

	runCtx, cancel := context.WithCancel(context.Background())
	rec := &record{
		report: Report{AuditID: auditID, State: StateCreated, Plan: plan, StartedAt: plan.CreatedAt},
		cancel: cancel,
	}

	c.mu.Lock()
	c.records[auditID] = rec
	c.mu.Unlock()

	auditsStarted.WithLabelValues(string(req.Profile)).Inc()
	auditsActive.Inc()

	if c.store != nil {
		if err := c.store.WritePlan(auditID, plan); err != nil {
			c.logger.Error("store: write plan", "audit_id", auditID, "err", err)
		}
	}
	if c.recorder != nil {
		go func() {
			if err := c.recorder.RecordEvents(runCtx, c.bus, auditID); err != nil {
				c.logger.Error("store: record events", "audit_id", auditID, "err", err)
			}
		}()
	}

	c.transition(rec, StatePlanned, "")
	go c.run(runCtx, rec, req)

	return auditID, nil
}

func (c *Coordinator) run(ctx context.Context, rec *record, req StartRequest) {
	c.transition(rec, StateRunning, "")

	sched := scheduler.New(c.registry, c.bus, rec.report.Plan.Config, c.logger).
		WithMasker(c.masker).WithTracer(c.tracer)
	findings, schedResult := sched.Run(ctx, rec.report.Plan.AuditID, tool.AnalyzeRequest{
		AuditID:    rec.report.Plan.AuditID,
		TargetPath: rec.report.Plan.TargetPath,
		Profile:    rec.report.Plan.Profile,
		Options:    req.Options,
	})

	if schedResult.GlobalCancelled {
		c.transition(rec, StateCancelled, "")
		rec.mu.Lock()
		rec.report.ToolResults = schedResult.ToolResults
		rec.report.EndedAt = time.Now()
		rec.mu.Unlock()
		return
	}

	c.transition(rec, StateCorrelating, "")

	_, correlationSpan := startSpan(ctx, c.tracer, "audit.correlate",
		attribute.String("audit_id", rec.report.Plan.AuditID),
		attribute.Int("findings_raw", len(findings)),
	)

	analyzer := correlation.NewFileSourceAnalyzer(rec.report.Plan.TargetPath)
	engine := correlation.NewEngine(c.fpPriors, c.compliance, analyzer).
		WithCrossValidationRequired(c.correlationRequired).
		WithSingleWitnessCap(c.correlationSingleWitnessCap)
	for _, f := range findings {
		engine.Ingest(f)
		if c.store != nil {
			if err := c.store.WriteFinding(rec.report.Plan.AuditID, f.SourceTool, f); err != nil {
				c.logger.Error("store: write finding", "audit_id", rec.report.Plan.AuditID, "tool_id", f.SourceTool, "err", err)
			}
		}
	}
	correlated := engine.Snapshot()
	for _, f := range correlated {
		findingsCorrelated.WithLabelValues(string(f.SeverityFinal)).Inc()
	}
	if c.store != nil {
		if err := c.store.WriteCorrelated(rec.report.Plan.AuditID, correlated); err != nil {
			c.logger.Error("store: write correlated", "audit_id", rec.report.Plan.AuditID, "err", err)
		}
	}
	endSpan(correlationSpan, attribute.Int("findings_correlated", len(correlated)))

	rec.mu.Lock()
	rec.report.ToolResults = schedResult.ToolResults
	rec.report.Findings = correlated
	rec.report.ComplianceHits = complianceUnion(correlated)
	rec.report.PartialTimeout = schedResult.PartialTimeout
	rec.report.EndedAt = time.Now()
	rec.mu.Unlock()

	c.transition(rec, StateCompleted, "")
}

// startSpan opens a span under tracer, or returns ctx unchanged and a nil
// span when tracer is nil, so callers can wire tracing unconditionally.
func startSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, nil
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan closes span with extra attrs, no-op when span is nil.
func endSpan(span trace.Span, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.SetAttributes(attrs...)
	span.End()
}

// transition moves rec to next, guarding against illegal edges (a
// programming error, logged rather than panicking so one bad audit doesn't
// take down the process) and publishing the lifecycle event on the bus.
func (c *Coordinator) transition(rec *record, next State, errMsg string) {
	rec.mu.Lock()
	from := rec.report.State
	if from != next && !CanTransition(from, next) {
		c.logger.Error("illegal audit state transition", "audit_id", rec.report.AuditID, "from", from, "to", next)
	}
	rec.report.State = next
	if errMsg != "" {
		rec.report.Error = errMsg
	}
	auditID := rec.report.AuditID
	var terminalSnapshot Report
	if next.Terminal() {
		terminalSnapshot = rec.report
	}
	rec.mu.Unlock()

	if next.Terminal() {
		auditsActive.Dec()
		auditsCompleted.WithLabelValues(string(next)).Inc()
		if c.store != nil {
			if err := c.store.WriteSummary(auditID, terminalSnapshot); err != nil {
				c.logger.Error("store: write summary", "audit_id", auditID, "err", err)
			}
		}
		if c.notifier != nil {
			go c.notifier.NotifyTerminal(context.Background(), terminalSnapshot)
		}
	}

	c.bus.Publish(auditID, "audit."+toTopic(next), map[string]any{"state": string(next)})
}

func toTopic(s State) string {
	switch s {
	case StatePlanned:
		return "planned"
	case StateRunning:
		return "running"
	case StateCorrelating:
		return "correlating"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "created"
	}
}

// GetStatus returns the current lifecycle state of auditID.
func (c *Coordinator) GetStatus(auditID string) (State, error) {
	rec, err := c.get(auditID)
	if err != nil {
		return "", err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.report.State, nil
}

// Cancel requests cancellation of a running audit. It is a no-op (not an
// error) on an audit that has already reached a terminal state.
func (c *Coordinator) Cancel(auditID string) error {
	rec, err := c.get(auditID)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	terminal := rec.report.State.Terminal()
	rec.mu.Unlock()
	if terminal {
		return nil
	}
	rec.cancel()
	return nil
}

// GetReport returns a snapshot of auditID's report, whatever its current
// state — callers can poll a running audit for partial progress, not only
// a completed one.
func (c *Coordinator) GetReport(auditID string) (Report, error) {
	rec, err := c.get(auditID)
	if err != nil {
		return Report{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.report, nil
}

// Stats returns the number of audits currently active (not yet terminal)
// and the number that have reached COMPLETED, for the server-wide status
// surface (spec.md §6.1 `status`).
func (c *Coordinator) Stats() (active, completed int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rec := range c.records {
		rec.mu.Lock()
		state := rec.report.State
		rec.mu.Unlock()
		switch {
		case state == StateCompleted:
			completed++
		case !state.Terminal():
			active++
		}
	}
	return active, completed
}

func (c *Coordinator) get(auditID string) (*record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[auditID]
	if !ok {
		return nil, aocerrors.New(aocerrors.KindInputInvalid, "audit.get", fmt.Errorf("unknown audit_id %q", auditID))
	}
	return rec, nil
}
