package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/miesc-dev/miesc/pkg/bus"
	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/masking"
	"github.com/miesc-dev/miesc/pkg/tool"
)

// Scheduler runs every registered, available tool across its layers
// according to Config, the Layered Scheduler of spec.md §4.5. It is the
// generalization of the teacher's WorkerPool: instead of many workers
// pulling arbitrary queued sessions, the scheduler drives one fixed DAG of
// waves (layers) per audit, each wave bounded by its own concurrency cap.
type Scheduler struct {
	registry *tool.Registry
	bus      *bus.Bus
	runner   *Runner
	cfg      Config
	logger   *slog.Logger
}

// New builds a Scheduler over registry, publishing lifecycle events to b.
func New(registry *tool.Registry, b *bus.Bus, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		registry: registry,
		bus:      b,
		runner:   NewRunner(cfg.graceSeconds(), logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// WithMasker wires m into the scheduler's Runner, so every finding's
// RawPayload and any logged stdout/stderr are scrubbed before they leave
// the adapter boundary. Pass nil to disable (the default).
func (s *Scheduler) WithMasker(m *masking.Service) *Scheduler {
	s.runner.Masker = m
	return s
}

// WithTracer wires t into the scheduler's Runner, so every tool run opens a
// "tool.analyze" span. Pass nil to disable (the default).
func (s *Scheduler) WithTracer(t trace.Tracer) *Scheduler {
	s.runner.Tracer = t
	return s
}

// Run executes every layer's wave against req for auditID and returns every
// normalized Finding produced, alongside the per-tool outcome report.
func (s *Scheduler) Run(ctx context.Context, auditID string, req tool.AnalyzeRequest) ([]finding.Finding, Result) {
	var deadlineCtx context.Context
	var cancel context.CancelFunc
	if s.cfg.GlobalDeadline > 0 {
		deadlineCtx, cancel = context.WithTimeout(ctx, s.cfg.GlobalDeadline)
	} else {
		deadlineCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	start := time.Now()
	layers := s.layersInOrder()

	var (
		mu       sync.Mutex
		findings []finding.Finding
		results  []ToolResult
	)

	record := func(fs []finding.Finding, r ToolResult) {
		mu.Lock()
		findings = append(findings, fs...)
		results = append(results, r)
		mu.Unlock()
		toolRuns.WithLabelValues(r.ToolID, string(r.Outcome)).Inc()
	}

	var ensembleLayer int
	if len(layers) > 0 {
		ensembleLayer = layers[len(layers)-1]
	}

	// requestFor returns req as-is for every layer except the ensemble
	// layer, which receives every upstream finding accumulated so far
	// JSON-encoded under tool.UpstreamFindingsOption (spec.md §2's layer 9:
	// "combines signals from all other layers"). By the time this runs —
	// after the barrier in pipelined mode, or in layer order in sequential
	// mode — every non-ensemble layer has already recorded its findings.
	requestFor := func(layer int) tool.AnalyzeRequest {
		if layer != ensembleLayer {
			return req
		}
		mu.Lock()
		snapshot := make([]finding.Finding, len(findings))
		copy(snapshot, findings)
		mu.Unlock()

		encoded, err := json.Marshal(snapshot)
		if err != nil {
			s.logger.Error("failed to encode upstream findings for ensemble layer", "error", err)
			return req
		}
		withUpstream := req
		withUpstream.Options = make(map[string]string, len(req.Options)+1)
		for k, v := range req.Options {
			withUpstream.Options[k] = v
		}
		withUpstream.Options[tool.UpstreamFindingsOption] = string(encoded)
		return withUpstream
	}

	runLayer := func(layer int) {
		s.runLayerWave(deadlineCtx, auditID, requestFor(layer), layer, start, record)
	}

	if s.cfg.CrossLayerMode == ModePipelined && len(layers) > 0 {
		var wg sync.WaitGroup
		for _, layer := range layers[:len(layers)-1] {
			wg.Add(1)
			go func(l int) {
				defer wg.Done()
				runLayer(l)
			}(layer)
		}
		wg.Wait()
		runLayer(ensembleLayer)
	} else {
		for _, layer := range layers {
			runLayer(layer)
		}
	}

	overall := Result{
		ToolResults:     results,
		PartialTimeout:  deadlineCtx.Err() != nil,
		GlobalCancelled: ctx.Err() != nil,
	}
	return findings, overall
}

func (s *Scheduler) layersInOrder() []int {
	seen := make(map[int]bool)
	var layers []int
	for _, t := range s.registry.All() {
		if !seen[t.Layer] {
			seen[t.Layer] = true
			layers = append(layers, t.Layer)
		}
	}
	sort.Ints(layers)
	return layers
}

func (s *Scheduler) runLayerWave(ctx context.Context, auditID string, req tool.AnalyzeRequest, layer int, auditStart time.Time, record func([]finding.Finding, ToolResult)) {
	if ctx.Err() != nil {
		// Global deadline already exceeded; every remaining tool in this
		// wave is reported cancelled rather than silently dropped.
		for _, id := range s.registry.ByLayer(layer) {
			record(nil, ToolResult{ToolID: id, Layer: layer, Outcome: OutcomeCancelled, StartedAt: time.Now(), EndedAt: time.Now()})
		}
		return
	}

	ids := s.registry.ByLayer(layer)
	if len(ids) == 0 {
		return
	}

	availability := s.registry.AvailabilitySnapshot(ctx)
	sem := make(chan struct{}, s.cfg.maxParallel(layer))
	var wg sync.WaitGroup

	for _, id := range ids {
		a, err := s.registry.Get(id)
		if err != nil {
			continue
		}
		if availability[id] != finding.AvailabilityAvailable {
			record(nil, ToolResult{ToolID: id, Layer: layer, Outcome: OutcomeSkippedUnavail, StartedAt: time.Now(), EndedAt: time.Now()})
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(id string, a tool.Adapter) {
			defer wg.Done()
			defer func() { <-sem }()

			deadline := s.effectiveDeadline(id, auditStart)
			s.bus.Publish(auditID, "tool.started", map[string]any{"tool_id": id, "layer": layer})

			fs, res := s.runner.Run(ctx, a, req, deadline)
			record(fs, res)

			topic := "tool.finished"
			if res.Outcome != OutcomeCompleted {
				topic = "tool.failed"
			}
			s.bus.Publish(auditID, topic, map[string]any{
				"tool_id": id, "layer": layer, "outcome": string(res.Outcome), "findings": len(fs),
			})
		}(id, a)
	}
	wg.Wait()
}

// effectiveDeadline is the lesser of the tool's configured deadline and the
// time remaining under the global deadline (spec.md §4.5).
func (s *Scheduler) effectiveDeadline(toolID string, auditStart time.Time) time.Duration {
	perTool, hasPerTool := s.cfg.PerToolDeadlines[toolID]

	if s.cfg.GlobalDeadline <= 0 {
		if hasPerTool {
			return perTool
		}
		return DefaultToolDeadline
	}

	remaining := s.cfg.GlobalDeadline - time.Since(auditStart)
	if remaining < 0 {
		remaining = 0
	}
	if hasPerTool && perTool < remaining {
		return perTool
	}
	return remaining
}

// DefaultToolDeadline bounds a single tool when neither a per-tool deadline
// nor a global deadline is configured.
const DefaultToolDeadline = 10 * time.Minute
