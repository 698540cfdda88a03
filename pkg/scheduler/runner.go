package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/miesc-dev/miesc/pkg/aocerrors"
	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/masking"
	"github.com/miesc-dev/miesc/pkg/tool"
)

// Runner executes a single Adapter within a deadline and cooperative
// cancellation window (spec.md §4.5), the adapter-level analogue of the
// teacher's worker pollAndProcess: build a bounded context, run the unit of
// work, synthesize a terminal outcome even when the work itself never
// returns a clean result.
type Runner struct {
	GracePeriod time.Duration
	Logger      *slog.Logger
	Masker      *masking.Service // optional; nil disables masking
	Tracer      trace.Tracer     // optional; nil disables span creation
}

// NewRunner builds a Runner with the given grace period, defaulting to
// DefaultCancelGracePeriod.
func NewRunner(gracePeriod time.Duration, logger *slog.Logger) *Runner {
	if gracePeriod <= 0 {
		gracePeriod = DefaultCancelGracePeriod
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{GracePeriod: gracePeriod, Logger: logger}
}

// Run executes a against req under deadline, returning the adapter's raw
// findings normalized through a, and a ToolOutcome classifying how the run
// ended. Run never panics the caller: adapter errors are converted into
// outcomes, not propagated.
func (r *Runner) Run(ctx context.Context, a tool.Adapter, req tool.AnalyzeRequest, deadline time.Duration) ([]finding.Finding, ToolResult) {
	meta := a.Metadata()
	result := ToolResult{ToolID: meta.ID, Layer: meta.Layer, StartedAt: time.Now()}

	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var span trace.Span
	if r.Tracer != nil {
		runCtx, span = r.Tracer.Start(runCtx, "tool.analyze", trace.WithAttributes(
			attribute.String("tool_id", meta.ID),
			attribute.Int("layer", meta.Layer),
		))
		defer func() {
			span.SetAttributes(attribute.String("outcome", string(result.Outcome)))
			if result.Err != nil {
				span.RecordError(result.Err)
			}
			span.End()
		}()
	}

	type runOutcome struct {
		res tool.AnalyzeResult
		err error
	}
	done := make(chan runOutcome, 1)
	go func() {
		res, err := a.Analyze(runCtx, req)
		done <- runOutcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		result.EndedAt = time.Now()
		return r.finish(a, out.res, out.err, &result)

	case <-runCtx.Done():
		// Deadline hit (or parent ctx cancelled). Give the adapter
		// GracePeriod to notice ctx.Done() and return before declaring it
		// unresponsive — mirrors the teacher's timeout/cancellation result
		// synthesis in pollAndProcess.
		select {
		case out := <-done:
			result.EndedAt = time.Now()
			return r.finish(a, out.res, out.err, &result)
		case <-time.After(r.GracePeriod):
			result.EndedAt = time.Now()
			if errors.Is(ctx.Err(), context.Canceled) {
				result.Outcome = OutcomeCancelled
				result.Err = aocerrors.New(aocerrors.KindAuditCancelled, meta.ID+".Run", ctx.Err())
			} else {
				result.Outcome = OutcomeTimedOut
				result.Err = aocerrors.New(aocerrors.KindToolTimeout, meta.ID+".Run", runCtx.Err())
			}
			r.Logger.Warn("tool did not respond within cancellation grace period",
				"tool_id", meta.ID, "grace_period", r.GracePeriod)
			return nil, result
		}
	}
}

func (r *Runner) finish(a tool.Adapter, res tool.AnalyzeResult, err error, result *ToolResult) ([]finding.Finding, ToolResult) {
	if err != nil {
		kind := aocerrors.KindOf(err)
		switch kind {
		case aocerrors.KindToolTimeout:
			result.Outcome = OutcomeTimedOut
		case aocerrors.KindToolFailedTransient:
			result.Outcome = OutcomeFailedTransient
		default:
			result.Outcome = OutcomeFailedPermanent
		}
		result.Err = err
		if r.Masker != nil && (res.Stdout != "" || res.Stderr != "") {
			r.Logger.Debug("tool failed", "tool_id", result.ToolID,
				"stdout", r.Masker.MaskText(res.Stdout), "stderr", r.Masker.MaskText(res.Stderr))
		}
		return nil, *result
	}

	findings := make([]finding.Finding, 0, len(res.Raw))
	for _, raw := range res.Raw {
		f, nerr := a.Normalize(raw)
		if nerr != nil {
			r.Logger.Warn("dropping malformed finding", "tool_id", result.ToolID, "error", nerr)
			continue
		}
		if r.Masker != nil {
			f.RawPayload = r.Masker.MaskPayload(f.RawPayload)
		}
		findings = append(findings, f)
	}

	result.FindingsRaw = len(findings)
	if res.PartialTimeout {
		result.Outcome = OutcomeTimedOut
	} else {
		result.Outcome = OutcomeCompleted
	}
	return findings, *result
}
