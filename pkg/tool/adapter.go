// Package tool defines the Adapter Protocol (spec.md §4.2): the interface
// every external security tool implements to plug into the orchestration
// core, independent of the tool's underlying transport (CLI subprocess,
// HTTP sidecar, gRPC service, or in-process library).
package tool

import (
	"context"

	"github.com/miesc-dev/miesc/pkg/finding"
)

// AnalyzeRequest is the input handed to an Adapter for a single audit.
type AnalyzeRequest struct {
	AuditID    string
	TargetPath string
	Profile    string
	Options    map[string]string
}

// UpstreamFindingsOption is the AnalyzeRequest.Options key the scheduler
// populates with the JSON-encoded findings produced by every prior layer
// before running the highest-numbered (ensemble) layer (spec.md §2's layer
// 9: "combines signals from all other layers"). Adapters for earlier
// layers never see this key set.
const UpstreamFindingsOption = "upstream_findings_json"

// AnalyzeResult is an Adapter's raw output before normalization.
type AnalyzeResult struct {
	Raw            []finding.RawFinding
	PartialTimeout bool
	Stdout         string
	Stderr         string
}

// Adapter is the contract every analyzer plugs into the core through
// (spec.md §4.2). Implementations must be safe for concurrent use across
// audits; the scheduler may run the same Adapter for two different audits
// at once unless Reentrant() returns false.
type Adapter interface {
	// Metadata describes the tool: id, layer, category, and whether it is
	// optional (its absence never fails an audit, per spec.md §4.3).
	Metadata() finding.Tool

	// Availability probes whether the tool can run right now. Called by the
	// registry at startup and on demand (doctor / get_availability).
	Availability(ctx context.Context) finding.Availability

	// Analyze runs the tool against a target and returns its native,
	// un-normalized findings. ctx carries the per-tool deadline; Analyze
	// must return promptly after ctx is cancelled (spec.md §4.5's
	// cooperative-cancellation grace period is enforced by the caller, not
	// the adapter).
	Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error)

	// Normalize converts one native finding into the canonical Finding
	// record (spec.md §4.1). The registry supplies the severity/taxonomy
	// tables; the adapter only knows how to read its own native shape.
	Normalize(raw finding.RawFinding) (finding.Finding, error)
}

// Reentrant reports whether an Adapter tolerates concurrent Analyze calls
// across different audits. Adapters that don't implement it are assumed
// reentrant (the common case: stateless CLI wrappers).
type Reentrant interface {
	Reentrant() bool
}

// Retryable reports whether a failed Analyze call may be retried by the
// scheduler after a transient failure (spec.md §5 retry policy). Adapters
// that don't implement it are assumed non-retryable.
type Retryable interface {
	Retryable() bool
}

// IsReentrant returns a's reentrancy, defaulting to true.
func IsReentrant(a Adapter) bool {
	if r, ok := a.(Reentrant); ok {
		return r.Reentrant()
	}
	return true
}

// IsRetryable returns a's retry eligibility, defaulting to false.
func IsRetryable(a Adapter) bool {
	if r, ok := a.(Retryable); ok {
		return r.Retryable()
	}
	return false
}
