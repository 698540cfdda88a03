// Package audit implements the Audit Coordinator (spec.md §4.7): the
// lifecycle state machine that drives one security assessment from
// creation through scheduling, correlation, and a final report.
package audit

import (
	"time"

	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/scheduler"
)

// State is one state of the audit lifecycle (spec.md §4.7):
//
//	CREATED -> PLANNED -> RUNNING -> CORRELATING -> COMPLETED
//	                 \-> CANCELLED         \-> FAILED
type State string

const (
	StateCreated     State = "CREATED"
	StatePlanned     State = "PLANNED"
	StateRunning     State = "RUNNING"
	StateCorrelating State = "CORRELATING"
	StateCompleted   State = "COMPLETED"
	StateCancelled   State = "CANCELLED"
	StateFailed      State = "FAILED"
)

// transitions is the closed set of legal state changes. Any transition not
// listed here is a programming error, not a runtime condition callers need
// to handle.
var transitions = map[State][]State{
	StateCreated:     {StatePlanned, StateFailed},
	StatePlanned:     {StateRunning, StateCancelled, StateFailed},
	StateRunning:     {StateCorrelating, StateCancelled, StateFailed},
	StateCorrelating: {StateCompleted, StateFailed},
}

// CanTransition reports whether from -> to is a legal lifecycle edge.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a terminal state with no further
// transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// StartRequest is the input to Coordinator.StartAudit (spec.md §6.1
// start_audit / §6.2 POST /audits).
type StartRequest struct {
	TargetPath string
	Profile    string   // "quick", "standard", "full", "custom"
	ToolIDs    []string // only consulted when Profile == "custom"
	Options    map[string]string
}

// Plan is the resolved execution plan for one audit (spec.md §4.7).
type Plan struct {
	AuditID    string
	TargetPath string
	Profile    string
	ToolIDs    []string
	Config     scheduler.Config
	CreatedAt  time.Time
}

// Report is the final (or current, if queried mid-run) state of one audit.
type Report struct {
	AuditID        string
	State          State
	Plan           Plan
	ToolResults    []scheduler.ToolResult
	Findings       []finding.CorrelatedFinding
	ComplianceHits []string
	StartedAt      time.Time
	EndedAt        time.Time
	PartialTimeout bool
	Error          string
}

// complianceUnion returns the deduplicated union of every correlated
// finding's ComplianceHits.
func complianceUnion(findings []finding.CorrelatedFinding) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range findings {
		for _, hit := range f.ComplianceHits {
			if !seen[hit] {
				seen[hit] = true
				out = append(out, hit)
			}
		}
	}
	return out
}
