package api

import "github.com/miesc-dev/miesc/pkg/finding"

// AuditSummary is the `summary` field of run_audit/get_audit results
// (spec.md §6.1).
type AuditSummary struct {
	CountsBySeverity map[string]int `json:"counts_by_severity"`
}

// AuditMetadata is the `metadata` field of run_audit/get_audit results.
type AuditMetadata struct {
	ToolsUsed      []string `json:"tools_used"`
	DurationS      float64  `json:"duration_s"`
	PartialTimeout bool     `json:"partial_timeout"`
}

// AuditResult is the shared result shape of run_audit and get_audit
// (spec.md §6.1: "Same shape as run_audit.result; state field indicates
// progress").
type AuditResult struct {
	AuditID  string                      `json:"audit_id"`
	State    string                      `json:"state"`
	Summary  AuditSummary                `json:"summary"`
	Findings []finding.CorrelatedFinding `json:"findings"`
	Metadata AuditMetadata               `json:"metadata"`
}

// CancelAuditResult is the result of cancel_audit.
type CancelAuditResult struct {
	Cancelled bool `json:"cancelled"`
}

// StatusResult is the result of the server-wide `status` method.
type StatusResult struct {
	State           string  `json:"state"`
	UptimeS         float64 `json:"uptime_s"`
	AuditsActive    int     `json:"audits_active"`
	AuditsCompleted int     `json:"audits_completed"`
}

// CapabilityDescriptor documents one RPC method's I/O shape.
type CapabilityDescriptor struct {
	InputSchema  string `json:"input_schema"`
	OutputSchema string `json:"output_schema"`
}

// CapabilitiesResult is the result of the `capabilities` method.
type CapabilitiesResult struct {
	AgentID         string                          `json:"agent_id"`
	ProtocolVersion string                          `json:"protocol_version"`
	Capabilities    map[string]CapabilityDescriptor `json:"capabilities"`
}

// MetricsResult is the result of get_metrics. Fields are pointers so an
// unconfigured figure is omitted rather than reported as a fabricated 0
// (spec.md §9: "the AOC does not depend on any particular figure").
type MetricsResult struct {
	PrecisionEstimate *float64 `json:"precision_estimate,omitempty"`
	RecallEstimate    *float64 `json:"recall_estimate,omitempty"`
	F1                *float64 `json:"f1,omitempty"`
}

// PolicyCheck is one compliance heuristic evaluated by policy_audit.
type PolicyCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// PolicyAuditResult is the result of policy_audit.
type PolicyAuditResult struct {
	ComplianceScore float64       `json:"compliance_score"`
	Checks          []PolicyCheck `json:"checks"`
}

// HealthCheck is one component's contribution to GET /health.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks"`
}
