package api

// RunAuditRequest is the input to run_audit / POST /mcp/run_audit
// (spec.md §6.1).
type RunAuditRequest struct {
	Contract string            `json:"contract"`
	Profile  string            `json:"profile"`
	Tools    []string          `json:"tools,omitempty"`
	Layers   []int             `json:"layers,omitempty"`
	Options  map[string]string `json:"options,omitempty"`
}

// GetAuditRequest is the input to get_audit / GET /mcp/audits/{audit_id}.
type GetAuditRequest struct {
	AuditID string `json:"audit_id"`
	Partial bool   `json:"partial,omitempty"`
}

// CancelAuditRequest is the input to cancel_audit / POST /mcp/cancel_audit.
type CancelAuditRequest struct {
	AuditID string `json:"audit_id"`
}

// GetMetricsRequest is the input to get_metrics / GET /mcp/get_metrics.
type GetMetricsRequest struct {
	AuditID string `json:"audit_id,omitempty"`
}

// PolicyAuditRequest is the input to policy_audit.
type PolicyAuditRequest struct {
	RepoPath string `json:"repo_path"`
}
