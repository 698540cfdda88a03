package api

import (
	"encoding/json"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/miesc-dev/miesc/pkg/audit"
	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/version"
)

// handleCapabilities implements the `capabilities` method.
func (s *Server) handleCapabilities(c *echo.Context, _ json.RawMessage) (any, error) {
	return s.capabilitiesResult(), nil
}

func (s *Server) capabilitiesResult() CapabilitiesResult {
	return CapabilitiesResult{
		AgentID:         version.AppName,
		ProtocolVersion: version.ProtocolVersion,
		Capabilities: map[string]CapabilityDescriptor{
			"capabilities": {InputSchema: "{}", OutputSchema: "{agent_id, protocol_version, capabilities}"},
			"status":       {InputSchema: "{}", OutputSchema: "{state, uptime_s, audits_active, audits_completed}"},
			"run_audit":    {InputSchema: "{contract, profile, tools?, layers?, options?}", OutputSchema: "{audit_id, state, summary, findings, metadata}"},
			"get_audit":    {InputSchema: "{audit_id, partial?}", OutputSchema: "{audit_id, state, summary, findings, metadata}"},
			"cancel_audit": {InputSchema: "{audit_id}", OutputSchema: "{cancelled}"},
			"get_metrics":  {InputSchema: "{audit_id?}", OutputSchema: "{precision_estimate?, recall_estimate?, f1?}"},
			"policy_audit": {InputSchema: "{repo_path}", OutputSchema: "{compliance_score, checks}"},
		},
	}
}

// handleStatus implements the server-wide `status` method.
func (s *Server) handleStatus(c *echo.Context, _ json.RawMessage) (any, error) {
	return s.statusResult(), nil
}

func (s *Server) statusResult() StatusResult {
	active, completed := s.coordinator.Stats()
	return StatusResult{
		State:           "healthy",
		UptimeS:         time.Since(s.startedAt).Seconds(),
		AuditsActive:    active,
		AuditsCompleted: completed,
	}
}

// handleRunAudit implements `run_audit`.
func (s *Server) handleRunAudit(c *echo.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[RunAuditRequest](raw)
	if err != nil {
		return nil, err
	}
	return s.runAudit(c, req)
}

func (s *Server) runAudit(c *echo.Context, req RunAuditRequest) (AuditResult, error) {
	auditID, err := s.coordinator.StartAudit(c.Request().Context(), audit.StartRequest{
		TargetPath: req.Contract,
		Profile:    req.Profile,
		ToolIDs:    req.Tools,
		Options:    req.Options,
	})
	if err != nil {
		return AuditResult{}, err
	}
	report, err := s.coordinator.GetReport(auditID)
	if err != nil {
		return AuditResult{}, err
	}
	return toAuditResult(report), nil
}

// handleGetAudit implements `get_audit`.
func (s *Server) handleGetAudit(c *echo.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[GetAuditRequest](raw)
	if err != nil {
		return nil, err
	}
	if req.AuditID == "" {
		req.AuditID = c.Param("audit_id")
	}
	report, err := s.coordinator.GetReport(req.AuditID)
	if err != nil {
		return nil, err
	}
	return toAuditResult(report), nil
}

// handleCancelAudit implements `cancel_audit`.
func (s *Server) handleCancelAudit(c *echo.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[CancelAuditRequest](raw)
	if err != nil {
		return nil, err
	}
	if req.AuditID == "" {
		req.AuditID = c.Param("audit_id")
	}
	if err := s.coordinator.Cancel(req.AuditID); err != nil {
		return nil, err
	}
	return CancelAuditResult{Cancelled: true}, nil
}

// handleGetMetrics implements `get_metrics`. The AOC does not depend on any
// particular precision/recall figure (spec.md §9); this surfaces whatever
// static figures the server was configured with, omitting what isn't set.
func (s *Server) handleGetMetrics(c *echo.Context, _ json.RawMessage) (any, error) {
	return s.metrics, nil
}

// handlePolicyAudit implements `policy_audit`.
func (s *Server) handlePolicyAudit(c *echo.Context, raw json.RawMessage) (any, error) {
	req, err := decodeParams[PolicyAuditRequest](raw)
	if err != nil {
		return nil, err
	}
	return runPolicyAudit(req.RepoPath)
}

// toAuditResult projects an audit.Report into the external AuditResult
// shape shared by run_audit and get_audit (spec.md §6.1).
func toAuditResult(report audit.Report) AuditResult {
	counts := make(map[string]int)
	var tools []string
	seen := make(map[string]bool)
	for _, tr := range report.ToolResults {
		if !seen[tr.ToolID] {
			seen[tr.ToolID] = true
			tools = append(tools, tr.ToolID)
		}
	}
	for _, f := range report.Findings {
		counts[string(f.SeverityFinal)]++
	}

	var duration float64
	if !report.EndedAt.IsZero() {
		duration = report.EndedAt.Sub(report.StartedAt).Seconds()
	} else if !report.StartedAt.IsZero() {
		duration = time.Since(report.StartedAt).Seconds()
	}

	findings := report.Findings
	if findings == nil {
		findings = []finding.CorrelatedFinding{}
	}

	return AuditResult{
		AuditID:  report.AuditID,
		State:    string(report.State),
		Summary:  AuditSummary{CountsBySeverity: counts},
		Findings: findings,
		Metadata: AuditMetadata{
			ToolsUsed:      tools,
			DurationS:      duration,
			PartialTimeout: report.PartialTimeout,
		},
	}
}
