package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/miesc-dev/miesc/pkg/finding"
)

type certoraReport struct {
	Rules []struct {
		Name   string `json:"rule"`
		Status string `json:"status"` // "VIOLATED", "VERIFIED", "TIMEOUT"
		Spec   string `json:"spec_file"`
		Line   int    `json:"line"`
		Reason string `json:"reason"`
	} `json:"rules"`
}

// NewCertora builds the layer-4 formal verification adapter.
func NewCertora(sev finding.SeverityTable, tax finding.TaxonomyTable) CLIAdapter {
	a := CLIAdapter{
		Command:     "certoraRun",
		BaseArgs:    []string{"--output_json"},
		VersionArgs: []string{"--version"},
	}
	a.Meta = finding.Tool{ID: "certora", Layer: 4, Category: finding.CategoryFormal, Optional: true, License: "proprietary", Author: "Certora"}
	a.Severity = sev
	a.Taxonomy = tax
	a.Parse = parseCertoraOutput
	return a
}

func parseCertoraOutput(stdout, _ []byte) ([]finding.RawFinding, error) {
	var report certoraReport
	if err := json.Unmarshal(stdout, &report); err != nil {
		return nil, fmt.Errorf("parse certora json output: %w", err)
	}
	var out []finding.RawFinding
	for _, r := range report.Rules {
		if r.Status != "VIOLATED" {
			continue
		}
		out = append(out, finding.RawFinding{
			SourceTool:        "certora",
			VulnerabilityType: "spec-violation:" + r.Name,
			SeverityNative:    "High",
			ConfidenceRaw:     0.99,
			Location:          finding.Location{File: r.Spec, LineStart: r.Line},
			Description:       r.Reason,
			Title:             r.Name,
		})
	}
	return out, nil
}
