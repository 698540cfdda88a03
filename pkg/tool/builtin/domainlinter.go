package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/miesc-dev/miesc/pkg/finding"
)

type domainLinterReport struct {
	Violations []struct {
		Rule     string `json:"rule"`
		Severity string `json:"severity"`
		File     string `json:"file"`
		Line     int    `json:"line"`
		Contract string `json:"contract"`
		Message  string `json:"message"`
	} `json:"violations"`
}

// NewDomainLinter builds the layer-8 domain-specific linter adapter: rules
// that encode protocol-specific conventions (e.g. ERC-20/ERC-721 invariant
// checks) that generic static analyzers don't know about.
func NewDomainLinter(sev finding.SeverityTable, tax finding.TaxonomyTable) CLIAdapter {
	a := CLIAdapter{
		Command:     "domain-linter",
		BaseArgs:    []string{"--format", "json"},
		VersionArgs: []string{"--version"},
	}
	a.Meta = finding.Tool{ID: "domain-linter", Layer: 8, Category: finding.CategoryDomainSpecific, Optional: true}
	a.Severity = sev
	a.Taxonomy = tax
	a.Parse = parseDomainLinterOutput
	return a
}

func parseDomainLinterOutput(stdout, _ []byte) ([]finding.RawFinding, error) {
	var report domainLinterReport
	if err := json.Unmarshal(stdout, &report); err != nil {
		return nil, fmt.Errorf("parse domain-linter json output: %w", err)
	}
	var out []finding.RawFinding
	for _, v := range report.Violations {
		out = append(out, finding.RawFinding{
			SourceTool:        "domain-linter",
			VulnerabilityType: v.Rule,
			SeverityNative:    v.Severity,
			ConfidenceRaw:     0.7,
			Location:          finding.Location{File: v.File, LineStart: v.Line, Contract: v.Contract},
			Description:       v.Message,
		})
	}
	return out, nil
}
