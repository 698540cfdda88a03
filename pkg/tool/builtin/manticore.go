package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/miesc-dev/miesc/pkg/finding"
)

type manticoreReport struct {
	Findings []struct {
		Name      string `json:"name"`
		Severity  string `json:"severity"`
		File      string `json:"file"`
		Line      int    `json:"line"`
		Message   string `json:"message"`
		Procedure string `json:"procedure"`
	} `json:"findings"`
}

// NewManticore builds the layer-3 symbolic execution adapter.
func NewManticore(sev finding.SeverityTable, tax finding.TaxonomyTable) CLIAdapter {
	a := CLIAdapter{
		Command:     "manticore",
		BaseArgs:    []string{"--output-json"},
		VersionArgs: []string{"--version"},
	}
	a.Meta = finding.Tool{ID: "manticore", Layer: 3, Category: finding.CategorySymbolic, Optional: true, License: "AGPL-3.0"}
	a.Severity = sev
	a.Taxonomy = tax
	a.Parse = parseManticoreOutput
	return a
}

func parseManticoreOutput(stdout, _ []byte) ([]finding.RawFinding, error) {
	var report manticoreReport
	if err := json.Unmarshal(stdout, &report); err != nil {
		return nil, fmt.Errorf("parse manticore json output: %w", err)
	}
	var out []finding.RawFinding
	for _, f := range report.Findings {
		out = append(out, finding.RawFinding{
			SourceTool:        "manticore",
			VulnerabilityType: f.Name,
			SeverityNative:    f.Severity,
			ConfidenceRaw:     0.85,
			Location:          finding.Location{File: f.File, LineStart: f.Line, Function: f.Procedure},
			Description:       f.Message,
		})
	}
	return out, nil
}
