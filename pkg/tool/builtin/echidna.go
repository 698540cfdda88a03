package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/miesc-dev/miesc/pkg/finding"
)

type echidnaReport struct {
	Tests []struct {
		Name     string `json:"name"`
		Status   string `json:"status"`
		Contract string `json:"contract"`
		Message  string `json:"message"`
	} `json:"tests"`
}

// NewEchidna builds the layer-2 dynamic/fuzzing adapter.
func NewEchidna(sev finding.SeverityTable, tax finding.TaxonomyTable) CLIAdapter {
	a := CLIAdapter{
		Command:     "echidna",
		BaseArgs:    []string{"--format", "json"},
		VersionArgs: []string{"--version"},
	}
	a.Meta = finding.Tool{ID: "echidna", Layer: 2, Category: finding.CategoryDynamic, Optional: true, License: "AGPL-3.0"}
	a.Severity = sev
	a.Taxonomy = tax
	a.Parse = parseEchidnaOutput
	return a
}

func parseEchidnaOutput(stdout, _ []byte) ([]finding.RawFinding, error) {
	var report echidnaReport
	if err := json.Unmarshal(stdout, &report); err != nil {
		return nil, fmt.Errorf("parse echidna json output: %w", err)
	}
	var out []finding.RawFinding
	for _, tst := range report.Tests {
		if tst.Status != "failed" && tst.Status != "error" {
			continue
		}
		out = append(out, finding.RawFinding{
			SourceTool:        "echidna",
			VulnerabilityType: "invariant-violation",
			SeverityNative:    "High",
			ConfidenceRaw:     0.95,
			Location:          finding.Location{File: tst.Contract + ".sol", LineStart: 1, Contract: tst.Contract, Function: tst.Name},
			Description:       tst.Message,
			Title:             tst.Name,
		})
	}
	return out, nil
}
