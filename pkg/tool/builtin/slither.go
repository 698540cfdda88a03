package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/miesc-dev/miesc/pkg/finding"
)

// slitherReport mirrors Slither's `--json -` output shape closely enough to
// extract what Normalize needs; unknown fields are ignored.
type slitherReport struct {
	Results struct {
		Detectors []struct {
			Check       string `json:"check"`
			Impact      string `json:"impact"`
			Confidence  string `json:"confidence"`
			Description string `json:"description"`
			Elements    []struct {
				SourceMapping struct {
					Filename    string `json:"filename_relative"`
					LineStart   int    `json:"lines_start"`
					LineEnd     int    `json:"lines_end"`
				} `json:"source_mapping"`
			} `json:"elements"`
		} `json:"detectors"`
	} `json:"results"`
}

// NewSlither builds the layer-1 static analysis adapter.
func NewSlither(sev finding.SeverityTable, tax finding.TaxonomyTable) CLIAdapter {
	a := CLIAdapter{
		Command:     "slither",
		BaseArgs:    []string{"--json", "-"},
		VersionArgs: []string{"--version"},
	}
	a.Meta = finding.Tool{ID: "slither", Layer: 1, Category: finding.CategoryStatic, Optional: true, License: "AGPL-3.0"}
	a.Severity = sev
	a.Taxonomy = tax
	a.Parse = parseSlitherOutput
	return a
}

func parseSlitherOutput(stdout, _ []byte) ([]finding.RawFinding, error) {
	var report slitherReport
	if err := json.Unmarshal(stdout, &report); err != nil {
		return nil, fmt.Errorf("parse slither json output: %w", err)
	}
	var out []finding.RawFinding
	for _, d := range report.Results.Detectors {
		loc := finding.Location{LineStart: 1}
		if len(d.Elements) > 0 {
			sm := d.Elements[0].SourceMapping
			loc = finding.Location{File: sm.Filename, LineStart: sm.LineStart, LineEnd: sm.LineEnd}
		}
		out = append(out, finding.RawFinding{
			SourceTool:        "slither",
			VulnerabilityType: d.Check,
			SeverityNative:    d.Impact,
			ConfidenceRaw:     slitherConfidence(d.Confidence),
			Location:          loc,
			Description:       d.Description,
		})
	}
	return out, nil
}

func slitherConfidence(native string) float64 {
	switch native {
	case "High":
		return 0.9
	case "Medium":
		return 0.6
	default:
		return 0.4
	}
}
