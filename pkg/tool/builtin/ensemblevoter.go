package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/tool"
)

type ensembleVoterResponse struct {
	Votes []struct {
		VulnerabilityType string  `json:"vulnerability_type"`
		Severity          string  `json:"severity"`
		Confidence        float64 `json:"confidence"`
		File              string  `json:"file"`
		LineStart         int     `json:"line_start"`
		SupportingTools   []string `json:"supporting_tools"`
	} `json:"votes"`
}

// UpstreamFindingsOption re-exports tool.UpstreamFindingsOption: the
// AnalyzeRequest.Options key the scheduler populates with the JSON-encoded
// findings from every prior layer before running this adapter; it has no
// target-source access of its own.
const UpstreamFindingsOption = tool.UpstreamFindingsOption

// NewEnsembleVoter builds the layer-9 ensemble/meta-analysis adapter. It
// re-scores cross-layer agreement independently of the correlation engine's
// own cross-validation boost (spec.md §4.6 step 4) — this adapter may flag
// a vulnerability class no single tool raised to HIGH confidence, but that
// several tools touched weakly.
func NewEnsembleVoter(baseURL string, sev finding.SeverityTable, tax finding.TaxonomyTable) HTTPAdapter {
	a := HTTPAdapter{
		BaseURL:    baseURL,
		HealthPath: "/healthz",
		AnalyzeURL: "/v1/vote",
	}
	a.Meta = finding.Tool{ID: "ensemble-voter", Layer: 9, Category: finding.CategoryEnsemble, Optional: true}
	a.Severity = sev
	a.Taxonomy = tax
	a.Parse = parseEnsembleVoterResponse
	return a
}

func parseEnsembleVoterResponse(body []byte) ([]finding.RawFinding, error) {
	var resp ensembleVoterResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse ensemble-voter response: %w", err)
	}
	var out []finding.RawFinding
	for _, v := range resp.Votes {
		out = append(out, finding.RawFinding{
			SourceTool:        "ensemble-voter",
			VulnerabilityType: v.VulnerabilityType,
			SeverityNative:    v.Severity,
			ConfidenceRaw:     v.Confidence,
			Location:          finding.Location{File: v.File, LineStart: v.LineStart},
			Description:       fmt.Sprintf("corroborated by: %v", v.SupportingTools),
		})
	}
	return out, nil
}
