package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/miesc-dev/miesc/pkg/finding"
)

type aiDetectorResponse struct {
	Findings []struct {
		Label      string  `json:"label"`
		Severity   string  `json:"severity"`
		Confidence float64 `json:"confidence"`
		File       string  `json:"file"`
		Line       int     `json:"line"`
		Rationale  string  `json:"rationale"`
	} `json:"findings"`
}

// NewAIDetector builds the layer-6 AI-assisted detection adapter. Runs as
// an HTTP sidecar rather than a direct gRPC client, since the generated
// protobuf stubs for an LLM-backed service aren't reproducible here (see
// DESIGN.md's dropped-dependency notes on grpc/protobuf).
func NewAIDetector(baseURL string, sev finding.SeverityTable, tax finding.TaxonomyTable) HTTPAdapter {
	a := HTTPAdapter{
		BaseURL:    baseURL,
		HealthPath: "/healthz",
		AnalyzeURL: "/v1/analyze",
	}
	a.Meta = finding.Tool{ID: "ai-detector", Layer: 6, Category: finding.CategoryAI, Optional: true}
	a.Severity = sev
	a.Taxonomy = tax
	a.Parse = parseAIDetectorResponse
	return a
}

func parseAIDetectorResponse(body []byte) ([]finding.RawFinding, error) {
	var resp aiDetectorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse ai-detector response: %w", err)
	}
	var out []finding.RawFinding
	for _, f := range resp.Findings {
		out = append(out, finding.RawFinding{
			SourceTool:        "ai-detector",
			VulnerabilityType: f.Label,
			SeverityNative:    f.Severity,
			ConfidenceRaw:     f.Confidence,
			Location:          finding.Location{File: f.File, LineStart: f.Line},
			Description:       f.Rationale,
		})
	}
	return out, nil
}
