package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/miesc-dev/miesc/pkg/finding"
)

type mlClassifierResponse struct {
	Predictions []struct {
		Class      string  `json:"class"`
		Score      float64 `json:"score"`
		File       string  `json:"file"`
		LineStart  int     `json:"line_start"`
		LineEnd    int     `json:"line_end"`
	} `json:"predictions"`
}

// NewMLClassifier builds the layer-7 ML-classifier adapter, a model-serving
// sidecar scoring extracted code features against a vulnerability taxonomy.
func NewMLClassifier(baseURL string, sev finding.SeverityTable, tax finding.TaxonomyTable) HTTPAdapter {
	a := HTTPAdapter{
		BaseURL:    baseURL,
		HealthPath: "/healthz",
		AnalyzeURL: "/v1/classify",
	}
	a.Meta = finding.Tool{ID: "ml-classifier", Layer: 7, Category: finding.CategoryML, Optional: true}
	a.Severity = sev
	a.Taxonomy = tax
	a.Parse = parseMLClassifierResponse
	return a
}

func parseMLClassifierResponse(body []byte) ([]finding.RawFinding, error) {
	var resp mlClassifierResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse ml-classifier response: %w", err)
	}
	var out []finding.RawFinding
	for _, p := range resp.Predictions {
		out = append(out, finding.RawFinding{
			SourceTool:        "ml-classifier",
			VulnerabilityType: p.Class,
			SeverityNative:    "Medium",
			ConfidenceRaw:     p.Score,
			Location:          finding.Location{File: p.File, LineStart: p.LineStart, LineEnd: p.LineEnd},
		})
	}
	return out, nil
}
