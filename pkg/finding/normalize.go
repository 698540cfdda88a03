package finding

import (
	"fmt"
	"time"

	"github.com/miesc-dev/miesc/pkg/aocerrors"
	"github.com/google/uuid"
)

// SeverityTable maps a tool's native severity label to a normalized
// Severity. Keyed by "<tool_id>.<native_label>" first, falling back to a
// tool-agnostic "*.<native_label>" entry, matching severity_map.json
// (spec.md §6.7).
type SeverityTable map[string]Severity

// Lookup resolves the normalized severity for a (tool, native label) pair.
// Unknown labels fall back to MEDIUM — spec.md §4.1: "this is a
// conservative choice (never silently downgrade to INFO)".
func (t SeverityTable) Lookup(toolID, native string) Severity {
	if sev, ok := t[toolID+"."+native]; ok {
		return sev
	}
	if sev, ok := t["*."+native]; ok {
		return sev
	}
	return SeverityMedium
}

// TaxonomyEntry is one row of taxonomy_map.json (spec.md §6.7).
type TaxonomyEntry struct {
	SWC     string `json:"swc,omitempty"`
	CWE     string `json:"cwe,omitempty"`
	OWASPSC string `json:"owasp_sc,omitempty"`
}

// TaxonomyTable maps a native vulnerability class string to its taxonomy
// entry. Keys are canonicalized (lower-cased, whitespace-trimmed) by the
// loader before use.
type TaxonomyTable map[string]TaxonomyEntry

// Lookup returns the taxonomy for a native vulnerability class, and whether
// an entry was found at all.
func (t TaxonomyTable) Lookup(class string) (Taxonomy, bool) {
	entry, ok := t[class]
	if !ok {
		return Taxonomy{}, false
	}
	return Taxonomy{SWC: entry.SWC, CWE: entry.CWE, OWASPSC: entry.OWASPSC}, true
}

// Normalize implements the Finding Model contract of spec.md §4.1:
// normalize(finding_raw) -> Finding.
//
// Minimum-field validation: source tool id, vulnerability class, and a
// location with file+line are required, or FINDING_MALFORMED (here:
// aocerrors.KindCorrelationMalformed, since this same validation gate is
// reused by the correlation engine for findings that arrive off-bus) is
// returned.
func Normalize(raw RawFinding, layer int, sev SeverityTable, tax TaxonomyTable) (Finding, error) {
	if raw.SourceTool == "" {
		return Finding{}, aocerrors.Wrapf(aocerrors.KindCorrelationMalformed, "finding.Normalize", "missing source_tool")
	}
	if raw.VulnerabilityType == "" {
		return Finding{}, aocerrors.Wrapf(aocerrors.KindCorrelationMalformed, "finding.Normalize", "missing vulnerability_type")
	}
	if raw.Location.File == "" || raw.Location.LineStart <= 0 {
		return Finding{}, aocerrors.Wrapf(aocerrors.KindCorrelationMalformed, "finding.Normalize", "missing or invalid location (file/line_start)")
	}

	confidence := raw.ConfidenceRaw
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	severityNormalized := sev.Lookup(raw.SourceTool, raw.SeverityNative)

	taxonomy, _ := tax.Lookup(canonicalClass(raw.VulnerabilityType))

	f := Finding{
		ID:                 uuid.NewString(),
		SourceTool:         raw.SourceTool,
		Layer:              layer,
		VulnerabilityType:  raw.VulnerabilityType,
		SeverityNative:     raw.SeverityNative,
		SeverityNormalized: severityNormalized,
		ConfidenceRaw:      confidence,
		Location:           raw.Location,
		Title:              raw.Title,
		Description:        raw.Description,
		RemediationHint:    raw.RemediationHint,
		Taxonomy:           taxonomy,
		RawPayload:         raw.RawPayload,
		ProducedAt:         time.Now(),
	}
	return f, nil
}

func canonicalClass(class string) string {
	// taxonomy_map.json keys are pre-canonicalized by the config loader
	// (lower-cased, trimmed); Normalize applies the same transform so
	// adapters don't need to match case exactly.
	out := make([]byte, 0, len(class))
	for i := 0; i < len(class); i++ {
		c := class[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c == ' ' || c == '\t' {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// ValidationError renders a human-readable description of why a RawFinding
// failed minimum-field validation, used by callers that want to log the
// specific cause without parsing the wrapped error text.
func ValidationError(raw RawFinding) string {
	var missing []string
	if raw.SourceTool == "" {
		missing = append(missing, "source_tool")
	}
	if raw.VulnerabilityType == "" {
		missing = append(missing, "vulnerability_type")
	}
	if raw.Location.File == "" {
		missing = append(missing, "location.file")
	}
	if raw.Location.LineStart <= 0 {
		missing = append(missing, "location.line_start")
	}
	if len(missing) == 0 {
		return ""
	}
	return fmt.Sprintf("missing required fields: %v", missing)
}
