package finding

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadSeverityTable reads severity_map.json (spec.md §6.7): a flat
// "<tool_id>.<native_label>" → normalized severity map. A missing file
// yields an empty table, not an error — SeverityTable.Lookup's MEDIUM
// fallback already covers the uncalibrated case.
func LoadSeverityTable(path string) (SeverityTable, error) {
	if path == "" {
		return SeverityTable{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return SeverityTable{}, nil
		}
		return nil, fmt.Errorf("severity table %s: %w", path, err)
	}

	var t SeverityTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("severity table %s: %w", path, err)
	}
	return t, nil
}

// LoadTaxonomyTable reads taxonomy_map.json (spec.md §6.7): a native
// vulnerability class string → {swc, cwe, owasp_sc} entry. Keys are
// canonicalized (lower-cased, trimmed) so lookups don't depend on a tool's
// exact class-string casing.
func LoadTaxonomyTable(path string) (TaxonomyTable, error) {
	if path == "" {
		return TaxonomyTable{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return TaxonomyTable{}, nil
		}
		return nil, fmt.Errorf("taxonomy table %s: %w", path, err)
	}

	var raw map[string]TaxonomyEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("taxonomy table %s: %w", path, err)
	}

	t := make(TaxonomyTable, len(raw))
	for class, entry := range raw {
		t[canonicalClass(class)] = entry
	}
	return t, nil
}

// LoadFPPriorTable reads fp_priors.json (spec.md §6.7): calibrated
// per-detector false-positive probabilities keyed by "<tool_id>.<detector_id>".
func LoadFPPriorTable(path string) (FPPriorTable, error) {
	if path == "" {
		return FPPriorTable{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FPPriorTable{}, nil
		}
		return nil, fmt.Errorf("fp_priors table %s: %w", path, err)
	}

	var t FPPriorTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("fp_priors table %s: %w", path, err)
	}
	return t, nil
}

// LoadComplianceTable reads compliance_map.json (spec.md §6.7): taxonomy id
// → compliance control ids.
func LoadComplianceTable(path string) (ComplianceTable, error) {
	if path == "" {
		return ComplianceTable{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ComplianceTable{}, nil
		}
		return nil, fmt.Errorf("compliance table %s: %w", path, err)
	}

	var t ComplianceTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("compliance table %s: %w", path, err)
	}
	return t, nil
}
