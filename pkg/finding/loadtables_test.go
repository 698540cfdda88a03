package finding

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeverityTable(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "severity_map.json", `{
		"slither.High": "HIGH",
		"*.critical": "CRITICAL"
	}`)

	tbl, err := LoadSeverityTable(path)
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, tbl.Lookup("slither", "High"))
	assert.Equal(t, SeverityCritical, tbl.Lookup("echidna", "critical"))
	assert.Equal(t, SeverityMedium, tbl.Lookup("unknown", "unknown"))
}

func TestLoadSeverityTable_MissingFileReturnsEmptyTable(t *testing.T) {
	tbl, err := LoadSeverityTable(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, tbl)
}

func TestLoadTaxonomyTable_CanonicalizesKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "taxonomy_map.json", `{
		"  Reentrancy-ETH  ": {"swc": "SWC-107", "cwe": "CWE-841", "owasp_sc": "SC05"}
	}`)

	tbl, err := LoadTaxonomyTable(path)
	require.NoError(t, err)
	tax, ok := tbl.Lookup(canonicalClass("reentrancy-eth"))
	require.True(t, ok)
	assert.Equal(t, "SWC-107", tax.SWC)
	assert.Equal(t, "SC05", tax.OWASPSC)
}

func TestLoadFPPriorTable(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "fp_priors.json", `{"slither.reentrancy-eth": 0.15}`)

	tbl, err := LoadFPPriorTable(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, tbl.Prior("slither", "reentrancy-eth"), 0.0001)
}

func TestLoadComplianceTable(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "compliance_map.json", `{"SWC-107": ["ISO27001-A.14.2.5", "SSDF-PW.4"]}`)

	tbl, err := LoadComplianceTable(path)
	require.NoError(t, err)
	hits := tbl.Hits(Taxonomy{SWC: "SWC-107"})
	assert.ElementsMatch(t, []string{"ISO27001-A.14.2.5", "SSDF-PW.4"}, hits)
}

func TestLoadTables_EmptyPathReturnsEmptyTable(t *testing.T) {
	sev, err := LoadSeverityTable("")
	require.NoError(t, err)
	assert.Empty(t, sev)

	tax, err := LoadTaxonomyTable("")
	require.NoError(t, err)
	assert.Empty(t, tax)
}

func TestLoadTables_InvalidJSONErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "severity_map.json", `{not valid json`)

	_, err := LoadSeverityTable(path)
	assert.Error(t, err)
}
