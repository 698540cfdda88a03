package store_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/store"
)

func TestFileWriter_WritePlanCreatesAuditDir(t *testing.T) {
	dir := t.TempDir()
	w := store.NewFileWriter(dir)

	require.NoError(t, w.WritePlan("audit-1", map[string]string{"profile": "quick"}))

	data, err := os.ReadFile(filepath.Join(dir, "audit-1", "plan.json"))
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "quick", got["profile"])
}

func TestFileWriter_WriteFindingNestsByToolID(t *testing.T) {
	dir := t.TempDir()
	w := store.NewFileWriter(dir)

	f := finding.Finding{ID: "f1", SourceTool: "slither", Title: "reentrancy"}
	require.NoError(t, w.WriteFinding("audit-1", "slither", f))

	data, err := os.ReadFile(filepath.Join(dir, "audit-1", "findings", "slither", "f1.json"))
	require.NoError(t, err)

	var got finding.Finding
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "reentrancy", got.Title)
}

func TestFileWriter_WriteCorrelatedAndSummary(t *testing.T) {
	dir := t.TempDir()
	w := store.NewFileWriter(dir)

	correlated := []finding.CorrelatedFinding{{
		Fingerprint:   "fp1",
		SeverityFinal: finding.SeverityHigh,
		UpdatedAt:     time.Now(),
	}}
	require.NoError(t, w.WriteCorrelated("audit-1", correlated))
	require.NoError(t, w.WriteSummary("audit-1", map[string]string{"state": "COMPLETED"}))

	_, err := os.Stat(filepath.Join(dir, "audit-1", "correlated.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "audit-1", "summary.json"))
	require.NoError(t, err)
}
