package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPolicyAudit_ScoresPresentFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "LICENSE"), []byte("MIT"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# repo"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "test"), 0o755))

	result, err := runPolicyAudit(dir)
	require.NoError(t, err)

	assert.Greater(t, result.ComplianceScore, 0.0)
	assert.Less(t, result.ComplianceScore, 1.0)

	byName := make(map[string]PolicyCheck)
	for _, c := range result.Checks {
		byName[c.Name] = c
	}
	assert.True(t, byName["license_present"].Passed)
	assert.True(t, byName["readme_present"].Passed)
	assert.True(t, byName["tests_present"].Passed)
	assert.False(t, byName["ci_config_present"].Passed)
}

func TestRunPolicyAudit_EmptyRepoPathRejected(t *testing.T) {
	_, err := runPolicyAudit("")
	assert.Error(t, err)
}

func TestRunPolicyAudit_NonDirectoryRejected(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := runPolicyAudit(file)
	assert.Error(t, err)
}
