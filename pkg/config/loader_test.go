package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, yamlFileName), []byte(content), 0o644))
}

func TestInitialize_MissingFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ConfigDir())
	p, ok := cfg.Profile("quick")
	require.True(t, ok)
	assert.Equal(t, 2*time.Minute, p.GlobalDeadline)
}

func TestInitialize_LoadsAndMergesYAML(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, `
system:
  dashboard_url: "https://dashboard.example.com"
  bus_buffer_size: 2048
sidecars:
  ai_detector: "http://localhost:9001"
profiles:
  quick:
    global_deadline: 90s
  nightly:
    layers: [1, 2, 3, 4, 5, 6, 7, 8, 9]
    global_deadline: 2h
    cross_layer_mode: pipelined
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "https://dashboard.example.com", cfg.System.DashboardURL)
	assert.Equal(t, 2048, cfg.System.BusBufferSize)
	assert.Equal(t, "http://localhost:9001", cfg.Sidecars.AIDetector)

	quick, ok := cfg.Profile("quick")
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, quick.GlobalDeadline)
	assert.Equal(t, []int{1}, quick.Layers, "builtin layers survive a partial override")

	nightly, ok := cfg.Profile("nightly")
	require.True(t, ok)
	assert.Equal(t, 2*time.Hour, nightly.GlobalDeadline)
	assert.Equal(t, "pipelined", nightly.CrossLayerMode)
}

func TestInitialize_MetricsAbsentByDefault(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Nil(t, cfg.Metrics.PrecisionEstimate)
	assert.Nil(t, cfg.Metrics.RecallEstimate)
	assert.Nil(t, cfg.Metrics.F1)
}

func TestInitialize_LoadsMetricsFigures(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, `
metrics:
  precision_estimate: 0.82
  recall_estimate: 0.77
  f1: 0.79
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	require.NotNil(t, cfg.Metrics.PrecisionEstimate)
	assert.InDelta(t, 0.82, *cfg.Metrics.PrecisionEstimate, 0.0001)
	require.NotNil(t, cfg.Metrics.RecallEstimate)
	assert.InDelta(t, 0.77, *cfg.Metrics.RecallEstimate, 0.0001)
	require.NotNil(t, cfg.Metrics.F1)
	assert.InDelta(t, 0.79, *cfg.Metrics.F1, 0.0001)
}

func TestInitialize_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MIESC_DASHBOARD_URL", "https://env.example.com")
	writeYAML(t, dir, `
system:
  dashboard_url: "${MIESC_DASHBOARD_URL}"
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.System.DashboardURL)
}

func TestInitialize_InvalidYAMLRejected(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "system: [this is not a valid system block")

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestInitialize_ValidationFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, `
slack:
  enabled: true
`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestInitialize_RelativeTablePathsResolveAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "tables", "taxonomy_map.json"), cfg.Tables.TaxonomyPath)
}
