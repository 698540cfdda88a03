package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DefaultsArePassing(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
}

func TestValidate_NoProfilesRejected(t *testing.T) {
	cfg := Defaults()
	cfg.Profiles = nil
	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestValidate_ProfileWithoutLayersRejected(t *testing.T) {
	cfg := Defaults()
	cfg.Profiles["quick"] = Profile{GlobalDeadline: time.Minute}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layers")
}

func TestValidate_CustomProfileAllowsEmptyLayers(t *testing.T) {
	cfg := Defaults()
	cfg.Profiles["custom"] = Profile{GlobalDeadline: 15 * time.Minute}
	assert.NoError(t, Validate(cfg))
}

func TestValidate_NonPositiveDeadlineRejected(t *testing.T) {
	cfg := Defaults()
	cfg.Profiles["quick"] = Profile{Layers: []int{1}, GlobalDeadline: 0}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "global_deadline")
}

func TestValidate_BufferSizeBelowOneRejected(t *testing.T) {
	cfg := Defaults()
	cfg.System.BusBufferSize = 0
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bus_buffer_size")
}

func TestValidate_SidecarURLMustBeAbsolute(t *testing.T) {
	cfg := Defaults()
	cfg.Sidecars.AIDetector = "not a url"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai_detector")
}

func TestValidate_SidecarURLAcceptsValidHTTP(t *testing.T) {
	cfg := Defaults()
	cfg.Sidecars.MLClassifier = "http://localhost:8090"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_SlackEnabledRequiresChannelAndTokenEnv(t *testing.T) {
	cfg := Defaults()
	cfg.Slack.Enabled = true

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel")

	cfg.Slack.Channel = "#audits"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_PerToolDeadlineMustBePositive(t *testing.T) {
	cfg := Defaults()
	p := cfg.Profiles["full"]
	p.PerToolDeadlines = map[string]time.Duration{"slither": 0}
	cfg.Profiles["full"] = p

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "per_tool_deadlines")
}

func TestValidate_MaxParallelBelowOneRejected(t *testing.T) {
	cfg := Defaults()
	p := cfg.Profiles["full"]
	p.MaxParallelPerLayer = map[int]int{1: 0}
	cfg.Profiles["full"] = p

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_parallel_per_layer")
}

func TestValidate_UnrecognizedCrossLayerModeRejected(t *testing.T) {
	cfg := Defaults()
	p := cfg.Profiles["full"]
	p.CrossLayerMode = "bogus"
	cfg.Profiles["full"] = p

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cross_layer_mode")
}
