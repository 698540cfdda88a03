package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeProfiles_PartialOverrideKeepsBuiltinFields(t *testing.T) {
	builtin := map[string]Profile{
		"quick": {Layers: []int{1}, GlobalDeadline: 2 * time.Minute, CrossLayerMode: "sequential"},
	}
	user := map[string]ProfileYAMLConfig{
		"quick": {GlobalDeadline: "90s"},
	}

	merged, err := mergeProfiles(builtin, user)
	require.NoError(t, err)

	got := merged["quick"]
	assert.Equal(t, []int{1}, got.Layers, "unset field keeps built-in value")
	assert.Equal(t, "sequential", got.CrossLayerMode, "unset field keeps built-in value")
	assert.Equal(t, 90*time.Second, got.GlobalDeadline, "set field overrides built-in value")
}

func TestMergeProfiles_NewProfileDefinesItself(t *testing.T) {
	builtin := map[string]Profile{
		"quick": {Layers: []int{1}, GlobalDeadline: 2 * time.Minute},
	}
	user := map[string]ProfileYAMLConfig{
		"nightly": {
			Layers:         []int{1, 2, 3, 4, 5, 6, 7, 8, 9},
			GlobalDeadline: "2h",
			CrossLayerMode: "pipelined",
		},
	}

	merged, err := mergeProfiles(builtin, user)
	require.NoError(t, err)

	require.Contains(t, merged, "quick")
	require.Contains(t, merged, "nightly")
	assert.Equal(t, 2*time.Hour, merged["nightly"].GlobalDeadline)
	assert.Equal(t, "pipelined", merged["nightly"].CrossLayerMode)
}

func TestMergeProfiles_PerToolDeadlinesMergeByKey(t *testing.T) {
	builtin := map[string]Profile{
		"full": {
			Layers:           []int{1, 2},
			GlobalDeadline:   30 * time.Minute,
			PerToolDeadlines: map[string]time.Duration{"slither": time.Minute},
		},
	}
	user := map[string]ProfileYAMLConfig{
		"full": {PerToolDeadlines: map[string]string{"manticore": "20m"}},
	}

	merged, err := mergeProfiles(builtin, user)
	require.NoError(t, err)

	got := merged["full"].PerToolDeadlines
	assert.Equal(t, time.Minute, got["slither"])
	assert.Equal(t, 20*time.Minute, got["manticore"])
}

func TestMergeProfiles_InvalidDurationErrors(t *testing.T) {
	builtin := map[string]Profile{"quick": {Layers: []int{1}, GlobalDeadline: time.Minute}}
	user := map[string]ProfileYAMLConfig{"quick": {GlobalDeadline: "not-a-duration"}}

	_, err := mergeProfiles(builtin, user)
	assert.Error(t, err)
}
