package config

import (
	"fmt"
	"time"

	"dario.cat/mergo"
)

// parseProfile converts a YAML profile block into its resolved form,
// parsing every duration string with time.ParseDuration. Fields absent
// from y parse to their Go zero value, which mergeProfiles then leaves
// unset so the built-in baseline shows through.
func parseProfile(y ProfileYAMLConfig) (Profile, error) {
	p := Profile{
		Layers:              y.Layers,
		CrossLayerMode:      y.CrossLayerMode,
		MaxParallelPerLayer: y.MaxParallelPerLayer,
	}

	if y.GlobalDeadline != "" {
		d, err := time.ParseDuration(y.GlobalDeadline)
		if err != nil {
			return Profile{}, fmt.Errorf("global_deadline: %w", err)
		}
		p.GlobalDeadline = d
	}
	if y.CancelGracePeriod != "" {
		d, err := time.ParseDuration(y.CancelGracePeriod)
		if err != nil {
			return Profile{}, fmt.Errorf("cancel_grace_period: %w", err)
		}
		p.CancelGracePeriod = d
	}
	if len(y.PerToolDeadlines) > 0 {
		p.PerToolDeadlines = make(map[string]time.Duration, len(y.PerToolDeadlines))
		for tool, s := range y.PerToolDeadlines {
			d, err := time.ParseDuration(s)
			if err != nil {
				return Profile{}, fmt.Errorf("per_tool_deadlines[%s]: %w", tool, err)
			}
			p.PerToolDeadlines[tool] = d
		}
	}

	return p, nil
}

// mergeProfiles overlays user-defined profiles onto the built-in baseline.
// A profile present in both merges field-by-field via mergo.WithOverride —
// a user profile that only sets global_deadline keeps the built-in layers
// and cross_layer_mode. A profile absent from user entirely passes through
// unchanged; a profile present only in user defines a wholly new profile.
func mergeProfiles(builtin map[string]Profile, user map[string]ProfileYAMLConfig) (map[string]Profile, error) {
	result := make(map[string]Profile, len(builtin)+len(user))
	for name, p := range builtin {
		result[name] = p
	}

	for name, y := range user {
		parsed, err := parseProfile(y)
		if err != nil {
			return nil, fmt.Errorf("profiles.%s: %w", name, err)
		}

		base := result[name] // zero value if name is new
		if err := mergo.Merge(&base, &parsed, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("profiles.%s: merge: %w", name, err)
		}
		result[name] = base
	}

	return result, nil
}
