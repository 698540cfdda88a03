package audit

import (
	"time"

	"github.com/miesc-dev/miesc/pkg/scheduler"
	"github.com/miesc-dev/miesc/pkg/tool"
)

// Built-in profile names (spec.md §4.7).
const (
	ProfileQuick    = "quick"
	ProfileStandard = "standard"
	ProfileFull     = "full"
	ProfileCustom   = "custom"
)

// profileLayers maps each built-in profile to the analysis layers it
// includes. Layers not present in the registry are simply absent from the
// resulting wave set — profiles describe intent, not a hard dependency on
// every layer being registered.
var profileLayers = map[string][]int{
	ProfileQuick:    {1},
	ProfileStandard: {1, 2, 3, 5},
	ProfileFull:     {1, 2, 3, 4, 5, 6, 7, 8, 9},
}

// profileDeadlines bounds the whole audit per profile (spec.md §4.7): a
// quick scan should return in minutes, a full assessment may legitimately
// run for the better part of an hour.
var profileDeadlines = map[string]time.Duration{
	ProfileQuick:    2 * time.Minute,
	ProfileStandard: 10 * time.Minute,
	ProfileFull:     30 * time.Minute,
	ProfileCustom:   15 * time.Minute,
}

// resolveToolIDs returns the tool ids a profile selects, given the tools
// currently registered. For "custom" it filters req.ToolIDs down to ids
// that actually exist (an unknown id in a custom selection is dropped, not
// fatal — the scheduler already tolerates individual tools going missing).
func resolveToolIDs(reg *tool.Registry, req StartRequest) []string {
	if req.Profile == ProfileCustom {
		known := make(map[string]bool)
		for _, t := range reg.All() {
			known[t.ID] = true
		}
		var ids []string
		for _, id := range req.ToolIDs {
			if known[id] {
				ids = append(ids, id)
			}
		}
		return ids
	}

	layers, ok := profileLayers[req.Profile]
	if !ok {
		return nil
	}
	wanted := make(map[int]bool, len(layers))
	for _, l := range layers {
		wanted[l] = true
	}
	var ids []string
	for _, t := range reg.All() {
		if wanted[t.Layer] {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// resolveConfig builds the scheduler.Config for a resolved plan. A profile
// wired in via WithProfiles (normally sourced from pkg/config, layering
// miesc.yaml over these same hardcoded defaults) takes priority; an
// unrecognized or unwired profile falls back to this package's own
// baseline, so a Coordinator built without any config layer still behaves
// correctly.
func (c *Coordinator) resolveConfig(profile string) scheduler.Config {
	if sc, ok := c.profiles[profile]; ok {
		return sc
	}

	deadline, ok := profileDeadlines[profile]
	if !ok {
		deadline = profileDeadlines[ProfileCustom]
	}
	return scheduler.Config{
		CrossLayerMode: scheduler.ModeSequential,
		GlobalDeadline: deadline,
	}
}

// ValidProfile reports whether name is a recognized profile.
func ValidProfile(name string) bool {
	switch name {
	case ProfileQuick, ProfileStandard, ProfileFull, ProfileCustom:
		return true
	default:
		return false
	}
}
