package config

import "time"

// builtinProfiles mirrors pkg/audit's hardcoded profile baseline (layers
// and deadlines per named profile). It is the starting point every
// user-supplied profiles: block in miesc.yaml merges onto — never the only
// source of truth: pkg/audit keeps its own copy as a last-resort fallback
// for callers that construct a Coordinator without going through
// pkg/config at all (e.g. unit tests), so the two must be kept in sync by
// hand; see DESIGN.md.
var builtinProfiles = map[string]Profile{
	"quick": {
		Layers:         []int{1},
		GlobalDeadline: 2 * time.Minute,
		CrossLayerMode: "sequential",
	},
	"standard": {
		Layers:         []int{1, 2, 3, 5},
		GlobalDeadline: 10 * time.Minute,
		CrossLayerMode: "sequential",
	},
	"full": {
		Layers:         []int{1, 2, 3, 4, 5, 6, 7, 8, 9},
		GlobalDeadline: 30 * time.Minute,
		CrossLayerMode: "sequential",
	},
	"custom": {
		GlobalDeadline: 15 * time.Minute,
		CrossLayerMode: "sequential",
	},
}

// defaultBusBufferSize/defaultBusReplayLimit mirror pkg/bus.DefaultBufferSize
// and the zero replay-window pkg/bus.New falls back to.
const (
	defaultBusBufferSize  = 1024
	defaultBusReplayLimit = 256
)

const defaultTelemetryServiceName = "miesc"

// defaultTablesDir is where the static JSON lookup tables (spec.md §6.7)
// are expected relative to the config directory when not overridden.
const defaultTablesDir = "tables"

// Defaults returns the hardcoded baseline every loaded Config merges user
// overrides onto: profile presets, bus buffer sizes, and static-table
// paths. Never returns an invalid Config — Validate(Defaults()) always
// succeeds.
func Defaults() *Config {
	profiles := make(map[string]Profile, len(builtinProfiles))
	for name, p := range builtinProfiles {
		profiles[name] = p
	}

	return &Config{
		Profiles: profiles,
		System: System{
			BusBufferSize:  defaultBusBufferSize,
			BusReplayLimit: defaultBusReplayLimit,
		},
		Telemetry: Telemetry{
			ServiceName: defaultTelemetryServiceName,
		},
		Tables: Tables{
			TaxonomyPath:   defaultTablesDir + "/taxonomy_map.json",
			SeverityPath:   defaultTablesDir + "/severity_map.json",
			FPPriorsPath:   defaultTablesDir + "/fp_priors.json",
			CompliancePath: defaultTablesDir + "/compliance_map.json",
		},
	}
}
