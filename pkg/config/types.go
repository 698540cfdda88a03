package config

import "time"

// YAMLConfig is the shape of miesc.yaml: everything a deployer may
// override. Pointer/map fields distinguish "absent from file" from
// "explicitly zero", so merge() only overlays what the file actually set.
type YAMLConfig struct {
	System      *SystemYAMLConfig            `yaml:"system"`
	Sidecars    *SidecarYAMLConfig           `yaml:"sidecars"`
	Slack       *SlackYAMLConfig             `yaml:"slack"`
	Store       *StoreYAMLConfig             `yaml:"store"`
	Telemetry   *TelemetryYAMLConfig         `yaml:"telemetry"`
	Tables      *TablesYAMLConfig            `yaml:"tables"`
	Metrics     *MetricsYAMLConfig           `yaml:"metrics"`
	Correlation *CorrelationYAMLConfig       `yaml:"correlation"`
	Profiles    map[string]ProfileYAMLConfig `yaml:"profiles"`
}

// SystemYAMLConfig groups system-wide infrastructure settings.
type SystemYAMLConfig struct {
	DashboardURL   string   `yaml:"dashboard_url,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
	BusBufferSize  int      `yaml:"bus_buffer_size,omitempty"`
	BusReplayLimit int      `yaml:"bus_replay_limit,omitempty"`
}

// SidecarYAMLConfig holds the HTTP endpoints of the three sidecar-backed
// builtin adapters (spec.md layers 6/7/9). These are the only per-tool
// configuration knobs a deployer has — every other builtin adapter shells
// out to a local CLI and needs no endpoint.
type SidecarYAMLConfig struct {
	AIDetector    string `yaml:"ai_detector,omitempty"`
	MLClassifier  string `yaml:"ml_classifier,omitempty"`
	EnsembleVoter string `yaml:"ensemble_voter,omitempty"`
}

// SlackYAMLConfig holds Slack audit-notification settings.
type SlackYAMLConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	TokenEnv string `yaml:"token_env,omitempty"`
	Channel  string `yaml:"channel,omitempty"`
}

// StoreYAMLConfig selects and parameterizes the persisted audit store
// (spec.md §6.6). Empty BaseDir disables filesystem persistence; empty
// PostgresDSN disables the durable Postgres event log.
type StoreYAMLConfig struct {
	BaseDir     string `yaml:"base_dir,omitempty"`
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`
}

// TelemetryYAMLConfig selects the OpenTelemetry exporter.
type TelemetryYAMLConfig struct {
	ServiceName  string `yaml:"service_name,omitempty"`
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
}

// TablesYAMLConfig points at the static JSON lookup tables (spec.md §6.7).
// Relative paths resolve against configDir.
type TablesYAMLConfig struct {
	TaxonomyPath   string `yaml:"taxonomy_path,omitempty"`
	SeverityPath   string `yaml:"severity_path,omitempty"`
	FPPriorsPath   string `yaml:"fp_priors_path,omitempty"`
	CompliancePath string `yaml:"compliance_path,omitempty"`
}

// ProfileYAMLConfig overrides or extends one named audit profile. A profile
// present in YAML but absent from the built-in set defines a wholly new
// profile; a profile present in both overlays field-by-field (merge.go).
type ProfileYAMLConfig struct {
	Layers              []int             `yaml:"layers,omitempty"`
	GlobalDeadline      string            `yaml:"global_deadline,omitempty"`
	CrossLayerMode      string            `yaml:"cross_layer_mode,omitempty"`
	CancelGracePeriod   string            `yaml:"cancel_grace_period,omitempty"`
	PerToolDeadlines    map[string]string `yaml:"per_tool_deadlines,omitempty"`
	MaxParallelPerLayer map[int]int       `yaml:"max_parallel_per_layer,omitempty"`
}

// Profile is a fully-resolved, parsed audit profile — durations parsed,
// ready to feed scheduler.Config.
type Profile struct {
	Layers              []int
	GlobalDeadline      time.Duration
	CrossLayerMode      string
	CancelGracePeriod   time.Duration
	PerToolDeadlines    map[string]time.Duration
	MaxParallelPerLayer map[int]int
}

// Sidecars is the resolved sidecar endpoint set.
type Sidecars struct {
	AIDetector    string
	MLClassifier  string
	EnsembleVoter string
}

// System is the resolved system-wide settings block.
type System struct {
	DashboardURL   string
	AllowedOrigins []string
	BusBufferSize  int
	BusReplayLimit int
}

// Slack is the resolved Slack notification settings block. The token itself
// is never stored here — it is read from the environment variable named by
// TokenEnv at the point pkg/notify.NewSink is constructed, so a config dump
// never contains the secret.
type Slack struct {
	Enabled  bool
	TokenEnv string
	Channel  string
}

// Store is the resolved persisted-store settings block.
type Store struct {
	BaseDir     string
	PostgresDSN string
}

// Telemetry is the resolved OpenTelemetry settings block.
type Telemetry struct {
	ServiceName  string
	OTLPEndpoint string
}

// Tables is the resolved static-table path set.
type Tables struct {
	TaxonomyPath   string
	SeverityPath   string
	FPPriorsPath   string
	CompliancePath string
}

// MetricsYAMLConfig carries optional static precision/recall/F1 figures for
// get_metrics (spec.md §9: "the AOC does not depend on any particular
// figure"). Pointer fields so an unconfigured figure stays absent rather
// than reporting a fabricated 0.
type MetricsYAMLConfig struct {
	PrecisionEstimate *float64 `yaml:"precision_estimate,omitempty"`
	RecallEstimate    *float64 `yaml:"recall_estimate,omitempty"`
	F1                *float64 `yaml:"f1,omitempty"`
}

// Metrics is the resolved static-metrics block.
type Metrics struct {
	PrecisionEstimate *float64
	RecallEstimate    *float64
	F1                *float64
}

// CorrelationYAMLConfig tunes the correlation engine (spec.md §6.5).
type CorrelationYAMLConfig struct {
	CrossValidationRequired []string `yaml:"cross_validation_required,omitempty"`
	SingleToolMaxConfidence *float64 `yaml:"single_tool_max_confidence,omitempty"`
}

// Correlation is the resolved correlation-engine settings block.
type Correlation struct {
	CrossValidationRequired []string
	SingleToolMaxConfidence float64
}
