package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const yamlFileName = "miesc.yaml"

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load miesc.yaml from configDir (missing file is not an error — the
//     built-in baseline alone is a valid configuration)
//  2. Expand environment variables in YAML scalars
//  3. Merge built-in defaults with the user-defined file
//  4. Resolve system/sidecar/slack/store/telemetry/table blocks
//  5. Validate
//  6. Return Config ready for use
//
// `.env` loading (github.com/joho/godotenv) happens in cmd/miesc before
// Initialize is called, so environment expansion below already sees
// whatever the .env file set.
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	yamlCfg, err := loadYAMLFile(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg, err := build(configDir, yamlCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	log.Info("configuration initialized", "profiles", len(cfg.Profiles))
	return cfg, nil
}

func loadYAMLFile(configDir string) (*YAMLConfig, error) {
	path := filepath.Join(configDir, yamlFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &YAMLConfig{}, nil
		}
		return nil, err
	}

	data = ExpandEnv(data)

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidYAML, path, err)
	}
	return &cfg, nil
}

func build(configDir string, y *YAMLConfig) (*Config, error) {
	cfg := Defaults()
	cfg.configDir = configDir

	profiles, err := mergeProfiles(cfg.Profiles, y.Profiles)
	if err != nil {
		return nil, err
	}
	cfg.Profiles = profiles

	cfg.Sidecars = resolveSidecars(y.Sidecars)
	cfg.System = resolveSystem(cfg.System, y.System)
	cfg.Slack = resolveSlack(y.Slack)
	cfg.Store = resolveStore(y.Store)
	cfg.Telemetry = resolveTelemetry(cfg.Telemetry, y.Telemetry)
	cfg.Tables = resolveTables(configDir, cfg.Tables, y.Tables)
	cfg.Metrics = resolveMetrics(y.Metrics)
	cfg.Correlation = resolveCorrelation(y.Correlation)

	return cfg, nil
}

func resolveSidecars(y *SidecarYAMLConfig) Sidecars {
	if y == nil {
		return Sidecars{}
	}
	return Sidecars{
		AIDetector:    y.AIDetector,
		MLClassifier:  y.MLClassifier,
		EnsembleVoter: y.EnsembleVoter,
	}
}

func resolveSystem(base System, y *SystemYAMLConfig) System {
	if y == nil {
		return base
	}
	if y.DashboardURL != "" {
		base.DashboardURL = y.DashboardURL
	}
	if len(y.AllowedOrigins) > 0 {
		base.AllowedOrigins = y.AllowedOrigins
	}
	if y.BusBufferSize > 0 {
		base.BusBufferSize = y.BusBufferSize
	}
	if y.BusReplayLimit > 0 {
		base.BusReplayLimit = y.BusReplayLimit
	}
	return base
}

func resolveSlack(y *SlackYAMLConfig) Slack {
	cfg := Slack{TokenEnv: "SLACK_BOT_TOKEN"}
	if y == nil {
		return cfg
	}
	if y.Enabled != nil {
		cfg.Enabled = *y.Enabled
	}
	if y.TokenEnv != "" {
		cfg.TokenEnv = y.TokenEnv
	}
	if y.Channel != "" {
		cfg.Channel = y.Channel
	}
	return cfg
}

func resolveStore(y *StoreYAMLConfig) Store {
	if y == nil {
		return Store{}
	}
	return Store{BaseDir: y.BaseDir, PostgresDSN: y.PostgresDSN}
}

func resolveCorrelation(y *CorrelationYAMLConfig) Correlation {
	if y == nil {
		return Correlation{}
	}
	c := Correlation{CrossValidationRequired: y.CrossValidationRequired}
	if y.SingleToolMaxConfidence != nil {
		c.SingleToolMaxConfidence = *y.SingleToolMaxConfidence
	}
	return c
}

func resolveMetrics(y *MetricsYAMLConfig) Metrics {
	if y == nil {
		return Metrics{}
	}
	return Metrics{
		PrecisionEstimate: y.PrecisionEstimate,
		RecallEstimate:    y.RecallEstimate,
		F1:                y.F1,
	}
}

func resolveTelemetry(base Telemetry, y *TelemetryYAMLConfig) Telemetry {
	if y == nil {
		return base
	}
	if y.ServiceName != "" {
		base.ServiceName = y.ServiceName
	}
	if y.OTLPEndpoint != "" {
		base.OTLPEndpoint = y.OTLPEndpoint
	}
	return base
}

// resolveTables applies user overrides over the built-in table paths, then
// resolves every path against configDir if it is relative.
func resolveTables(configDir string, base Tables, y *TablesYAMLConfig) Tables {
	if y != nil {
		if y.TaxonomyPath != "" {
			base.TaxonomyPath = y.TaxonomyPath
		}
		if y.SeverityPath != "" {
			base.SeverityPath = y.SeverityPath
		}
		if y.FPPriorsPath != "" {
			base.FPPriorsPath = y.FPPriorsPath
		}
		if y.CompliancePath != "" {
			base.CompliancePath = y.CompliancePath
		}
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(configDir, p)
	}
	base.TaxonomyPath = resolve(base.TaxonomyPath)
	base.SeverityPath = resolve(base.SeverityPath)
	base.FPPriorsPath = resolve(base.FPPriorsPath)
	base.CompliancePath = resolve(base.CompliancePath)
	return base
}
