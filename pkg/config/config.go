package config

import (
	"fmt"

	"github.com/miesc-dev/miesc/pkg/scheduler"
)

// Config is the umbrella configuration object every other package is built
// from. It is the primary object returned by Initialize() and used
// throughout cmd/miesc.
type Config struct {
	configDir string // configuration directory path, for reference only

	Profiles  map[string]Profile
	Sidecars  Sidecars
	System    System
	Slack     Slack
	Store     Store
	Telemetry Telemetry
	Tables      Tables
	Metrics     Metrics
	Correlation Correlation
}

// Initialize is defined in loader.go

// ConfigDir returns the directory Initialize loaded this Config from.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Profile looks up a named profile, reporting false if unknown.
func (c *Config) Profile(name string) (Profile, bool) {
	p, ok := c.Profiles[name]
	return p, ok
}

// SchedulerConfig converts a resolved Profile into scheduler.Config, the
// shape pkg/scheduler and pkg/audit actually consume. pkg/audit never
// imports pkg/config — cmd/miesc calls this once per profile at startup
// and wires the result in via audit.Coordinator.WithProfiles.
func (p Profile) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		MaxParallelPerLayer: p.MaxParallelPerLayer,
		CrossLayerMode:      scheduler.CrossLayerMode(p.CrossLayerMode),
		PerToolDeadlines:    p.PerToolDeadlines,
		GlobalDeadline:      p.GlobalDeadline,
		CancelGracePeriod:   p.CancelGracePeriod,
	}
}

// SchedulerConfigs converts every profile in c to a scheduler.Config map,
// ready for audit.Coordinator.WithProfiles.
func (c *Config) SchedulerConfigs() map[string]scheduler.Config {
	out := make(map[string]scheduler.Config, len(c.Profiles))
	for name, p := range c.Profiles {
		out[name] = p.SchedulerConfig()
	}
	return out
}

// slackTokenFromEnv resolves the Slack bot token from the environment
// variable named by Slack.TokenEnv. Kept as a method so a zero-value Slack
// (TokenEnv empty) resolves to "" rather than reading an arbitrary env var.
func (s Slack) slackTokenFromEnv(lookup func(string) string) string {
	if s.TokenEnv == "" {
		return ""
	}
	return lookup(s.TokenEnv)
}

// SlackToken resolves the Slack bot token via lookup (normally os.Getenv),
// for callers building a pkg/notify.Config without reaching into c.Slack
// directly.
func (c *Config) SlackToken(lookup func(string) string) string {
	return c.Slack.slackTokenFromEnv(lookup)
}

// String renders c for logging, omitting secrets (there are none to print —
// the Slack token lives only in the environment, never in this struct).
func (c *Config) String() string {
	return fmt.Sprintf("Config{profiles=%d, dashboard_url=%q, store_base_dir=%q}",
		len(c.Profiles), c.System.DashboardURL, c.Store.BaseDir)
}
