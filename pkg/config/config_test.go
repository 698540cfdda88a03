package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_ConfigDirAndProfile(t *testing.T) {
	cfg := Defaults()
	cfg.configDir = "/etc/miesc"

	assert.Equal(t, "/etc/miesc", cfg.ConfigDir())

	p, ok := cfg.Profile("quick")
	assert.True(t, ok)
	assert.Equal(t, []int{1}, p.Layers)

	_, ok = cfg.Profile("nonexistent")
	assert.False(t, ok)
}

func TestProfile_SchedulerConfig(t *testing.T) {
	p := Profile{
		Layers:         []int{1, 2},
		GlobalDeadline: 5 * time.Minute,
		CrossLayerMode: "pipelined",
	}

	sc := p.SchedulerConfig()
	assert.Equal(t, 5*time.Minute, sc.GlobalDeadline)
	assert.EqualValues(t, "pipelined", sc.CrossLayerMode)
}

func TestConfig_SchedulerConfigs(t *testing.T) {
	cfg := Defaults()
	scs := cfg.SchedulerConfigs()
	full := scs["full"]
	assert.Equal(t, 30*time.Minute, full.GlobalDeadline)
}

func TestConfig_SlackToken(t *testing.T) {
	cfg := Defaults()
	cfg.Slack.TokenEnv = "SLACK_BOT_TOKEN"

	lookup := func(key string) string {
		if key == "SLACK_BOT_TOKEN" {
			return "xoxb-secret"
		}
		return ""
	}
	assert.Equal(t, "xoxb-secret", cfg.SlackToken(lookup))

	cfg.Slack.TokenEnv = ""
	assert.Equal(t, "", cfg.SlackToken(lookup))
}
