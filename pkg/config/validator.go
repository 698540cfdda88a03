package config

import (
	"fmt"
	"net/url"

	"github.com/miesc-dev/miesc/pkg/scheduler"
)

// Validator validates a loaded Config, failing fast with a wrapped
// ValidationError on the first problem it finds (SPEC_FULL.md §1.3:
// profile layers non-empty, deadlines > 0, buffer sizes ≥ 1).
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for cfg.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate is a convenience wrapper around NewValidator(cfg).ValidateAll().
func Validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}

// ValidateAll runs every check, in the order a misconfiguration is most
// likely to be noticed: profiles first (every audit depends on them), then
// the ambient infrastructure blocks.
func (v *Validator) ValidateAll() error {
	if err := v.validateProfiles(); err != nil {
		return err
	}
	if err := v.validateSystem(); err != nil {
		return err
	}
	if err := v.validateSidecars(); err != nil {
		return err
	}
	if err := v.validateSlack(); err != nil {
		return err
	}
	return nil
}

func (v *Validator) validateProfiles() error {
	if len(v.cfg.Profiles) == 0 {
		return NewValidationError("profile", "", "", fmt.Errorf("%w: at least one profile must be defined", ErrMissingRequiredField))
	}

	for name, p := range v.cfg.Profiles {
		if name != "custom" && len(p.Layers) == 0 {
			return NewValidationError("profile", name, "layers", fmt.Errorf("%w: must list at least one layer", ErrMissingRequiredField))
		}
		if p.GlobalDeadline <= 0 {
			return NewValidationError("profile", name, "global_deadline", fmt.Errorf("%w: must be positive, got %v", ErrInvalidValue, p.GlobalDeadline))
		}
		if p.CancelGracePeriod < 0 {
			return NewValidationError("profile", name, "cancel_grace_period", fmt.Errorf("%w: must be non-negative, got %v", ErrInvalidValue, p.CancelGracePeriod))
		}
		for tool, d := range p.PerToolDeadlines {
			if d <= 0 {
				return NewValidationError("profile", name, "per_tool_deadlines."+tool, fmt.Errorf("%w: must be positive, got %v", ErrInvalidValue, d))
			}
		}
		for layer, n := range p.MaxParallelPerLayer {
			if n < 1 {
				return NewValidationError("profile", name, fmt.Sprintf("max_parallel_per_layer[%d]", layer), fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidValue, n))
			}
		}
		if p.CrossLayerMode != "" && !scheduler.CrossLayerMode(p.CrossLayerMode).Valid() {
			return NewValidationError("profile", name, "cross_layer_mode", fmt.Errorf("%w: %q", ErrInvalidValue, p.CrossLayerMode))
		}
	}
	return nil
}

func (v *Validator) validateSystem() error {
	sys := v.cfg.System
	if sys.BusBufferSize < 1 {
		return NewValidationError("system", "", "bus_buffer_size", fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidValue, sys.BusBufferSize))
	}
	if sys.BusReplayLimit < 1 {
		return NewValidationError("system", "", "bus_replay_limit", fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidValue, sys.BusReplayLimit))
	}
	if sys.DashboardURL != "" {
		if _, err := url.ParseRequestURI(sys.DashboardURL); err != nil {
			return NewValidationError("system", "", "dashboard_url", fmt.Errorf("%w: %v", ErrInvalidValue, err))
		}
	}
	return nil
}

func (v *Validator) validateSidecars() error {
	for field, raw := range map[string]string{
		"ai_detector":    v.cfg.Sidecars.AIDetector,
		"ml_classifier":  v.cfg.Sidecars.MLClassifier,
		"ensemble_voter": v.cfg.Sidecars.EnsembleVoter,
	} {
		if raw == "" {
			continue
		}
		u, err := url.ParseRequestURI(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return NewValidationError("sidecar", field, "", fmt.Errorf("%w: must be an absolute http(s) URL, got %q", ErrInvalidValue, raw))
		}
	}
	return nil
}

func (v *Validator) validateSlack() error {
	if !v.cfg.Slack.Enabled {
		return nil
	}
	if v.cfg.Slack.Channel == "" {
		return NewValidationError("slack", "", "channel", fmt.Errorf("%w: required when slack.enabled is true", ErrMissingRequiredField))
	}
	if v.cfg.Slack.TokenEnv == "" {
		return NewValidationError("slack", "", "token_env", fmt.Errorf("%w: required when slack.enabled is true", ErrMissingRequiredField))
	}
	return nil
}
