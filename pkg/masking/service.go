package masking

import (
	"log/slog"
	"strings"
)

// Service applies data masking to adapter stdout/stderr and Finding
// RawPayload before either is logged or persisted. Created once at
// startup (singleton pattern from the teacher's MaskingService);
// thread-safe and stateless aside from its compiled patterns.
type Service struct {
	patterns []*CompiledPattern
	maskers  []Masker
}

// NewService builds a masking Service with every built-in pattern plus any
// operator-supplied custom patterns compiled eagerly. Invalid patterns are
// logged and skipped rather than failing construction.
func NewService(custom ...CustomPattern) *Service {
	s := &Service{}
	s.compileBuiltinPatterns()
	s.compileCustomPatterns(custom)
	s.maskers = append(s.maskers, StructuralJSONMasker{})

	slog.Info("masking service initialized",
		"patterns", len(s.patterns), "code_maskers", len(s.maskers))

	return s
}

// MaskText applies the code-based maskers then the regex pattern sweep to
// a plain string — the adapter stdout/stderr capture path.
func (s *Service) MaskText(text string) string {
	if text == "" {
		return text
	}
	masked := text
	for _, m := range s.maskers {
		if m.AppliesTo(masked) {
			masked = m.Mask(masked)
		}
	}
	for _, p := range s.patterns {
		masked = p.Regex.ReplaceAllString(masked, p.Replacement)
	}
	return masked
}

// MaskPayload masks an already-decoded JSON value (a Finding's
// RawPayload): values under sensitive key names are replaced
// structurally, and any remaining string leaf is swept through the regex
// patterns. Non-JSON-shaped payloads (numbers, bools, nil) pass through
// unchanged.
func (s *Service) MaskPayload(payload any) any {
	if payload == nil {
		return nil
	}
	structural := maskAny(payload)
	return s.sweepStrings(structural)
}

// sweepStrings walks v, applying the regex pattern sweep to every string
// leaf that survived the structural pass.
func (s *Service) sweepStrings(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = s.sweepStrings(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = s.sweepStrings(item)
		}
		return out
	case string:
		masked := t
		for _, p := range s.patterns {
			masked = p.Regex.ReplaceAllString(masked, p.Replacement)
		}
		return masked
	default:
		return t
	}
}

// MaskJoined masks text composed of multiple lines/fields, convenience for
// callers masking stdout and stderr together before logging both.
func (s *Service) MaskJoined(parts ...string) string {
	return s.MaskText(strings.Join(parts, "\n"))
}
