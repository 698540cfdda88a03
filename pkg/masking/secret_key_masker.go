package masking

import (
	"encoding/json"
	"strings"
)

// MaskedValue replaces a masked leaf value.
const MaskedValue = "[MASKED]"

// sensitiveKeyNames are JSON object keys whose value is masked regardless
// of content, wherever they appear in a nested payload — generalized from
// the teacher's KubernetesSecretMasker, which masks data/stringData fields
// only inside Secret-kind resources. A tool's raw JSON output has no
// analogous "kind" discriminator, so the AOC masker keys off field name
// alone.
var sensitiveKeyNames = map[string]bool{
	"private_key":    true,
	"privatekey":     true,
	"secret":         true,
	"secret_key":     true,
	"mnemonic":       true,
	"seed_phrase":    true,
	"password":       true,
	"api_key":        true,
	"apikey":         true,
	"token":          true,
	"access_token":   true,
	"authorization":  true,
}

// StructuralJSONMasker masks values under known-sensitive key names inside
// a JSON object or array, leaving every other field untouched. It is the
// code-based masker registered by default in Service.
type StructuralJSONMasker struct{}

// Name returns the unique identifier for this masker.
func (StructuralJSONMasker) Name() string { return "structural_json" }

// AppliesTo performs a lightweight check for whether data looks like JSON
// worth parsing.
func (StructuralJSONMasker) AppliesTo(data string) bool {
	trimmed := strings.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// Mask parses data as JSON, masks any value under a sensitive key name,
// and re-serializes it. Returns the original data unchanged on parse
// error (defensive — never corrupt un-parseable tool output).
func (StructuralJSONMasker) Mask(data string) string {
	var doc any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return data
	}
	maskValue(doc)
	out, err := json.Marshal(doc)
	if err != nil {
		return data
	}
	return string(out)
}

// maskValue walks v in place, masking string values under sensitive keys.
func maskValue(v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if sensitiveKeyNames[strings.ToLower(k)] {
				if _, isString := val.(string); isString {
					t[k] = MaskedValue
					continue
				}
			}
			maskValue(val)
		}
	case []any:
		for _, item := range t {
			maskValue(item)
		}
	}
}

// maskAny walks v (already decoded, not a JSON string) in place, masking
// string values under sensitive keys — used by Service.MaskPayload, which
// operates on the already-unmarshaled RawPayload rather than a raw string.
func maskAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if sensitiveKeyNames[strings.ToLower(k)] {
				if _, isString := val.(string); isString {
					out[k] = MaskedValue
					continue
				}
			}
			out[k] = maskAny(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = maskAny(item)
		}
		return out
	case string:
		return t
	default:
		return t
	}
}
