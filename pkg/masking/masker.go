// Package masking scrubs secret-shaped substrings from tool raw output
// before it is logged or persisted — generalized from the teacher's
// pkg/masking (LLM prompt/response + alert payload masking) to "adapter
// stdout/stderr + Finding.RawPayload".
package masking

// Masker is a code-based masker that needs structural awareness beyond
// regex pattern matching — e.g. only masking values under known-sensitive
// key names in a parsed JSON object, not every string in it.
type Masker interface {
	// Name returns the unique identifier for this masker.
	Name() string

	// AppliesTo performs a lightweight check (string contains, not
	// parsing) on whether this masker should process the data.
	AppliesTo(data string) bool

	// Mask applies masking logic and returns the masked result. Must be
	// defensive: return the original data on parse/processing errors.
	Mask(data string) string
}
