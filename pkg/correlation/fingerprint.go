package correlation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/miesc-dev/miesc/pkg/finding"
)

// LineBucketSize is the fingerprint's location fuzz window (spec.md §4.6):
// two findings whose line_start values round to the same bucket of this
// size are considered the same location, so near-identical line numbers
// reported by different tools (off-by-one or off-by-a-few due to AST vs.
// byte-offset reporting) still fingerprint identically.
const LineBucketSize = 3

// Fingerprint computes the correlation key for f: a deterministic hash over
// its normalized vulnerability class, file, bucketed line, contract, and
// function (spec.md §4.6 step 1: "hash(normalized_class, file_path,
// round(line_start/3)*3, contract, function)") — but never its source tool,
// which is the whole point: two different tools reporting the same
// underlying bug must fingerprint identically.
func Fingerprint(f finding.Finding) string {
	class := normalizedClass(f)
	file := strings.TrimSpace(f.Location.File)
	bucket := roundToBucket(f.Location.LineStart, LineBucketSize)

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%s\x00%s", class, file, bucket, f.Location.Contract, f.Location.Function)
	return hex.EncodeToString(h.Sum(nil))
}

// normalizedClass derives f's normalized vulnerability class: the taxonomy
// SWC id when present, else a canonicalized bucket string built from the
// tool-native vulnerability_type (spec.md §4.6 step 1). Built-in adapters
// each emit their own native label for the same underlying bug class
// (slither's Check, manticore's Name, the ML classifier's Class), so this
// is what lets findings from different tools collapse onto one fingerprint.
func normalizedClass(f finding.Finding) string {
	if swc := strings.TrimSpace(f.Taxonomy.SWC); swc != "" {
		return strings.ToLower(swc)
	}
	return canonicalVulnClass(f.VulnerabilityType)
}

func canonicalVulnClass(class string) string {
	class = strings.ToLower(strings.TrimSpace(class))
	return strings.Join(strings.Fields(class), "")
}
