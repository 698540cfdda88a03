package builtin

import "github.com/miesc-dev/miesc/pkg/finding"

// ParseSlitherOutputForTest exposes parseSlitherOutput to external tests.
func ParseSlitherOutputForTest(stdout, stderr []byte) ([]finding.RawFinding, error) {
	return parseSlitherOutput(stdout, stderr)
}

// ParseScribbleOutputForTest exposes parseScribbleOutput to external tests.
func ParseScribbleOutputForTest(stdout, stderr []byte) ([]finding.RawFinding, error) {
	return parseScribbleOutput(stdout, stderr)
}
