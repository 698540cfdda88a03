package builtin

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/miesc-dev/miesc/pkg/finding"
)

// NewScribble builds the layer-5 property-based testing adapter. Scribble
// annotations compile to runtime assertions; failures surface as lines of
// the form "Property violated: <file>:<line> <name> - <message>" on stdout
// when run under its harness, which this adapter scrapes rather than
// parsing JSON (the harness has no structured output mode).
func NewScribble(sev finding.SeverityTable, tax finding.TaxonomyTable) CLIAdapter {
	a := CLIAdapter{
		Command:     "scribble-runtime",
		BaseArgs:    []string{"--mode", "test"},
		VersionArgs: []string{"--version"},
	}
	a.Meta = finding.Tool{ID: "scribble", Layer: 5, Category: finding.CategoryProperty, Optional: true, License: "Apache-2.0"}
	a.Severity = sev
	a.Taxonomy = tax
	a.Parse = parseScribbleOutput
	return a
}

const scribbleViolationPrefix = "Property violated: "

func parseScribbleOutput(stdout, _ []byte) ([]finding.RawFinding, error) {
	var out []finding.RawFinding
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, scribbleViolationPrefix) {
			continue
		}
		rf, err := parseScribbleLine(strings.TrimPrefix(line, scribbleViolationPrefix))
		if err != nil {
			continue // a malformed line shouldn't sink the whole run
		}
		out = append(out, rf)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan scribble output: %w", err)
	}
	return out, nil
}

func parseScribbleLine(rest string) (finding.RawFinding, error) {
	locAndTail := strings.SplitN(rest, " ", 2)
	if len(locAndTail) != 2 {
		return finding.RawFinding{}, fmt.Errorf("malformed scribble line: %q", rest)
	}
	fileLine := strings.SplitN(locAndTail[0], ":", 2)
	if len(fileLine) != 2 {
		return finding.RawFinding{}, fmt.Errorf("malformed scribble location: %q", locAndTail[0])
	}
	lineNo, err := strconv.Atoi(fileLine[1])
	if err != nil {
		return finding.RawFinding{}, fmt.Errorf("malformed scribble line number: %w", err)
	}
	nameAndMsg := strings.SplitN(locAndTail[1], " - ", 2)
	name := strings.TrimSpace(nameAndMsg[0])
	msg := ""
	if len(nameAndMsg) == 2 {
		msg = nameAndMsg[1]
	}
	return finding.RawFinding{
		SourceTool:        "scribble",
		VulnerabilityType: "property-violation",
		SeverityNative:    "Medium",
		ConfidenceRaw:     0.9,
		Location:          finding.Location{File: fileLine[0], LineStart: lineNo},
		Title:             name,
		Description:       msg,
	}, nil
}
