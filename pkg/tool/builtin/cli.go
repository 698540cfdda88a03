// Package builtin provides the nine reference Adapter implementations, one
// per analysis layer (spec.md §2), wired to external tool binaries or HTTP
// sidecars. Each adapter is a thin shim: subprocess/HTTP plumbing plus a
// tool-specific parse function that turns native output into
// finding.RawFinding.
package builtin

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/miesc-dev/miesc/pkg/aocerrors"
	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/tool"
)

// AvailabilityProbeTimeout bounds the `--version`-style probe CLIAdapter
// runs to decide whether a binary is usable.
const AvailabilityProbeTimeout = 3 * time.Second

// ParseFunc turns one tool's raw stdout/stderr into RawFindings.
type ParseFunc func(stdout, stderr []byte) ([]finding.RawFinding, error)

// CLIAdapter wraps a subprocess-based analyzer (spec.md §4.2), the shape
// shared by static/dynamic/symbolic/formal/property analyzers invoked as
// CLI binaries.
type CLIAdapter struct {
	tool.BaseAdapter
	Command     string
	BaseArgs    []string
	TargetFlag  string // e.g. "--target"; appended as TargetFlag, targetPath
	VersionArgs []string
	Parse       ParseFunc
}

// Availability runs `<command> <versionArgs>` and classifies the result.
func (a CLIAdapter) Availability(ctx context.Context) finding.Availability {
	if _, err := exec.LookPath(a.Command); err != nil {
		return finding.AvailabilityNotInstalled
	}
	probeCtx, cancel := context.WithTimeout(ctx, AvailabilityProbeTimeout)
	defer cancel()
	args := a.VersionArgs
	if len(args) == 0 {
		args = []string{"--version"}
	}
	cmd := exec.CommandContext(probeCtx, a.Command, args...)
	if err := cmd.Run(); err != nil {
		return finding.AvailabilityMisconfigured
	}
	return finding.AvailabilityAvailable
}

// Analyze runs the tool against req.TargetPath and parses its output.
func (a CLIAdapter) Analyze(ctx context.Context, req tool.AnalyzeRequest) (tool.AnalyzeResult, error) {
	args := make([]string, 0, len(a.BaseArgs)+2)
	args = append(args, a.BaseArgs...)
	if a.TargetFlag != "" {
		args = append(args, a.TargetFlag, req.TargetPath)
	} else {
		args = append(args, req.TargetPath)
	}

	cmd := exec.CommandContext(ctx, a.Command, args...)
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	partial := ctx.Err() != nil

	raw, parseErr := a.Parse(stdout.Bytes(), stderr.Bytes())
	if parseErr != nil {
		kind := aocerrors.KindToolFailedPermanent
		if partial {
			kind = aocerrors.KindToolTimeout
		}
		return tool.AnalyzeResult{Stdout: stdout.String(), Stderr: stderr.String(), PartialTimeout: partial},
			aocerrors.Wrapf(kind, fmt.Sprintf("%s.Analyze", a.Meta.ID), "parse output: %v (run error: %v)", parseErr, runErr)
	}

	return tool.AnalyzeResult{
		Raw:            raw,
		PartialTimeout: partial,
		Stdout:         stdout.String(),
		Stderr:         stderr.String(),
	}, nil
}
