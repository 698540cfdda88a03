package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/miesc-dev/miesc/pkg/audit"
	"github.com/miesc-dev/miesc/pkg/finding"
)

var auditToolIDs []string

var auditCmd = &cobra.Command{
	Use:   "audit <profile> <target>",
	Short: "Run a security audit against target with the given profile",
	Long: `Run a security audit and block until it reaches a terminal state.

Profiles: quick, standard, full, custom (custom requires --tools).
Exit codes (spec.md §6.4): 0 = no HIGH/CRITICAL findings, 1 = HIGH/CRITICAL
findings present, 2 = configuration error, 3 = internal error.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAudit(cmd.Context(), args[0], args[1], auditToolIDs)
	},
}

func init() {
	auditCmd.Flags().StringSliceVar(&auditToolIDs, "tools", nil, "tool ids to run (profile=custom only)")
}

func runAudit(ctx context.Context, profile, target string, toolIDs []string) error {
	a, err := newApp(ctx, configDir)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	auditID, err := a.coordinator.StartAudit(ctx, audit.StartRequest{
		TargetPath: target,
		Profile:    profile,
		ToolIDs:    toolIDs,
	})
	if err != nil {
		return fmt.Errorf("start audit: %w", err)
	}

	report, err := awaitTerminal(a.coordinator, auditID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if hasHighOrCritical(report.Findings) {
		return dieWith(1)
	}
	return nil
}

// awaitTerminal polls GetStatus until auditID reaches a terminal state,
// then returns its final report. There is no bus subscription here because
// the CLI runs one audit at a time and exits — the bus exists for the
// server's multi-client event stream (spec.md §6.1 get_status/§6.2 events).
func awaitTerminal(c *audit.Coordinator, auditID string) (audit.Report, error) {
	for {
		state, err := c.GetStatus(auditID)
		if err != nil {
			return audit.Report{}, fmt.Errorf("get status: %w", err)
		}
		if state.Terminal() {
			return c.GetReport(auditID)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func hasHighOrCritical(findings []finding.CorrelatedFinding) bool {
	for _, f := range findings {
		if f.SeverityFinal == finding.SeverityHigh || f.SeverityFinal == finding.SeverityCritical {
			return true
		}
	}
	return false
}
