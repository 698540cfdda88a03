package main

import (
	"github.com/spf13/cobra"

	"github.com/miesc-dev/miesc/pkg/audit"
)

var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Run a quick audit against target (alias for 'audit quick')",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAudit(cmd.Context(), audit.ProfileQuick, args[0], nil)
	},
}
