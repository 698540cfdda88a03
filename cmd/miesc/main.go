// Command miesc is the Analysis Orchestration Core CLI: it wires the
// configuration, tool registry, scheduler, and correlation layers together
// and exposes them as subcommands (spec.md §6.4), generalized from the
// teacher's cmd/tarsy bootstrap (load config, load .env, wire services,
// serve) into a cobra command tree instead of a single main().
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/miesc-dev/miesc/pkg/config"
	"github.com/miesc-dev/miesc/pkg/version"
)

// osExit is a var so commands_test.go (if added later) can stub it out,
// matching rcourtman-Pulse's cmd/pulse/bootstrap.go pattern.
var osExit = os.Exit

// exitError carries the process exit code a subcommand wants without
// forcing cobra to print a usage line for conditions that aren't usage
// errors (spec.md §6.4's exit codes 1 and 2 are expected outcomes, not
// programming mistakes).
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit code %d", e.code) }

func dieWith(code int) error { return &exitError{code} }

var configDir string

var rootCmd = &cobra.Command{
	Use:           "miesc",
	Short:         "Analysis Orchestration Core: smart-contract security audit orchestrator",
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")

	rootCmd.AddCommand(auditCmd, scanCmd, doctorCmd, serverCmd)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			osExit(ee.code)
		}
		slog.Error("miesc: fatal", "error", err)
		osExit(3)
	}
	osExit(0)
}

// loadDotEnv loads a .env file from configDir before config.Initialize runs,
// matching cmd/tarsy/main.go: a missing .env is a warning, not a fatal error.
func loadDotEnv(dir string) {
	envPath := filepath.Join(dir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	}
}

// initConfig loads and validates configuration from configDir, returning a
// dieWith(2) exitError on any failure (spec.md §6.4: exit code 2 =
// configuration error).
func initConfig(ctx context.Context) (*config.Config, error) {
	loadDotEnv(configDir)
	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		slog.Error("configuration error", "error", err)
		return nil, dieWith(2)
	}
	return cfg, nil
}
