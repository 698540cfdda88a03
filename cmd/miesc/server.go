package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/miesc-dev/miesc/pkg/api"
)

var serverAddr string

var serverCmd = &cobra.Command{
	Use:   "server [rest|rpc]",
	Short: "Serve the JSON-RPC and REST API (both are always registered; the argument only labels the primary surface)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := "rpc"
		if len(args) == 1 {
			mode = args[0]
		}
		if mode != "rest" && mode != "rpc" {
			return dieWith(2)
		}
		return runServer(cmd.Context())
	},
}

func init() {
	serverCmd.Flags().StringVar(&serverAddr, "addr", ":8080", "listen address")
}

func runServer(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configDir)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	srv := api.NewServer(a.coordinator, a.registry, a.bus, api.MetricsResult{
		PrecisionEstimate: a.cfg.Metrics.PrecisionEstimate,
		RecallEstimate:    a.cfg.Metrics.RecallEstimate,
		F1:                a.cfg.Metrics.F1,
	})
	srv.UseCORS(a.cfg.System.AllowedOrigins)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving", "addr", serverAddr)
		errCh <- srv.Start(serverAddr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown", "error", err)
			return dieWith(3)
		}
		return nil
	case err := <-errCh:
		if err != nil {
			slog.Error("server", "error", err)
			return dieWith(3)
		}
		return nil
	}
}
