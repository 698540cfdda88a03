package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/miesc-dev/miesc/pkg/audit"
	"github.com/miesc-dev/miesc/pkg/bus"
	"github.com/miesc-dev/miesc/pkg/config"
	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/masking"
	"github.com/miesc-dev/miesc/pkg/notify"
	"github.com/miesc-dev/miesc/pkg/store"
	"github.com/miesc-dev/miesc/pkg/telemetry"
	"github.com/miesc-dev/miesc/pkg/tool"
	"github.com/miesc-dev/miesc/pkg/tool/builtin"
)

// app holds every wired component a subcommand needs. Built once per
// invocation by newApp; the caller is responsible for calling close when
// done (flushes telemetry, closes the Postgres pool if one was opened).
type app struct {
	cfg         *config.Config
	registry    *tool.Registry
	bus         *bus.Bus
	coordinator *audit.Coordinator
	provider    *telemetry.Provider
	pgSink      *store.PostgresSink
}

// newApp builds the full component graph from configDir: load config,
// the four static tables, the builtin adapter registry, the persisted
// store, the Slack notifier, telemetry, and the audit coordinator wired to
// all of it. Mirrors the order of cmd/tarsy/main.go's bootstrap (config ->
// database -> services), adapted to this domain's components.
func newApp(ctx context.Context, configDir string) (*app, error) {
	cfg, err := initConfig(ctx)
	if err != nil {
		return nil, err
	}

	sev, err := finding.LoadSeverityTable(cfg.Tables.SeverityPath)
	if err != nil {
		slog.Error("configuration error", "error", err)
		return nil, dieWith(2)
	}
	tax, err := finding.LoadTaxonomyTable(cfg.Tables.TaxonomyPath)
	if err != nil {
		slog.Error("configuration error", "error", err)
		return nil, dieWith(2)
	}
	fpPriors, err := finding.LoadFPPriorTable(cfg.Tables.FPPriorsPath)
	if err != nil {
		slog.Error("configuration error", "error", err)
		return nil, dieWith(2)
	}
	compliance, err := finding.LoadComplianceTable(cfg.Tables.CompliancePath)
	if err != nil {
		slog.Error("configuration error", "error", err)
		return nil, dieWith(2)
	}

	reg := tool.NewRegistry()
	if err := builtin.RegisterAll(reg, builtin.SidecarURLs{
		AIDetector:    cfg.Sidecars.AIDetector,
		MLClassifier:  cfg.Sidecars.MLClassifier,
		EnsembleVoter: cfg.Sidecars.EnsembleVoter,
	}, sev, tax); err != nil {
		return nil, fmt.Errorf("register builtin adapters: %w", err)
	}

	b := bus.New(cfg.System.BusBufferSize, cfg.System.BusReplayLimit, slog.Default())

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	coordinator := audit.New(reg, b, fpPriors, compliance, slog.Default()).
		WithProfiles(cfg.SchedulerConfigs()).
		WithMasker(masking.NewService()).
		WithTracer(provider.Tracer()).
		WithCorrelationConfig(cfg.Correlation.CrossValidationRequired, cfg.Correlation.SingleToolMaxConfidence)

	a := &app{cfg: cfg, registry: reg, bus: b, coordinator: coordinator, provider: provider}

	if cfg.Store.BaseDir != "" {
		coordinator.WithStore(store.NewFileWriter(cfg.Store.BaseDir))
	}
	if cfg.Store.PostgresDSN != "" {
		sink, err := store.OpenPostgresSink(ctx, store.PostgresConfig{DSN: cfg.Store.PostgresDSN})
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		a.pgSink = sink
		coordinator.WithEventRecorder(sink)
	}
	if cfg.Slack.Enabled {
		if sink := notify.NewSink(notify.Config{
			Token:        cfg.SlackToken(os.Getenv),
			Channel:      cfg.Slack.Channel,
			DashboardURL: cfg.System.DashboardURL,
		}); sink != nil {
			coordinator.WithNotifier(sink)
		}
	}

	return a, nil
}

// close releases resources newApp opened.
func (a *app) close(ctx context.Context) {
	if a.pgSink != nil {
		a.pgSink.Close()
	}
	if err := a.provider.Shutdown(ctx); err != nil {
		slog.Warn("telemetry shutdown", "error", err)
	}
}
