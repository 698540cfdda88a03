package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/miesc-dev/miesc/pkg/audit"
)

// Sink posts a summary of each terminal audit (COMPLETED/CANCELLED/FAILED)
// to a configured Slack channel. Nil-safe: NotifyTerminal is a no-op when
// Sink itself is nil, so callers can wire it unconditionally and let it
// no-op when Slack isn't configured.
type Sink struct {
	client       *slackClient
	dashboardURL string
	logger       *slog.Logger
}

// NewSink builds a Sink from cfg. Returns nil if Token or Channel is empty.
func NewSink(cfg Config) *Sink {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	return &Sink{
		client:       newSlackClient(cfg.Token, cfg.Channel),
		dashboardURL: cfg.DashboardURL,
		logger:       slog.Default().With("component", "notify-slack"),
	}
}

// NewSinkWithAPIURL builds a Sink against a custom Slack API URL, for
// testing with a mock server.
func NewSinkWithAPIURL(token, channel, apiURL, dashboardURL string) *Sink {
	return &Sink{
		client:       newSlackClientWithAPIURL(token, channel, apiURL),
		dashboardURL: dashboardURL,
		logger:       slog.Default().With("component", "notify-slack"),
	}
}

// NotifyTerminal implements audit.Notifier. Fail-open: errors are logged,
// never returned — a Slack outage must never affect an audit's own
// lifecycle.
func (s *Sink) NotifyTerminal(ctx context.Context, report audit.Report) {
	if s == nil {
		return
	}

	blocks := buildTerminalMessage(report, s.dashboardURL)
	if err := s.client.postMessage(ctx, blocks, 10*time.Second); err != nil {
		s.logger.Error("failed to send Slack audit notification",
			"audit_id", report.AuditID, "state", report.State, "error", err)
	}
}
