// Package notify delivers terminal audit notifications to Slack.
package notify

// Config holds the parameters needed to construct a Sink.
type Config struct {
	Token        string
	Channel      string
	DashboardURL string
}
