package notify

import (
	"context"
	"fmt"
	"time"

	goslack "github.com/slack-go/slack"
)

// slackClient is a thin wrapper around the slack-go SDK, posting
// unthreaded summary messages. Unlike a session-originated alert bot,
// audits are never triggered from an inbound Slack message, so there is
// no prior message to thread a reply under.
type slackClient struct {
	api       *goslack.Client
	channelID string
}

func newSlackClient(token, channelID string) *slackClient {
	return &slackClient{api: goslack.New(token), channelID: channelID}
}

// newSlackClientWithAPIURL targets a custom API URL, for testing against a
// mock server.
func newSlackClientWithAPIURL(token, channelID, apiURL string) *slackClient {
	return &slackClient{api: goslack.New(token, goslack.OptionAPIURL(apiURL)), channelID: channelID}
}

func (c *slackClient) postMessage(ctx context.Context, blocks []goslack.Block, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, _, err := c.api.PostMessageContext(ctx, c.channelID, goslack.MsgOptionBlocks(blocks...))
	if err != nil {
		return fmt.Errorf("chat.postMessage failed: %w", err)
	}
	return nil
}
