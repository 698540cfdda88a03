package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"

	"github.com/miesc-dev/miesc/pkg/audit"
)

func TestEventsHandler_StreamsLifecycleEvents(t *testing.T) {
	s, _, _ := newTestServer()
	srv := httptest.NewServer(s.echo)
	defer srv.Close()

	auditID, err := s.coordinator.StartAudit(context.Background(), audit.StartRequest{TargetPath: ".", Profile: "quick"})
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/mcp/events/" + auditID
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	seenCompleted := false
	for !seenCompleted {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)

		var evt wireEvent
		require.NoError(t, json.Unmarshal(data, &evt))
		if evt.Topic == "audit.completed" {
			seenCompleted = true
		}
	}
}
