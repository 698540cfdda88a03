package notify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miesc-dev/miesc/pkg/audit"
	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/notify"
)

// mockSlackServer records chat.postMessage calls made against it.
type mockSlackServer struct {
	mu     sync.Mutex
	calls  int
	server *httptest.Server
}

func newMockSlackServer() *mockSlackServer {
	m := &mockSlackServer{}
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.calls++
		m.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "channel": "C123", "ts": "1700000000.000001"}`))
	}))
	return m
}

func (m *mockSlackServer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNewSink_NilWhenUnconfigured(t *testing.T) {
	assert.Nil(t, notify.NewSink(notify.Config{Token: "", Channel: "C1"}))
	assert.Nil(t, notify.NewSink(notify.Config{Token: "xoxb-test", Channel: ""}))
}

func TestSink_NilReceiverIsNoOp(t *testing.T) {
	var s *notify.Sink
	require.NotPanics(t, func() {
		s.NotifyTerminal(context.Background(), audit.Report{AuditID: "a1", State: audit.StateCompleted})
	})
}

func TestSink_NotifyTerminalPostsOneMessage(t *testing.T) {
	mock := newMockSlackServer()
	defer mock.server.Close()

	s := notify.NewSinkWithAPIURL("xoxb-test", "C123", mock.server.URL+"/", "https://dashboard.example.com")

	report := audit.Report{
		AuditID: "audit-1",
		State:   audit.StateCompleted,
		Findings: []finding.CorrelatedFinding{
			{SeverityFinal: finding.SeverityCritical},
			{SeverityFinal: finding.SeverityCritical},
			{SeverityFinal: finding.SeverityLow},
		},
	}

	s.NotifyTerminal(context.Background(), report)

	require.Eventually(t, func() bool { return mock.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestSink_NotifyTerminalFailedIncludesError(t *testing.T) {
	mock := newMockSlackServer()
	defer mock.server.Close()

	s := notify.NewSinkWithAPIURL("xoxb-test", "C123", mock.server.URL+"/", "")

	s.NotifyTerminal(context.Background(), audit.Report{
		AuditID: "audit-2",
		State:   audit.StateFailed,
		Error:   "global deadline exceeded before any tool completed",
	})

	require.Eventually(t, func() bool { return mock.count() == 1 }, time.Second, 10*time.Millisecond)
}
