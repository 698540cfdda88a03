package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/miesc-dev/miesc/pkg/bus"
)

// EventLogTopics is every lifecycle and progress topic worth persisting to
// events.ndjson. The bus only multiplexes exact (audit_id, topic) pairs
// (bus.Bus.Subscribe has no wildcard), so a consumer wanting "every event
// for an audit" enumerates the known topics itself — mirrors the list
// pkg/api's WebSocket stream subscribes to.
var EventLogTopics = []string{
	"plan.created", "tool.started", "tool.finished", "tool.failed", "tool.timeout",
	"finding.correlated", "audit.created", "audit.planned", "audit.running",
	"audit.correlating", "audit.progress", "audit.completed", "audit.cancelled", "audit.failed",
}

// RecordEvents appends every event published for auditID across
// EventLogTopics to <baseDir>/<audit_id>/events.ndjson, one JSON object
// per line, until ctx is cancelled or the audit's subscriptions close.
// Run it as its own goroutine per audit, started alongside the audit.
func (w *FileWriter) RecordEvents(ctx context.Context, b *bus.Bus, auditID string) error {
	dir := w.auditDir(auditID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "events.ndjson"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: open events.ndjson: %w", err)
	}
	defer f.Close()

	merged := make(chan bus.Event, len(EventLogTopics)*8)
	subs := make([]*bus.Subscription, 0, len(EventLogTopics))
	for _, topic := range EventLogTopics {
		sub := b.Subscribe(auditID, topic)
		subs = append(subs, sub)
		go forwardEvents(ctx, sub, merged)
	}
	defer func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()

	enc := json.NewEncoder(f)
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-merged:
			if !ok {
				return nil
			}
			w.mu.Lock()
			err := enc.Encode(evt)
			w.mu.Unlock()
			if err != nil {
				return fmt.Errorf("store: write event: %w", err)
			}
		}
	}
}

func forwardEvents(ctx context.Context, sub *bus.Subscription, merged chan<- bus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			select {
			case merged <- evt:
			case <-ctx.Done():
				return
			}
		}
	}
}
