package bus_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miesc-dev/miesc/pkg/bus"
)

func TestPublishSubscribe_Ordering(t *testing.T) {
	b := bus.New(0, 0, nil)
	sub := b.Subscribe("audit-1", "tool.started")
	defer sub.Close()

	b.Publish("audit-1", "tool.started", "slither")
	b.Publish("audit-1", "tool.started", "echidna")

	first := <-sub.Events()
	second := <-sub.Events()
	assert.Equal(t, "slither", first.Payload)
	assert.Equal(t, "echidna", second.Payload)
	assert.Less(t, first.Seq, second.Seq)
}

func TestPublish_DifferentTopicsDontCrossDeliver(t *testing.T) {
	b := bus.New(0, 0, nil)
	subA := b.Subscribe("audit-1", "topic.a")
	subB := b.Subscribe("audit-1", "topic.b")
	defer subA.Close()
	defer subB.Close()

	b.Publish("audit-1", "topic.a", "a-event")

	select {
	case evt := <-subA.Events():
		assert.Equal(t, "a-event", evt.Payload)
	case <-time.After(time.Second):
		t.Fatal("expected event on topic.a")
	}

	select {
	case evt := <-subB.Events():
		t.Fatalf("unexpected event on topic.b: %+v", evt)
	default:
	}
}

func TestSubscribe_DifferentAuditsIsolated(t *testing.T) {
	b := bus.New(0, 0, nil)
	sub1 := b.Subscribe("audit-1", "finding.raw")
	sub2 := b.Subscribe("audit-2", "finding.raw")
	defer sub1.Close()
	defer sub2.Close()

	b.Publish("audit-1", "finding.raw", "f1")

	select {
	case evt := <-sub1.Events():
		assert.Equal(t, "f1", evt.Payload)
	case <-time.After(time.Second):
		t.Fatal("expected event on audit-1")
	}
	select {
	case <-sub2.Events():
		t.Fatal("audit-2 subscriber should not receive audit-1 events")
	default:
	}
}

func TestClose_ClosesChannel(t *testing.T) {
	b := bus.New(0, 0, nil)
	sub := b.Subscribe("audit-1", "t")
	sub.Close()

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.Equal(t, 0, b.SubscriberCount("audit-1", "t"))
}

func TestPublish_SlowSubscriberEvicted(t *testing.T) {
	b := bus.New(1, 0, nil)
	sub := b.Subscribe("audit-1", "noisy")
	defer sub.Close()

	// Fill the buffer (size 1), then overflow it to trigger eviction.
	b.Publish("audit-1", "noisy", "e1")
	b.Publish("audit-1", "noisy", "e2")

	assert.Eventually(t, func() bool {
		return b.SubscriberCount("audit-1", "noisy") == 0
	}, time.Second, time.Millisecond)

	_, ok := <-sub.Events()
	assert.True(t, ok) // e1 still delivered before eviction
	_, ok = <-sub.Events()
	assert.False(t, ok) // channel closed after eviction, e2 was dropped
}

func TestReplay_ReturnsEventsAfterSeq(t *testing.T) {
	b := bus.New(0, 0, nil)
	e1 := b.Publish("audit-1", "t", "a")
	b.Publish("audit-1", "t", "b")
	e3 := b.Publish("audit-1", "t", "c")

	events := b.Replay("audit-1", "t", e1.Seq)
	require.Len(t, events, 2)
	assert.Equal(t, "b", events[0].Payload)
	assert.Equal(t, "c", events[1].Payload)
	assert.Equal(t, e3.Seq, events[1].Seq)
}

func TestReplay_BoundedByLimit(t *testing.T) {
	b := bus.New(0, 2, nil)
	b.Publish("audit-1", "t", "a")
	b.Publish("audit-1", "t", "b")
	b.Publish("audit-1", "t", "c")

	events := b.Replay("audit-1", "t", 0)
	require.Len(t, events, 2)
	assert.Equal(t, "b", events[0].Payload)
	assert.Equal(t, "c", events[1].Payload)
}
