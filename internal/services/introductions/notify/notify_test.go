package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type recordingTrigger struct {
	mu     sync.Mutex
	events []Event
	fails  int
}

func (t *recordingTrigger) Notify(_ context.Context, event Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fails > 0 {
		t.fails--
		return fmt.Errorf("delivery refused")
	}
	t.events = append(t.events, event)
	return nil
}

func (t *recordingTrigger) delivered() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

type countingDrops struct {
	mu    sync.Mutex
	count int
}

func (c *countingDrops) ObserveNotifyDrop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

func (c *countingDrops) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	trigger := &recordingTrigger{}
	dispatcher := NewDispatcher(trigger, DispatcherOptions{})

	for _, kind := range []Kind{KindSubmitted, KindHubApproved, KindConnected} {
		if err := dispatcher.Notify(context.Background(), Event{Kind: kind, RequestID: "r1"}); err != nil {
			t.Fatalf("notify %s: %v", kind, err)
		}
	}
	dispatcher.Close()

	events := trigger.delivered()
	if len(events) != 3 {
		t.Fatalf("delivered = %d events, want 3", len(events))
	}
	want := []Kind{KindSubmitted, KindHubApproved, KindConnected}
	for idx, kind := range want {
		if events[idx].Kind != kind {
			t.Fatalf("event[%d] = %s, want %s", idx, events[idx].Kind, kind)
		}
	}
}

func TestDispatcherRetriesFailedDelivery(t *testing.T) {
	trigger := &recordingTrigger{fails: 2}
	dispatcher := NewDispatcher(trigger, DispatcherOptions{
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
	})

	if err := dispatcher.Notify(context.Background(), Event{Kind: KindSubmitted, RequestID: "r1"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	dispatcher.Close()

	if got := len(trigger.delivered()); got != 1 {
		t.Fatalf("delivered = %d events, want 1 after retries", got)
	}
}

func TestDispatcherCountsDropsAfterExhaustedRetries(t *testing.T) {
	trigger := &recordingTrigger{fails: 5}
	drops := &countingDrops{}
	dispatcher := NewDispatcher(trigger, DispatcherOptions{
		MaxAttempts: 2,
		Backoff:     time.Millisecond,
		Drops:       drops,
	})

	if err := dispatcher.Notify(context.Background(), Event{Kind: KindSubmitted, RequestID: "r1"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	dispatcher.Close()

	if drops.total() != 1 {
		t.Fatalf("drops = %d, want 1", drops.total())
	}
	if got := len(trigger.delivered()); got != 0 {
		t.Fatalf("delivered = %d events, want 0", got)
	}
}

func TestLogTriggerAcceptsEvents(t *testing.T) {
	if err := (LogTrigger{}).Notify(context.Background(), Event{Kind: KindSubmitted, RequestID: "r1"}); err != nil {
		t.Fatalf("log trigger: %v", err)
	}
}

func TestNATSSubjectNaming(t *testing.T) {
	trigger := &NATSTrigger{subjectPrefix: normalizeSubjectPrefix("  custom.prefix. ")}
	if got := trigger.Subject(KindConnected); got != "custom.prefix.connected" {
		t.Fatalf("subject = %q, want custom.prefix.connected", got)
	}
	if got := normalizeSubjectPrefix(""); got != defaultSubjectPrefix {
		t.Fatalf("default prefix = %q, want %q", got, defaultSubjectPrefix)
	}
}
