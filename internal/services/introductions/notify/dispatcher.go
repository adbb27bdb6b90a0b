package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	defaultQueueSize   = 256
	defaultMaxAttempts = 3
	defaultBackoff     = 250 * time.Millisecond
)

// DropObserver counts notifications abandoned after exhausting retries or
// overflowing the queue.
type DropObserver interface {
	ObserveNotifyDrop()
}

// Dispatcher decouples the workflow engine from the trigger. Notify enqueues
// and returns immediately; a worker goroutine delivers each event with
// bounded retries. Retrying lives here, never in the engine.
type Dispatcher struct {
	trigger     Trigger
	queue       chan Event
	maxAttempts int
	backoff     time.Duration
	drops       DropObserver

	closeOnce sync.Once
	done      chan struct{}
}

// DispatcherOptions tunes dispatch behavior; zero values use defaults.
type DispatcherOptions struct {
	QueueSize   int
	MaxAttempts int
	Backoff     time.Duration
	Drops       DropObserver
}

// NewDispatcher starts a dispatcher worker for the trigger.
func NewDispatcher(trigger Trigger, options DispatcherOptions) *Dispatcher {
	if trigger == nil {
		trigger = LogTrigger{}
	}
	queueSize := options.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	maxAttempts := options.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	backoff := options.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	d := &Dispatcher{
		trigger:     trigger,
		queue:       make(chan Event, queueSize),
		maxAttempts: maxAttempts,
		backoff:     backoff,
		drops:       options.Drops,
		done:        make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify enqueues one event for asynchronous delivery. It never blocks; a
// full queue drops the event rather than stalling a workflow transition.
func (d *Dispatcher) Notify(_ context.Context, event Event) error {
	if d == nil {
		return nil
	}
	select {
	case d.queue <- event:
	default:
		log.Printf("notification queue full, dropping kind=%s request_id=%s", event.Kind, event.RequestID)
		d.observeDrop()
	}
	return nil
}

// Close stops the worker after draining queued events.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event Event) {
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err := d.trigger.Notify(context.Background(), event)
		if err == nil {
			return
		}
		log.Printf(
			"notification delivery failed attempt=%d/%d kind=%s request_id=%s err=%v",
			attempt,
			d.maxAttempts,
			event.Kind,
			event.RequestID,
			err,
		)
		if attempt < d.maxAttempts {
			time.Sleep(d.backoff * time.Duration(attempt))
		}
	}
	d.observeDrop()
}

func (d *Dispatcher) observeDrop() {
	if d.drops != nil {
		d.drops.ObserveNotifyDrop()
	}
}
