// Package notify defines the notification trigger contract and its dispatch
// machinery. Delivery is decoupled from the workflow engine: the engine
// reports each transition exactly once and never waits on, or rolls back
// for, notification failures.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/louisbranch/introhub/internal/services/introductions/domain"
)

// Kind names the transition a notification reports.
type Kind string

const (
	KindSubmitted      Kind = "submitted"
	KindHubApproved    Kind = "hub_approved"
	KindHubDeclined    Kind = "hub_declined"
	KindHubPassed      Kind = "hub_passed"
	KindConnected      Kind = "connected"
	KindTargetDeclined Kind = "target_declined"
)

// Event describes one workflow transition for downstream delivery.
type Event struct {
	Kind          Kind            `json:"kind"`
	RequestID     string          `json:"request_id"`
	WorkspaceID   string          `json:"workspace_id"`
	WorkspaceName string          `json:"workspace_name,omitempty"`
	Requester     domain.Identity `json:"requester"`
	Target        domain.Identity `json:"target"`
	HubOwner      domain.Identity `json:"hub_owner"`
	Note          string          `json:"note,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Trigger receives workflow transition events.
type Trigger interface {
	Notify(ctx context.Context, event Event) error
}

// TriggerFunc adapts a function to the Trigger interface.
type TriggerFunc func(ctx context.Context, event Event) error

// Notify implements Trigger.
func (f TriggerFunc) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// LogTrigger writes transition events to the process log. It is the default
// trigger when no broker is configured.
type LogTrigger struct{}

// Notify implements Trigger.
func (LogTrigger) Notify(_ context.Context, event Event) error {
	log.Printf(
		"notification kind=%s request_id=%s workspace=%s requester=%s target=%s",
		event.Kind,
		event.RequestID,
		event.WorkspaceID,
		event.Requester.UserID,
		event.Target.UserID,
	)
	return nil
}
