package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

const defaultSubjectPrefix = "introhub.requests"

// NATSTrigger publishes transition events as JSON to a NATS subject per
// event kind.
type NATSTrigger struct {
	conn          *nats.Conn
	subjectPrefix string
}

// NewNATSTrigger connects to the given NATS URL. An empty subject prefix
// falls back to "introhub.requests".
func NewNATSTrigger(url string, subjectPrefix string) (*NATSTrigger, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	conn, err := nats.Connect(url, nats.Name("introhub-notify"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSTrigger{
		conn:          conn,
		subjectPrefix: normalizeSubjectPrefix(subjectPrefix),
	}, nil
}

// Notify implements Trigger by publishing the event to its kind subject.
func (t *NATSTrigger) Notify(_ context.Context, event Event) error {
	if t == nil || t.conn == nil {
		return fmt.Errorf("nats trigger is not connected")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	subject := t.subjectPrefix + "." + string(event.Kind)
	if err := t.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (t *NATSTrigger) Close() {
	if t == nil || t.conn == nil {
		return
	}
	_ = t.conn.Drain()
}

// Subject returns the subject one event kind publishes to.
func (t *NATSTrigger) Subject(kind Kind) string {
	if t == nil {
		return ""
	}
	return t.subjectPrefix + "." + string(kind)
}

func normalizeSubjectPrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return defaultSubjectPrefix
	}
	return prefix
}
