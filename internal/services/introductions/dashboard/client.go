package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client issues workflow commands against the HTTP API and keeps the local
// store reconciled: optimistic mutation first, rollback on any non-success
// response. Cancellation mid-flight does not retract the server command, so
// a cancelled round trip also rolls the local view back and lets the next
// refresh converge.
type Client struct {
	baseURL string
	http    *http.Client
	store   *Store
}

// NewClient constructs a dashboard client for the given API base URL.
func NewClient(baseURL string, httpClient *http.Client, store *Store) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if store == nil {
		store = NewStore()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		store:   store,
	}
}

// Store exposes the local view backing this client.
func (c *Client) Store() *Store {
	return c.store
}

// ApproveAndSend approves a queued request with an optional note. The
// request leaves the local queue immediately and is reinserted if the
// server rejects the command.
func (c *Client) ApproveAndSend(ctx context.Context, requestID, token, note string) error {
	var body any
	if note != "" {
		body = map[string]string{"h1_note": note}
	}
	return c.command(ctx, requestID, token, "approve", body)
}

// Decline declines a queued request, optimistically removing it first.
func (c *Client) Decline(ctx context.Context, requestID, token string) error {
	return c.command(ctx, requestID, token, "decline", nil)
}

// Pass soft-declines a queued request, optimistically removing it first.
func (c *Client) Pass(ctx context.Context, requestID, token string) error {
	return c.command(ctx, requestID, token, "pass", nil)
}

func (c *Client) command(ctx context.Context, requestID, token, action string, body any) error {
	txn, err := c.store.BeginRemove(requestID)
	if err != nil {
		return err
	}
	if err := c.post(ctx, requestID, token, action, body); err != nil {
		txn.Rollback()
		return err
	}
	txn.Commit()
	return nil
}

func (c *Client) post(ctx context.Context, requestID, token, action string, body any) error {
	endpoint := fmt.Sprintf(
		"%s/api/intro-requests/%s/%s?token=%s",
		c.baseURL,
		url.PathEscape(requestID),
		action,
		url.QueryEscape(token),
	)
	var payload *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", action, err)
		}
		payload = strings.NewReader(string(raw))
	} else {
		payload = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return fmt.Errorf("build %s request: %w", action, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var failure struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&failure)
	if failure.Message == "" {
		failure.Message = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("%s rejected (%d): %s", action, resp.StatusCode, failure.Message)
}
