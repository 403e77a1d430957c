package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultWebhookTimeout bounds one delivery request.
const DefaultWebhookTimeout = 10 * time.Second

// WebhookSender POSTs messages as JSON to a delivery gateway.
// The gateway answers 2xx with {"id": "..."}.
type WebhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender creates a WebhookSender. A nil client uses one with DefaultWebhookTimeout.
func NewWebhookSender(url string, client *http.Client) *WebhookSender {
	if client == nil {
		client = &http.Client{Timeout: DefaultWebhookTimeout}
	}
	return &WebhookSender{url: url, client: client}
}

type webhookResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// Send implements Sender.
func (s *WebhookSender) Send(ctx context.Context, msg Message) (string, error) {
	fail := func(retryable bool, err error) (string, error) {
		return "", &DeliveryError{Recipient: msg.Recipient, Channel: msg.Channel, Retryable: retryable, Err: err}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fail(false, fmt.Errorf("failed to encode message: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fail(false, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fail(true, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fail(true, fmt.Errorf("failed to read response: %w", err))
	}

	var out webhookResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// error bodies are optional and may be plain text
		reason := out.Error
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return fail(resp.StatusCode >= 500, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, reason))
	}
	if decodeErr != nil {
		return fail(false, fmt.Errorf("failed to decode gateway response: %w", decodeErr))
	}
	if out.ID == "" {
		return fail(false, fmt.Errorf("gateway response has no delivery id"))
	}
	return out.ID, nil
}
