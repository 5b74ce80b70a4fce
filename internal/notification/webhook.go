package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// WebhookNotifier POSTs sentiment alerts to a chat-style incoming webhook.
// The body carries a preformatted text line next to the structured alert
// fields, so Slack-compatible receivers render it without a template.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	Text string `json:"text"`
	Alert
}

// NewWebhookNotifier creates a webhook notifier for url.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	if alert.Time.IsZero() {
		alert.Time = time.Now().UTC()
	}
	payload := webhookPayload{Text: webhookText(alert), Alert: alert}
	if err := postJSON(ctx, w.client, w.url, payload); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	log.Printf("[webhook] %s %s -> %s", alert.Symbol, alert.From, alert.To)
	return nil
}

func webhookText(a Alert) string {
	if a.Symbol == "" {
		return fmt.Sprintf("[%s] %s: %s", a.Level, a.Title, a.Message)
	}
	return fmt.Sprintf("[%s] %s %s", a.Level, a.Symbol, a.Message)
}

// postJSON sends v as a JSON body and treats any non-2xx reply as failure.
func postJSON(ctx context.Context, client *http.Client, url string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
