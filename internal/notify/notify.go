package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Notification is the fire-and-forget payload handed to the external
// notification sink. Failures here must never fail the operation that
// triggered them.
type Notification struct {
	UserID    uint   `json:"user_id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	ActionURL string `json:"action_url"`
}

type Notifier interface {
	Notify(n Notification) error
}

// NopNotifier drops notifications; used when no sink is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(Notification) error { return nil }

// WebhookNotifier posts notifications to the main EventzX app's webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (w *WebhookNotifier) Notify(n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify webhook returned %d", resp.StatusCode)
	}
	return nil
}
