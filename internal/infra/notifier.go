package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"factorylink/internal/config"

	"github.com/rs/zerolog/log"
)

// Notification describes a committed order status change.
type Notification struct {
	OrderID       string `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

// Text renders the human-readable message sent to people.
func (n Notification) Text() string {
	name := n.CustomerName
	if name == "" {
		name = "unknown customer"
	}
	return fmt.Sprintf("Order %s for %s changed status to %s.", n.OrderNumber, name, n.Status)
}

// Notifier delivers a notification. Callers treat failures as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, msg Notification) error
}

// LogNotifier writes the notification to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, msg Notification) error {
	log.Info().
		Str("order_number", msg.OrderNumber).
		Str("status", msg.Status).
		Str("customer", msg.CustomerName).
		Msg(msg.Text())
	return nil
}

// WebhookNotifier POSTs the notification as JSON.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{url: url, httpClient: &http.Client{Timeout: timeout}}
}

func (n *WebhookNotifier) Notify(ctx context.Context, msg Notification) error {
	payload := struct {
		Notification
		Text string `json:"text"`
	}{msg, msg.Text()}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook notifier: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook notifier: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook notifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook notifier: endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// NewNotifier builds the delivery channel named by NOTIFY_CHANNEL.
func NewNotifier(ctx context.Context, cfg *config.Config) (Notifier, error) {
	switch cfg.NotifyChannel {
	case "", "log":
		return LogNotifier{}, nil
	case "webhook":
		return NewWebhookNotifier(cfg.NotifyWebhookURL, 10*time.Second), nil
	case "email":
		return NewMailNotifier(NewMailer(cfg)), nil
	case "sns":
		return NewSNSNotifier(ctx, cfg.SNSTopicARN)
	}
	return nil, fmt.Errorf("unknown notify channel %q", cfg.NotifyChannel)
}
