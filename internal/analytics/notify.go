package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-ordering/internal/logger"
)

var ErrNotConfigured = errors.New("channel not configured")

// Notifier delivers a composed daily report on one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, report *DailyReport) error
}

type DeliveryResult struct {
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
}

// WebhookNotifier posts {"text": ...} to a chat webhook.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
	Logger *logger.Logger
}

func NewWebhookNotifier(url string, log *logger.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
		Logger: log,
	}
}

func (n *WebhookNotifier) Name() string { return "webhook" }

func (n *WebhookNotifier) Notify(ctx context.Context, report *DailyReport) error {
	if n.URL == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(map[string]string{"text": report.Text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		n.Logger.Error("HTTP", fmt.Sprintf("Failed to create webhook request: %v", err))
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		n.Logger.Error("HTTP", fmt.Sprintf("Failed to execute webhook request: %v", err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook error %d", resp.StatusCode)
	}
	return nil
}

type ReportPublisher interface {
	PublishDailyReport(ctx context.Context, restaurantID string, report interface{}) error
}

// KafkaNotifier publishes the report for downstream mailers.
type KafkaNotifier struct {
	Publisher ReportPublisher
}

func (n *KafkaNotifier) Name() string { return "kafka" }

func (n *KafkaNotifier) Notify(ctx context.Context, report *DailyReport) error {
	if n.Publisher == nil {
		return ErrNotConfigured
	}
	return n.Publisher.PublishDailyReport(ctx, report.RestaurantID, report)
}
