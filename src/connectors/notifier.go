package connectors

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

var ErrNotifyFailed = errors.New("notification send failed")

// NotifyReceipt identifies a delivered notification.
type NotifyReceipt struct {
	Provider  string `json:"provider"`
	MessageID string `json:"message_id"`
}

// Notifier is the outbound notification collaborator. Send may fail; the
// retry contract lives with the caller.
type Notifier interface {
	Send(ctx context.Context, to string, details map[string]interface{}) (*NotifyReceipt, error)
}

// WebhookNotifier posts notification payloads to a configured webhook. With
// no base URL configured it logs and acknowledges locally, so autonomous
// runs never depend on a delivery provider being present.
type WebhookNotifier struct {
	baseURL string
	http    *resty.Client
}

func NewWebhookNotifier(cfg Config) *WebhookNotifier {
	return &WebhookNotifier{
		baseURL: cfg.NotifyBaseURL,
		http:    resty.New().SetTimeout(cfg.NotifyTimeout),
	}
}

type notifyResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

func (n *WebhookNotifier) Send(ctx context.Context, to string, details map[string]interface{}) (*NotifyReceipt, error) {
	if n.baseURL == "" {
		logger.WithFields(map[string]interface{}{
			"component": "notifier",
			"to":        to,
		}).Info("no notification provider configured, acknowledging locally")
		return &NotifyReceipt{Provider: "log", MessageID: uuid.NewString()}, nil
	}

	var body notifyResponse
	resp, err := n.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"to": to, "details": details}).
		SetResult(&body).
		Post(n.baseURL + "/v1/notifications")

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotifyFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d %s", ErrNotifyFailed, resp.StatusCode(), body.Error)
	}

	return &NotifyReceipt{Provider: "webhook", MessageID: body.MessageID}, nil
}
