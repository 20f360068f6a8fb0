package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Notifier is the push-notification sink. Implementations deliver on a
// best-effort basis; callers log failures and continue, they never roll back
// a stored message because a notification could not be sent.
type Notifier interface {
	Notify(ctx context.Context, pushToken, title, body string, data map[string]string) error
}

// HTTPNotifier posts notifications to an FCM-style legacy send endpoint.
type HTTPNotifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

func NewHTTPNotifier(endpoint, apiKey string, logger *zap.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
	}
}

type pushRequest struct {
	To           string            `json:"to"`
	Notification pushNotification  `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type pushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (n *HTTPNotifier) Notify(ctx context.Context, pushToken, title, body string, data map[string]string) error {
	if pushToken == "" {
		// Nothing to deliver to; not an error.
		return nil
	}

	payload, err := json.Marshal(pushRequest{
		To:           pushToken,
		Notification: pushNotification{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}

	n.logger.Debug("push notification sent", zap.String("title", title))
	return nil
}

// NopNotifier discards notifications. Used when no push endpoint is
// configured and in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, pushToken, title, body string, data map[string]string) error {
	return nil
}
