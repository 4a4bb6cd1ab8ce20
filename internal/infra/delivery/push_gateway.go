package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/be-saavy/notification-timing/internal/domain"
)

var _ domain.DeliveryClient = (*PushGatewayClient)(nil)

// PushGatewayClient hands notifications to the external push-delivery
// gateway over HTTP. Retries are bounded with exponential backoff; past the
// retry budget the failure is reported to the caller, never queued here.
type PushGatewayClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

func NewPushGatewayClient(baseURL string, maxRetries int) *PushGatewayClient {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &PushGatewayClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: maxRetries,
	}
}

func (c *PushGatewayClient) Deliver(ctx context.Context, d *domain.Delivery) (bool, error) {
	reqBody, err := json.Marshal(d)
	if err != nil {
		return false, fmt.Errorf("failed to marshal delivery: %w", err)
	}

	url := c.baseURL + "/push"

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
			slog.DebugContext(ctx, "retrying delivery",
				slog.String("notification_id", d.NotificationID),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.doRequest(ctx, url, reqBody, d.NotificationID); err == nil {
			return true, nil
		} else {
			lastErr = err
		}
	}

	slog.ErrorContext(ctx, "all delivery retries exhausted",
		slog.String("notification_id", d.NotificationID),
		slog.Int("max_retries", c.maxRetries),
		slog.String("error", lastErr.Error()),
	)
	return false, fmt.Errorf("failed to deliver after %d retries: %w", c.maxRetries, lastErr)
}

func (c *PushGatewayClient) doRequest(ctx context.Context, url string, reqBody []byte, notificationID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "failed to reach push gateway",
			slog.String("notification_id", notificationID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		slog.WarnContext(ctx, "unexpected status code from push gateway",
			slog.String("notification_id", notificationID),
			slog.Int("status_code", resp.StatusCode),
		)
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}
