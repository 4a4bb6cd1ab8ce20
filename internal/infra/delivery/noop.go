package delivery

import (
	"context"
	"log/slog"

	"github.com/be-saavy/notification-timing/internal/domain"
)

var _ domain.DeliveryClient = (*NoopClient)(nil)

// NoopClient logs deliveries instead of sending them. Used when no push
// gateway is configured, typically for local development.
type NoopClient struct{}

func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

func (c *NoopClient) Deliver(ctx context.Context, d *domain.Delivery) (bool, error) {
	slog.InfoContext(ctx, "delivery skipped, no push gateway configured",
		slog.String("notification_id", d.NotificationID),
		slog.String("caregiver_id", d.CaregiverID),
		slog.String("urgency", d.Urgency),
	)
	return true, nil
}
