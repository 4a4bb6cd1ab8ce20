package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/be-saavy/notification-timing/internal/domain"
)

const (
	pendingKeyPrefix    = "timing:pending:"
	pendingCaregiverSet = "timing:pending:caregivers"

	// Held records older than this are abandoned; nothing should stay
	// pending past the 24 hour medium-urgency probe cap.
	pendingTTL = 7 * 24 * time.Hour
)

type pendingRepository struct {
	client *redis.Client
}

// NewPendingRepository holds scheduled notifications in a per-caregiver hash
// keyed by notification id, with a caregiver index set for the dispatch loop.
func NewPendingRepository(client *redis.Client) domain.PendingRepository {
	return &pendingRepository{client: client}
}

func (r *pendingRepository) SavePending(ctx context.Context, notification *domain.ScheduledNotification) error {
	if notification == nil || notification.ID == "" || notification.CaregiverID == "" {
		return ErrInvalidRecord
	}

	data, err := json.Marshal(notification)
	if err != nil {
		return ErrInvalidRecord
	}

	key := pendingKeyPrefix + notification.CaregiverID

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, notification.ID, data)
	pipe.Expire(ctx, key, pendingTTL)
	pipe.SAdd(ctx, pendingCaregiverSet, notification.CaregiverID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *pendingRepository) GetPending(ctx context.Context, caregiverID, notificationID string) (*domain.ScheduledNotification, error) {
	data, err := r.client.HGet(ctx, pendingKeyPrefix+caregiverID, notificationID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}

	var notification domain.ScheduledNotification
	if err := json.Unmarshal(data, &notification); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptRecord, notificationID)
	}
	return &notification, nil
}

func (r *pendingRepository) ListPending(ctx context.Context, caregiverID string) ([]*domain.ScheduledNotification, error) {
	entries, err := r.client.HGetAll(ctx, pendingKeyPrefix+caregiverID).Result()
	if err != nil {
		return nil, err
	}

	list := make([]*domain.ScheduledNotification, 0, len(entries))
	for id, raw := range entries {
		var notification domain.ScheduledNotification
		if err := json.Unmarshal([]byte(raw), &notification); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCorruptRecord, id)
		}
		list = append(list, &notification)
	}
	return list, nil
}

func (r *pendingRepository) DeletePending(ctx context.Context, caregiverID, notificationID string) (bool, error) {
	removed, err := r.client.HDel(ctx, pendingKeyPrefix+caregiverID, notificationID).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

func (r *pendingRepository) ListDue(ctx context.Context, caregiverID string, now time.Time) ([]*domain.ScheduledNotification, error) {
	all, err := r.ListPending(ctx, caregiverID)
	if err != nil {
		return nil, err
	}

	due := make([]*domain.ScheduledNotification, 0, len(all))
	for _, notification := range all {
		if notification.IsDue(now) {
			due = append(due, notification)
		}
	}
	return due, nil
}

func (r *pendingRepository) ListCaregiversWithPending(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, pendingCaregiverSet).Result()
}
