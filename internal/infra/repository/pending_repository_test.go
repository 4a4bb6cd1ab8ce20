package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/be-saavy/notification-timing/internal/domain"
	"github.com/be-saavy/notification-timing/internal/testutil"
)

func TestPendingLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	repo := NewPendingRepository(client)

	now := time.Now().UTC().Truncate(time.Second)
	notification := domain.NewScheduledNotification(
		"caregiver-1", "recall-1", domain.UrgencyMedium,
		"Stroller notice", "Check wheel locks",
		now.Add(2*time.Hour), "test reasoning", 0.75,
	)

	if err := repo.SavePending(ctx, notification); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := repo.GetPending(ctx, "caregiver-1", notification.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.RecallID != "recall-1" || got.Confidence != 0.75 {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	caregivers, err := repo.ListCaregiversWithPending(ctx)
	if err != nil {
		t.Fatalf("list caregivers failed: %v", err)
	}
	if len(caregivers) != 1 || caregivers[0] != "caregiver-1" {
		t.Errorf("caregivers = %v", caregivers)
	}

	removed, err := repo.DeletePending(ctx, "caregiver-1", notification.ID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !removed {
		t.Fatal("expected removal")
	}

	// Delete is idempotent.
	removed, err = repo.DeletePending(ctx, "caregiver-1", notification.ID)
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if removed {
		t.Error("second delete must return false")
	}

	if _, err := repo.GetPending(ctx, "caregiver-1", notification.ID); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Errorf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestListDueFiltersByTime(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	repo := NewPendingRepository(client)

	now := time.Now().UTC()
	past := domain.NewScheduledNotification(
		"caregiver-1", "recall-past", domain.UrgencyMedium, "t", "b",
		now.Add(-time.Hour), "test", 0.7,
	)
	future := domain.NewScheduledNotification(
		"caregiver-1", "recall-future", domain.UrgencyMedium, "t", "b",
		now.Add(time.Hour), "test", 0.7,
	)

	for _, n := range []*domain.ScheduledNotification{past, future} {
		if err := repo.SavePending(ctx, n); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	due, err := repo.ListDue(ctx, "caregiver-1", now)
	if err != nil {
		t.Fatalf("list due failed: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("due = %d, want 1", len(due))
	}
	if due[0].RecallID != "recall-past" {
		t.Errorf("due notification = %q, want recall-past", due[0].RecallID)
	}
}
