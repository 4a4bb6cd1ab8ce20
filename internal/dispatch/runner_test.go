package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/be-saavy/notification-timing/internal/domain"
)

type fakeFirer struct {
	fired   []string
	batched []string
	failOn  map[string]error
	deliver map[string]bool
}

func (f *fakeFirer) FireDue(_ context.Context, _, notificationID string) (bool, error) {
	if err, ok := f.failOn[notificationID]; ok {
		return false, err
	}
	f.fired = append(f.fired, notificationID)
	return f.deliver[notificationID], nil
}

func (f *fakeFirer) BatchMediumPending(_ context.Context, caregiverID string) (*domain.ScheduledNotification, error) {
	f.batched = append(f.batched, caregiverID)
	return nil, nil
}

type fakePendingRepo struct {
	byCaregiver  map[string][]*domain.ScheduledNotification
	listErr      error
	caregiverErr error
}

func (f *fakePendingRepo) SavePending(_ context.Context, n *domain.ScheduledNotification) error {
	f.byCaregiver[n.CaregiverID] = append(f.byCaregiver[n.CaregiverID], n)
	return nil
}

func (f *fakePendingRepo) GetPending(_ context.Context, caregiverID, notificationID string) (*domain.ScheduledNotification, error) {
	for _, n := range f.byCaregiver[caregiverID] {
		if n.ID == notificationID {
			return n, nil
		}
	}
	return nil, domain.ErrNotificationNotFound
}

func (f *fakePendingRepo) ListPending(_ context.Context, caregiverID string) ([]*domain.ScheduledNotification, error) {
	return f.byCaregiver[caregiverID], nil
}

func (f *fakePendingRepo) DeletePending(_ context.Context, caregiverID, notificationID string) (bool, error) {
	list := f.byCaregiver[caregiverID]
	for i, n := range list {
		if n.ID == notificationID {
			f.byCaregiver[caregiverID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePendingRepo) ListDue(_ context.Context, caregiverID string, now time.Time) ([]*domain.ScheduledNotification, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	var due []*domain.ScheduledNotification
	for _, n := range f.byCaregiver[caregiverID] {
		if n.IsDue(now) {
			due = append(due, n)
		}
	}
	return due, nil
}

func (f *fakePendingRepo) ListCaregiversWithPending(_ context.Context) ([]string, error) {
	if f.caregiverErr != nil {
		return nil, f.caregiverErr
	}

	var ids []string
	for id := range f.byCaregiver {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestRunnerRunOnce(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	t.Run("fires due notifications only", func(t *testing.T) {
		pending := &fakePendingRepo{byCaregiver: map[string][]*domain.ScheduledNotification{
			"cg-1": {
				{ID: "due-1", CaregiverID: "cg-1", ScheduledFor: now.Add(-time.Minute), Status: domain.StatusHeld},
				{ID: "future-1", CaregiverID: "cg-1", ScheduledFor: now.Add(2 * time.Hour), Status: domain.StatusHeld},
			},
		}}
		firer := &fakeFirer{deliver: map[string]bool{"due-1": true}}

		runner := NewRunner(firer, pending).WithNow(func() time.Time { return now })
		runner.RunOnce(context.Background())

		if len(firer.fired) != 1 {
			t.Fatalf("expected 1 fired notification, got %d", len(firer.fired))
		}
		if firer.fired[0] != "due-1" {
			t.Errorf("expected due-1 to fire, got %s", firer.fired[0])
		}
		if len(firer.batched) != 1 || firer.batched[0] != "cg-1" {
			t.Errorf("expected batching pass for cg-1, got %v", firer.batched)
		}
	})

	t.Run("continues past per-record failures", func(t *testing.T) {
		pending := &fakePendingRepo{byCaregiver: map[string][]*domain.ScheduledNotification{
			"cg-1": {
				{ID: "bad-1", CaregiverID: "cg-1", ScheduledFor: now.Add(-2 * time.Minute), Status: domain.StatusHeld},
				{ID: "due-2", CaregiverID: "cg-1", ScheduledFor: now.Add(-time.Minute), Status: domain.StatusHeld},
			},
		}}
		firer := &fakeFirer{
			failOn:  map[string]error{"bad-1": errors.New("delivery unavailable")},
			deliver: map[string]bool{"due-2": true},
		}

		runner := NewRunner(firer, pending).WithNow(func() time.Time { return now })
		runner.RunOnce(context.Background())

		if len(firer.fired) != 1 || firer.fired[0] != "due-2" {
			t.Errorf("expected due-2 to fire despite earlier failure, got %v", firer.fired)
		}
	})

	t.Run("survives caregiver listing failure", func(t *testing.T) {
		pending := &fakePendingRepo{
			byCaregiver:  map[string][]*domain.ScheduledNotification{},
			caregiverErr: errors.New("redis unavailable"),
		}
		firer := &fakeFirer{}

		runner := NewRunner(firer, pending).WithNow(func() time.Time { return now })
		runner.RunOnce(context.Background())

		if len(firer.fired) != 0 {
			t.Errorf("expected no fires on listing failure, got %v", firer.fired)
		}
	})

	t.Run("scans multiple caregivers", func(t *testing.T) {
		pending := &fakePendingRepo{byCaregiver: map[string][]*domain.ScheduledNotification{
			"cg-1": {{ID: "a", CaregiverID: "cg-1", ScheduledFor: now.Add(-time.Minute), Status: domain.StatusHeld}},
			"cg-2": {{ID: "b", CaregiverID: "cg-2", ScheduledFor: now.Add(-time.Minute), Status: domain.StatusHeld}},
		}}
		firer := &fakeFirer{deliver: map[string]bool{"a": true, "b": true}}

		runner := NewRunner(firer, pending).WithNow(func() time.Time { return now })
		runner.RunOnce(context.Background())

		if len(firer.fired) != 2 {
			t.Errorf("expected 2 fires across caregivers, got %v", firer.fired)
		}
	})
}
