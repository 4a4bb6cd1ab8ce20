package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/be-saavy/notification-timing/internal/domain"
)

// Firer re-validates and dispatches one held notification, and merges
// pending medium notifications ahead of a sweep.
type Firer interface {
	FireDue(ctx context.Context, caregiverID, notificationID string) (bool, error)
	BatchMediumPending(ctx context.Context, caregiverID string) (*domain.ScheduledNotification, error)
}

// Runner drives held notifications to delivery. Every minute it scans the
// pending set for due records and hands each to the scheduler's fire-time
// recheck. Records cancelled between scan and fire are silent no-ops.
type Runner struct {
	firer   Firer
	pending domain.PendingRepository
	cron    *cron.Cron
	nowFn   func() time.Time
}

func NewRunner(firer Firer, pending domain.PendingRepository) *Runner {
	return &Runner{
		firer:   firer,
		pending: pending,
		cron:    cron.New(),
		nowFn:   time.Now,
	}
}

// WithNow overrides the clock. Intended for tests.
func (r *Runner) WithNow(nowFn func() time.Time) *Runner {
	r.nowFn = nowFn
	return r
}

// Start registers the minutely scan and starts the cron loop.
func (r *Runner) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc("* * * * *", func() {
		r.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	slog.InfoContext(ctx, "dispatch runner started")
	return nil
}

// Stop halts the cron loop and waits for an in-flight scan to finish.
func (r *Runner) Stop() {
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	slog.Info("dispatch runner stopped")
}

// RunOnce performs a single scan over all caregivers with pending
// notifications. Failures on one record never block the rest of the scan.
func (r *Runner) RunOnce(ctx context.Context) {
	now := r.nowFn()

	caregivers, err := r.pending.ListCaregiversWithPending(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list caregivers with pending notifications",
			slog.String("error", err.Error()),
		)
		return
	}

	for _, caregiverID := range caregivers {
		if _, err := r.firer.BatchMediumPending(ctx, caregiverID); err != nil {
			slog.WarnContext(ctx, "failed to batch medium notifications",
				slog.String("caregiver_id", caregiverID),
				slog.String("error", err.Error()),
			)
		}

		due, err := r.pending.ListDue(ctx, caregiverID, now)
		if err != nil {
			slog.WarnContext(ctx, "failed to list due notifications",
				slog.String("caregiver_id", caregiverID),
				slog.String("error", err.Error()),
			)
			continue
		}

		for _, notification := range due {
			delivered, err := r.firer.FireDue(ctx, caregiverID, notification.ID)
			if err != nil {
				slog.ErrorContext(ctx, "failed to fire due notification",
					slog.String("caregiver_id", caregiverID),
					slog.String("notification_id", notification.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			if delivered {
				slog.DebugContext(ctx, "due notification dispatched",
					slog.String("caregiver_id", caregiverID),
					slog.String("notification_id", notification.ID),
				)
			}
		}
	}
}
