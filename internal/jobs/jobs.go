// Package jobs runs the periodic background sweeps: the table status
// reconciler and the notification reminder dispatcher. Both are idempotent,
// so overlapping or repeated runs are harmless.
package jobs

import (
	"context"
	"time"

	"quicktable/config"
	nService "quicktable/internal/domains/notification/service"
	tService "quicktable/internal/domains/table/service"
	"quicktable/shared/timezone"

	"github.com/rs/zerolog/log"
)

type Runner struct {
	tables        tService.Table
	notifications nService.Notification
	cfg           *config.Config
}

func New(tables tService.Table, notifications nService.Notification, cfg *config.Config) *Runner {
	return &Runner{
		tables:        tables,
		notifications: notifications,
		cfg:           cfg,
	}
}

// Start runs both sweeps on their tickers until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	go r.loop(ctx, time.Duration(r.cfg.Jobs.ReconcileIntervalMin)*time.Minute, "reconciler", r.RunReconcileOnce)
	go r.loop(ctx, time.Duration(r.cfg.Jobs.ReminderIntervalMin)*time.Minute, "reminder", r.RunReminderOnce)

	log.Info().
		Int("reconcileIntervalMin", r.cfg.Jobs.ReconcileIntervalMin).
		Int("reminderIntervalMin", r.cfg.Jobs.ReminderIntervalMin).
		Msg("background jobs started")
}

func (r *Runner) loop(ctx context.Context, interval time.Duration, name string, run func(context.Context) (int, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("job", name).Msg("background job stopped")

			return
		case <-ticker.C:
			if _, err := run(ctx); err != nil {
				log.Error().Err(err).Str("job", name).Msg("background job run failed")
			}
		}
	}
}

// RunReconcileOnce resets stale table statuses under a bounded deadline.
// Exposed for tests and one-shot invocation.
func (r *Runner) RunReconcileOnce(ctx context.Context) (int, error) {
	ctx, cancel := r.withSweepDeadline(ctx)
	defer cancel()

	return r.tables.ReconcileStatuses(ctx, timezone.Now())
}

// RunReminderOnce delivers due notifications under a bounded deadline.
func (r *Runner) RunReminderOnce(ctx context.Context) (int, error) {
	ctx, cancel := r.withSweepDeadline(ctx)
	defer cancel()

	return r.notifications.ProcessDue(ctx, timezone.Now())
}

func (r *Runner) withSweepDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Jobs.SweepTimeoutSec)*time.Second)
}
