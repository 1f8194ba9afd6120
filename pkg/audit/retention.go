package audit

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bulletinhq/bulletin/pkg/observability"
)

// RetentionPolicy defines how long audit events are kept
type RetentionPolicy struct {
	// RetentionDays is the number of days to keep audit events
	RetentionDays int

	// Schedule is a cron expression for the purge job
	Schedule string
}

// DefaultRetentionPolicy keeps 90 days of events, purging nightly
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		RetentionDays: 90,
		Schedule:      "0 3 * * *",
	}
}

// Purger deletes events recorded before a cutoff
type Purger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention runs scheduled purges against a Purger (the DB sink)
type Retention struct {
	purger Purger
	policy RetentionPolicy
	logger *observability.Logger
	cron   *cron.Cron
}

// NewRetention creates a retention sweeper
func NewRetention(purger Purger, policy RetentionPolicy, logger *observability.Logger) *Retention {
	if policy.RetentionDays <= 0 {
		policy.RetentionDays = DefaultRetentionPolicy().RetentionDays
	}
	if policy.Schedule == "" {
		policy.Schedule = DefaultRetentionPolicy().Schedule
	}
	return &Retention{
		purger: purger,
		policy: policy,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start schedules the purge job
func (r *Retention) Start() error {
	_, err := r.cron.AddFunc(r.policy.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		r.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Infof("audit retention scheduled: keep %d days, schedule %q",
		r.policy.RetentionDays, r.policy.Schedule)
	return nil
}

// Stop halts the schedule, waiting for a running sweep to finish
func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
}

// Sweep purges events older than the retention window
func (r *Retention) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().AddDate(0, 0, -r.policy.RetentionDays)
	purged, err := r.purger.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		r.logger.WithError(err).Error("audit retention sweep failed")
		return
	}
	if purged > 0 {
		r.logger.Infof("audit retention purged %d events older than %s",
			purged, cutoff.Format(time.RFC3339))
	}
}
