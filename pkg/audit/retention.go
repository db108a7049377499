package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/govdesk/govdesk/pkg/observability"
	"github.com/robfig/cron/v3"
)

// RetentionJob runs retention cleanup on a cron schedule.
type RetentionJob struct {
	logger   *DBLogger
	archiver Archiver
	policy   RetentionPolicy
	log      *observability.Logger
	cron     *cron.Cron
}

// NewRetentionJob creates a cleanup job. archiver may be nil when the
// policy does not archive.
func NewRetentionJob(logger *DBLogger, archiver Archiver, policy RetentionPolicy, log *observability.Logger) *RetentionJob {
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &RetentionJob{
		logger:   logger,
		archiver: archiver,
		policy:   policy,
		log:      log,
	}
}

// Start schedules the cleanup under the given cron spec (e.g. "0 3 * * *"
// for nightly at 03:00) and starts the scheduler.
func (j *RetentionJob) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, j.runOnce)
	if err != nil {
		return fmt.Errorf("failed to schedule audit retention job: %w", err)
	}
	c.Start()
	j.cron = c
	j.log.WithField("schedule", spec).Info("audit retention job scheduled")
	return nil
}

// Stop halts the scheduler, waiting for a running cleanup to finish.
func (j *RetentionJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

func (j *RetentionJob) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	removed, err := j.logger.Cleanup(ctx, j.policy, j.archiver)
	if err != nil {
		j.log.WithError(err).Error("audit retention cleanup failed")
		return
	}
	j.log.WithFields(map[string]interface{}{
		"removed":        removed,
		"retention_days": j.policy.RetentionDays,
	}).Info("audit retention cleanup complete")
}
