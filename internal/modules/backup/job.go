package backup

import (
	"context"
	"time"
)

const jobTimeout = 2 * time.Minute

// DailyJob runs the backup for the current office day on a schedule.
type DailyJob struct {
	service  *Service
	location *time.Location
}

// NewDailyJob creates the scheduled backup job.
func NewDailyJob(service *Service, location *time.Location) *DailyJob {
	return &DailyJob{service: service, location: location}
}

// Name implements scheduler.Job.
func (j *DailyJob) Name() string { return "daily-backup" }

// Run implements scheduler.Job.
func (j *DailyJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	_, err := j.service.Run(ctx, time.Now().In(j.location))
	return err
}
