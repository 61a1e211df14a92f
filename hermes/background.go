package hermes

import (
	"context"
	"fmt"
	"time"

	"github.com/lunagic/hermes/hermes/internal/agenda"
	"github.com/lunagic/hermes/hermesservices/cache"
)

const (
	primaryLeaseDuration = time.Second * 6
	primaryLeaseKey      = "instance"
)

type BackgroundJob struct {
	name     string
	interval time.Duration
	action   func(ctx context.Context) error
}

func NewBackgroundJob(name string, interval time.Duration, action func(ctx context.Context) error) BackgroundJob {
	return BackgroundJob{
		name:     name,
		interval: interval,
		action:   action,
	}
}

// WithBackgroundJobs schedules jobs on whichever instance sharing cacheDriver
// currently holds the primary lease. Each job runs at most once per interval
// across all instances.
func WithBackgroundJobs(cacheDriver cache.Driver, jobs []BackgroundJob) ConfigurationFunc {
	return func(app *App) error {
		for _, job := range jobs {
			if job.interval <= 0 {
				return fmt.Errorf("background job %s: interval must be positive", job.name)
			}
		}

		app.jobsCacheService = cacheDriver
		app.jobs = append(app.jobs, jobs...)

		return nil
	}
}

// Background starts the scheduler and returns immediately.
func (app *App) Background(ctx context.Context) error {
	if app.jobsCacheService == nil || len(app.jobs) == 0 {
		return nil
	}

	lease := cache.NewRepository[string, string](app.jobsCacheService, "hermes-primary-scheduler")
	lastRuns := cache.NewRepository[string, time.Time](app.jobsCacheService, "hermes-job-last-ran")

	isPrimary := func(ctx context.Context) (bool, error) {
		claimed, err := lease.Claim(ctx, primaryLeaseKey, app.instanceUUID, primaryLeaseDuration)
		if err != nil || claimed {
			return claimed, err
		}

		// Renew only a lease this instance still holds, an expired one is
		// left for the next Claim
		return lease.Extend(ctx, primaryLeaseKey, app.instanceUUID, primaryLeaseDuration)
	}

	go func() {
		_ = agenda.EverySecond(
			ctx,
			func(ctx context.Context) error {
				primary, err := isPrimary(ctx)
				if err != nil || !primary {
					return err
				}

				for _, job := range app.jobs {
					// The marker expires after one interval, which frees the job to run again
					due, err := lastRuns.Claim(ctx, job.name, time.Now(), job.interval)
					if err != nil {
						return err
					}

					if !due {
						continue
					}

					go func() {
						started := time.Now()
						if err := job.action(ctx); err != nil {
							app.logger.ErrorContext(ctx, "Background Job Failed", "job", job.name, "error", err)
							return
						}

						app.logger.DebugContext(ctx, "Background Job Finished", "job", job.name, "duration", time.Since(started))
					}()
				}

				return nil
			},
			func(ctx context.Context, err error) error {
				app.logger.WarnContext(ctx, "Background Scheduler", "instance", app.instanceUUID, "error", err)

				return nil
			},
		)
	}()

	return nil
}
