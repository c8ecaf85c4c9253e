package jobs

import (
	"context"
	"time"

	"github.com/cyclonewatch/stormtrack/pkg/schedule"
)

// HealthJob exercises persistence and cache connectivity on a fixed cadence
// and records the result for the OTel health gauges.
type HealthJob struct {
	deps *Deps
}

// NewHealthJob constructs the health job.
func NewHealthJob(deps *Deps) *HealthJob {
	return &HealthJob{deps: deps}
}

// Name implements schedule.Job.
func (j *HealthJob) Name() string { return NameHealth }

// Queue implements schedule.Job.
func (j *HealthJob) Queue() schedule.Queue { return schedule.QueueDefault }

// Period implements schedule.Job.
func (j *HealthJob) Period() time.Duration { return 5 * time.Minute }

// Run implements schedule.Job: pings the store and samples the validator
// cache's hit rate, reporting both to the health gauges. A store ping
// failure is retryable rather than permanent, since it usually reflects a
// transient connection-pool exhaustion rather than a lasting outage.
func (j *HealthJob) Run(ctx context.Context) schedule.Result {
	err := j.deps.Store.Ping(ctx)
	storeUp := err == nil

	var hitRate float64

	if j.deps.Cache != nil {
		hitRate = j.deps.Cache.Stats().HitRate()
	}

	if j.deps.Health != nil {
		j.deps.Health.Observe(storeUp, hitRate)
	}

	if err != nil {
		return schedule.Retryable(err)
	}

	return schedule.Ok()
}
