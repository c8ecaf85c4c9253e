// Package schedule implements the worker pool and job scheduling contract:
// queue tags, storm-key exclusivity, soft/hard deadlines, and
// intra-storm dependency chaining (ingest_observations -> update_forecast
// -> regenerate_zones).
package schedule

import (
	"context"
	"time"
)

// Queue names the logical work queue a job is tagged with. The Scheduler
// does not read it: every job draws from one shared worker pool, with no
// per-queue pool or limit.
type Queue string

// Recognized queues.
const (
	QueueDefault  Queue = "default"
	QueueIngest   Queue = "ingest"
	QueueForecast Queue = "forecast"
	QueueZones    Queue = "zones"
	QueueAlerts   Queue = "alerts"
)

// Outcome classifies the result of one task run, mirroring the
// NotModified|Fetched|NotFound|Transient|Permanent sum type internal/fetch uses
// for the same reason.
type Outcome int

// Recognized task outcomes.
const (
	OutcomeOK Outcome = iota
	OutcomeRetryable
	OutcomePermanent
	OutcomeCancelled
)

// Result is the terminal outcome of one task run.
type Result struct {
	Outcome Outcome
	Err     error
}

// Ok constructs a successful Result.
func Ok() Result { return Result{Outcome: OutcomeOK} }

// Retryable constructs a transient-failure Result.
func Retryable(err error) Result { return Result{Outcome: OutcomeRetryable, Err: err} }

// Permanent constructs a non-retryable-failure Result.
func Permanent(err error) Result { return Result{Outcome: OutcomePermanent, Err: err} }

// Cancelled constructs a Result for a task that observed context
// cancellation.
func Cancelled(err error) Result { return Result{Outcome: OutcomeCancelled, Err: err} }

// Job is a periodic task with no storm affinity (discover, health).
type Job interface {
	Name() string
	Queue() Queue
	Period() time.Duration
	Run(ctx context.Context) Result
}

// StormJob is a periodic task scoped to one storm at a time
// (ingest_observations, update_forecast, regenerate_zones, check_dormant,
// check_archive). The scheduler calls Run once per eligible storm per
// tick, enforcing storm-key exclusivity per (job, storm).
type StormJob interface {
	Name() string
	Queue() Queue
	Period() time.Duration
	// Storms returns the set of storm IDs currently eligible for this job.
	Storms(ctx context.Context) ([]int64, error)
	Run(ctx context.Context, stormID int64) Result
	// TriggersNext optionally names the StormJob this job's successful
	// completion should immediately trigger for the same storm, or "" for none.
	TriggersNext() string
}

// Deadlines controls the soft/hard deadline behavior of task execution.
type Deadlines struct {
	Soft time.Duration
	Hard time.Duration
}

// DefaultDeadlines are the scheduler's default soft/hard deadlines.
func DefaultDeadlines() Deadlines {
	return Deadlines{Soft: 25 * time.Minute, Hard: 30 * time.Minute}
}

// ShutdownGrace is how long Run waits, once its context is cancelled, for
// in-flight tasks to return. Tasks still running after that are not
// stopped; Run logs a warning and returns.
const ShutdownGrace = 5 * time.Second
