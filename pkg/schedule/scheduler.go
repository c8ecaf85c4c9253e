package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/cyclonewatch/stormtrack/pkg/toposort"
)

// Scheduler runs a bounded worker pool against a set of registered Job and
// StormJob values.
type Scheduler struct {
	logger    *slog.Logger
	sem       *semaphore.Weighted
	deadlines Deadlines

	jobs      []Job
	stormJobs []StormJob
	byName    map[string]StormJob

	// precedingJob maps a job name to the job that triggers it via
	// TriggersNext (the inverse of that edge), built by Validate. A job's
	// own independent ticker must not start a run for a storm while its
	// preceding job is still in flight for that same storm — otherwise,
	// e.g., regenerate_zones's 30-minute ticker could start concurrently
	// with an in-flight update_forecast for the same storm instead of
	// waiting for the triggered chain to hand it off.
	precedingJob map[string]string

	exclusivity sync.Map // key: "<job>:<storm>" -> struct{}

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New constructs a Scheduler with workerCount concurrent task slots.
func New(workerCount int, deadlines Deadlines, logger *slog.Logger) *Scheduler {
	if workerCount < 1 {
		workerCount = 1
	}

	return &Scheduler{
		logger:    logger,
		sem:       semaphore.NewWeighted(int64(workerCount)),
		deadlines: deadlines,
		byName:    make(map[string]StormJob),
	}
}

// RegisterJob adds a storm-agnostic periodic job.
func (s *Scheduler) RegisterJob(j Job) {
	s.jobs = append(s.jobs, j)
}

// RegisterStormJob adds a per-storm periodic job, keyed by name so other
// jobs can name it as a TriggersNext successor.
func (s *Scheduler) RegisterStormJob(j StormJob) {
	s.stormJobs = append(s.stormJobs, j)
	s.byName[j.Name()] = j
}

// Validate checks that the TriggersNext chain among registered StormJobs
// names only registered jobs and forms a DAG (the intra-storm dependency
// chain ingest_observations -> update_forecast -> regenerate_zones). It
// should be called once after registration and before Run; a cycle here
// would otherwise deadlock triggerNext in a tight recursive loop at
// runtime. It also builds precedingJob, the inverse of that chain, so each
// job's own ticker can tell when it must defer to an in-flight predecessor.
func (s *Scheduler) Validate() error {
	g := toposort.NewGraph()
	preceding := make(map[string]string)

	for _, j := range s.stormJobs {
		g.AddNode(j.Name())
	}

	for _, j := range s.stormJobs {
		next := j.TriggersNext()
		if next == "" {
			continue
		}

		if _, ok := s.byName[next]; !ok {
			return fmt.Errorf("job %q triggers unregistered job %q", j.Name(), next)
		}

		g.AddEdge(j.Name(), next)
		preceding[next] = j.Name()
	}

	if _, ok := g.Toposort(); !ok {
		return fmt.Errorf("storm job dependency graph has a cycle")
	}

	s.precedingJob = preceding

	return nil
}

// Run starts every registered job's ticker loop and blocks until ctx is
// cancelled, then waits up to ShutdownGrace for in-flight tasks before
// returning.
func (s *Scheduler) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, j := range s.jobs {
		s.wg.Add(1)

		go s.runJobLoop(runCtx, j)
	}

	for _, j := range s.stormJobs {
		s.wg.Add(1)

		go s.runStormJobLoop(runCtx, j)
	}

	<-runCtx.Done()
	s.waitWithGrace()
}

// Shutdown cancels the context of every in-flight and scheduled task; Run
// then waits up to ShutdownGrace for them to return.
func (s *Scheduler) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) waitWithGrace() {
	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(ShutdownGrace):
		if s.logger != nil {
			s.logger.Warn("scheduler shutdown grace period elapsed with tasks still in flight")
		}
	}
}

func (s *Scheduler) runJobLoop(ctx context.Context, j Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.Period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tryRunJob(ctx, j)
		}
	}
}

func (s *Scheduler) tryRunJob(ctx context.Context, j Job) {
	key := j.Name() + ":-"
	if _, inFlight := s.exclusivity.LoadOrStore(key, struct{}{}); inFlight {
		return // prior tick's task has not completed: drop, do not queue.
	}

	if !s.sem.TryAcquire(1) {
		s.exclusivity.Delete(key)

		return
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)
		defer s.exclusivity.Delete(key)

		s.execute(ctx, j.Name(), func(taskCtx context.Context) Result {
			return j.Run(taskCtx)
		})
	}()
}

func (s *Scheduler) runStormJobLoop(ctx context.Context, j StormJob) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.Period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tickStormJob(ctx, j)
		}
	}
}

func (s *Scheduler) tickStormJob(ctx context.Context, j StormJob) {
	storms, err := j.Storms(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("list storms for job", "job", j.Name(), "err", err)
		}

		return
	}

	predecessor := s.precedingJob[j.Name()]

	for _, stormID := range storms {
		if predecessor != "" {
			if _, inFlight := s.exclusivity.Load(exclusivityKey(predecessor, stormID)); inFlight {
				// The predecessor in the TriggersNext chain is still running
				// for this storm; its own completion will hand off to this
				// job, so the independent ticker must not also start one.
				continue
			}
		}

		s.tryRunStormJob(ctx, j, stormID)
	}
}

func (s *Scheduler) tryRunStormJob(ctx context.Context, j StormJob, stormID int64) {
	key := exclusivityKey(j.Name(), stormID)
	if _, inFlight := s.exclusivity.LoadOrStore(key, struct{}{}); inFlight {
		return
	}

	if !s.sem.TryAcquire(1) {
		s.exclusivity.Delete(key)

		return
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)
		defer s.exclusivity.Delete(key)

		result := s.execute(ctx, j.Name(), func(taskCtx context.Context) Result {
			return j.Run(taskCtx, stormID)
		})

		if result.Outcome == OutcomeOK {
			s.triggerNext(ctx, j, stormID)
		}
	}()
}

// triggerNext immediately runs the StormJob named by j.TriggersNext() for
// stormID, implementing the intra-storm dependency chain
// (ingest_observations -> update_forecast -> regenerate_zones) rather than
// waiting for that job's own ticker.
func (s *Scheduler) triggerNext(ctx context.Context, j StormJob, stormID int64) {
	nextName := j.TriggersNext()
	if nextName == "" {
		return
	}

	next, ok := s.byName[nextName]
	if !ok {
		if s.logger != nil {
			s.logger.Warn("triggers_next names unregistered job", "job", j.Name(), "next", nextName)
		}

		return
	}

	s.tryRunStormJob(ctx, next, stormID)
}

func exclusivityKey(job string, stormID int64) string {
	return fmt.Sprintf("%s:%d", job, stormID)
}

// execute runs fn with the scheduler's hard deadline applied, logging a
// warning if the soft deadline elapses first.
func (s *Scheduler) execute(ctx context.Context, name string, fn func(context.Context) Result) Result {
	taskCtx, cancel := context.WithTimeout(ctx, s.deadlines.Hard)
	defer cancel()

	resultCh := make(chan Result, 1)

	go func() {
		resultCh <- fn(taskCtx)
	}()

	softTimer := time.NewTimer(s.deadlines.Soft)
	defer softTimer.Stop()

	for {
		select {
		case result := <-resultCh:
			s.logResult(name, result)

			return result
		case <-softTimer.C:
			if s.logger != nil {
				s.logger.Warn("task exceeded soft deadline", "job", name, "soft_deadline", s.deadlines.Soft)
			}
		case <-taskCtx.Done():
			result := Cancelled(taskCtx.Err())
			s.logResult(name, result)

			return result
		}
	}
}

func (s *Scheduler) logResult(name string, result Result) {
	if s.logger == nil {
		return
	}

	switch result.Outcome {
	case OutcomeOK:
		s.logger.Debug("task completed", "job", name)
	case OutcomeRetryable:
		s.logger.Warn("task failed, retryable", "job", name, "err", result.Err)
	case OutcomePermanent:
		s.logger.Error("task failed, permanent", "job", name, "err", result.Err)
	case OutcomeCancelled:
		s.logger.Warn("task cancelled", "job", name, "err", result.Err)
	}
}
