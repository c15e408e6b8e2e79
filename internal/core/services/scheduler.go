package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
	"github.com/custodia-labs/lexgate/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// DefaultHistoryKeep is the number of runs kept per source.
const DefaultHistoryKeep = 100

// specParser accepts five-field specs and descriptors such as "@daily".
var specParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type scheduledJob struct {
	sourceID string
	spec     string
	schedule cron.Schedule
	running  atomic.Bool
}

// Scheduler re-runs incremental ingestion for sources that declare a
// schedule. Runs of the same source never overlap.
type Scheduler struct {
	jobs        []*scheduledJob
	coordinator driving.IngestionCoordinator
	runStore    driven.RunStore
	keep        int

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewScheduler creates a scheduler for the sources with a Schedule.
// runStore may be nil, in which case history is not pruned.
func NewScheduler(
	sources []domain.SourceConfig,
	coordinator driving.IngestionCoordinator,
	runStore driven.RunStore,
) (*Scheduler, error) {
	s := &Scheduler{
		coordinator: coordinator,
		runStore:    runStore,
		keep:        DefaultHistoryKeep,
	}
	for _, src := range sources {
		if src.Schedule == "" {
			continue
		}
		schedule, err := specParser.Parse(src.Schedule)
		if err != nil {
			return nil, fmt.Errorf("source %s: invalid schedule %q: %w", src.ID, src.Schedule, domain.ErrInvalidInput)
		}
		s.jobs = append(s.jobs, &scheduledJob{sourceID: src.ID, spec: src.Schedule, schedule: schedule})
	}
	sort.Slice(s.jobs, func(i, j int) bool { return s.jobs[i].sourceID < s.jobs[j].sourceID })
	return s, nil
}

// SetHistoryKeep sets how many runs per source survive pruning.
func (s *Scheduler) SetHistoryKeep(n int) {
	if n > 0 {
		s.keep = n
	}
}

// Jobs returns the scheduled sources with their next activation after now.
func (s *Scheduler) Jobs(now time.Time) []driving.ScheduledSource {
	out := make([]driving.ScheduledSource, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, driving.ScheduledSource{SourceID: job.sourceID, Spec: job.spec, Next: job.schedule.Next(now)})
	}
	return out
}

// Start registers every scheduled source and blocks until ctx is cancelled
// or Stop is called. In-flight runs are cancelled and awaited on return;
// their committed cursors let the next activation resume.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	stopCh, done := s.stopCh, s.done
	s.mu.Unlock()
	defer close(done)

	if len(s.jobs) == 0 {
		logger.Info("scheduler: no source declares a schedule")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := cron.New(cron.WithParser(specParser))
	for _, job := range s.jobs {
		c.Schedule(job.schedule, cron.FuncJob(func() { _ = s.runJob(runCtx, job) }))
		logger.Info("scheduler: %s scheduled (%s), next run %s",
			job.sourceID, job.spec, job.schedule.Next(time.Now()).Format(time.RFC3339))
	}
	c.Start()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-stopCh:
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	return err
}

// Stop gracefully shuts down the scheduler and waits for running
// ingestion to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
	return nil
}

// RunNow runs the job of a scheduled source immediately, subject to the
// same overlap guard as cron activations.
func (s *Scheduler) RunNow(ctx context.Context, sourceID string) error {
	for _, job := range s.jobs {
		if job.sourceID == sourceID {
			return s.runJob(ctx, job)
		}
	}
	return fmt.Errorf("source %s has no schedule: %w", sourceID, domain.ErrNotFound)
}

// runJob ingests one source from its committed cursor.
func (s *Scheduler) runJob(ctx context.Context, job *scheduledJob) error {
	if !job.running.CompareAndSwap(false, true) {
		logger.Info("scheduler: %s skipped, previous run still active", job.sourceID)
		return domain.ErrIngestInProgress
	}
	defer job.running.Store(false)

	start := time.Now()
	report, err := s.coordinator.Ingest(ctx, job.sourceID, driving.IngestOptions{Trigger: domain.TriggerSchedule})
	switch {
	case errors.Is(err, domain.ErrIngestInProgress):
		logger.Info("scheduler: %s skipped, a manual run is active", job.sourceID)
	case err != nil:
		logger.Warn("scheduler: %s failed after %s: %v", job.sourceID, time.Since(start).Round(time.Second), err)
	default:
		logger.Info("scheduler: %s finished in %s, %d documents, %d failures",
			job.sourceID, time.Since(start).Round(time.Second), report.Documents, len(report.Failures))
	}

	if s.runStore != nil {
		if pruneErr := s.runStore.PruneHistory(context.WithoutCancel(ctx), s.keep); pruneErr != nil {
			logger.Warn("scheduler: failed to prune history: %v", pruneErr)
		}
	}
	return err
}
