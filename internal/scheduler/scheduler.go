package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/kfin/pkg/logger"
)

// Job is one scheduled unit of work.
// 스케줄 작업은 이 인터페이스로만 등록
type Job interface {
	Name() string
	// Schedule is a cron expression with seconds, or "@daily" etc.
	Schedule() string
	Run(ctx context.Context) error
}

// Run records one job execution.
type Run struct {
	JobName   string        `json:"job_name"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

const historyLimit = 50

// Scheduler runs registered jobs on their cron schedules with retry.
type Scheduler struct {
	cron       *cron.Cron
	logger     *logger.Logger
	maxRetries int
	retryDelay time.Duration

	mu      sync.RWMutex
	jobs    map[string]Job
	history map[string][]Run
}

// New creates a scheduler. Failed jobs are retried up to three times
// with a fixed delay.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		logger:     log.WithField("module", "scheduler"),
		maxRetries: 3,
		retryDelay: time.Minute,
		jobs:       make(map[string]Job),
		history:    make(map[string][]Run),
	}
}

// Register adds a job to the schedule.
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	if _, err := s.cron.AddFunc(job.Schedule(), func() {
		s.execute(context.Background(), job)
	}); err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job registered")
	return nil
}

// Start begins dispatching schedules.
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler starting")
	s.cron.Start()
}

// Stop waits for running jobs before returning.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Trigger runs a registered job immediately, off-schedule.
func (s *Scheduler) Trigger(name string) error {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	go s.execute(context.Background(), job)
	return nil
}

func (s *Scheduler) execute(ctx context.Context, job Job) {
	name := job.Name()
	start := time.Now()
	run := Run{JobName: name, StartedAt: start}

	s.logger.WithField("job", name).Info("Job started")

	var lastErr error
attempts:
	for attempt := 1; attempt <= s.maxRetries+1; attempt++ {
		run.Attempts = attempt

		if lastErr = job.Run(ctx); lastErr == nil {
			run.Success = true
			break
		}

		s.logger.WithError(lastErr).WithFields(map[string]interface{}{
			"job":     name,
			"attempt": attempt,
		}).Warn("Job attempt failed")

		if attempt <= s.maxRetries {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				break attempts
			case <-time.After(s.retryDelay):
			}
		}
	}

	run.Duration = time.Since(start)
	if !run.Success && lastErr != nil {
		run.Error = lastErr.Error()
	}

	s.record(run)

	if run.Success {
		s.logger.WithFields(map[string]interface{}{
			"job":      name,
			"duration": run.Duration.String(),
		}).Info("Job finished")
	} else {
		s.logger.WithFields(map[string]interface{}{
			"job":      name,
			"duration": run.Duration.String(),
			"error":    run.Error,
		}).Error("Job failed after retries")
	}
}

func (s *Scheduler) record(run Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := append(s.history[run.JobName], run)
	if len(runs) > historyLimit {
		runs = runs[len(runs)-historyLimit:]
	}
	s.history[run.JobName] = runs
}

// History returns recorded runs for one job, oldest first.
func (s *Scheduler) History(name string) []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := s.history[name]
	out := make([]Run, len(runs))
	copy(out, runs)
	return out
}

// Jobs returns the registered job names with their schedules.
func (s *Scheduler) Jobs() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.jobs))
	for name, job := range s.jobs {
		out[name] = job.Schedule()
	}
	return out
}
