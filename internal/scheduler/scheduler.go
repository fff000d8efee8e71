// Package scheduler runs pipeline stages on cron schedules. Jobs retry on
// failure and keep a bounded in-memory history for the status view.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ogaspar/ballast/pkg/logger"
)

// Job is a named unit of scheduled work.
type Job interface {
	// Name identifies the job in logs and status output.
	Name() string

	// Schedule returns the cron expression, e.g. "0 18 * * 1-5" or "@daily".
	Schedule() string

	// Run executes one invocation of the job.
	Run(ctx context.Context) error
}

const historyLimit = 50

// Result records one job invocation.
type Result struct {
	JobName   string        `json:"job_name"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// Scheduler wraps cron with per-job retries and history.
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger

	mu      sync.RWMutex
	jobs    map[string]Job
	history map[string][]Result

	maxRetries int
	retryDelay time.Duration
}

// New creates an empty scheduler using standard five-field cron expressions.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		logger:     log,
		jobs:       make(map[string]Job),
		history:    make(map[string][]Result),
		maxRetries: 2,
		retryDelay: 30 * time.Second,
	}
}

// AddJob registers a job under its name and schedule.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	if _, err := s.cron.AddFunc(job.Schedule(), func() { s.runJob(job) }); err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("job registered")

	return nil
}

// Start begins firing jobs on their schedules.
func (s *Scheduler) Start() {
	s.logger.Info("scheduler started")
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunJob fires one job immediately, outside its schedule.
func (s *Scheduler) RunJob(name string) error {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.runJob(job)
	return nil
}

// Jobs returns the registered jobs.
func (s *Scheduler) Jobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// History returns the recorded results for one job, oldest first.
func (s *Scheduler) History(name string) []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := s.history[name]
	out := make([]Result, len(results))
	copy(out, results)
	return out
}

func (s *Scheduler) runJob(job Job) {
	name := job.Name()
	start := time.Now()
	log := s.logger.WithField("job", name)
	log.Info("job started")

	var lastErr error
	success := false
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := job.Run(context.Background()); err != nil {
			lastErr = err
			log.WithError(err).WithField("attempt", attempt+1).Warn("job attempt failed")
			if attempt < s.maxRetries {
				time.Sleep(s.retryDelay)
			}
			continue
		}
		success = true
		break
	}

	result := Result{
		JobName:   name,
		StartedAt: start,
		Duration:  time.Since(start),
		Success:   success,
	}
	if !success && lastErr != nil {
		result.Error = lastErr.Error()
	}
	s.record(result)

	if success {
		log.WithField("duration", result.Duration.String()).Info("job completed")
	} else {
		log.WithError(lastErr).Error("job failed after retries")
	}
}

func (s *Scheduler) record(result Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := append(s.history[result.JobName], result)
	if len(results) > historyLimit {
		results = results[len(results)-historyLimit:]
	}
	s.history[result.JobName] = results
}
