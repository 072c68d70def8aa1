// Package scheduler runs named fetch jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"twitfetch/pkg/log"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// JobInfo describes a registered job.
type JobInfo struct {
	Name     string
	Schedule string
	NextRun  time.Time
	LastRun  time.Time
}

// Scheduler manages periodic jobs. Runs of the same job never overlap.
type Scheduler struct {
	cron     *cron.Cron
	timeout  time.Duration
	location *time.Location

	mu   sync.Mutex
	jobs map[string]entry
}

type entry struct {
	id       cron.EntryID
	schedule string
}

// New creates a scheduler in timezone. Each run is bounded by timeout.
func New(timezone string, timeout time.Duration) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout:  timeout,
		location: loc,
		jobs:     make(map[string]entry),
	}, nil
}

// AddJob registers job under name with a standard five-field cron
// schedule such as "0 */2 * * *". Names are unique.
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}

	id, err := s.cron.AddFunc(schedule, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = entry{id: id, schedule: schedule}
	log.GlobalInfo("job scheduled", "job", name, "schedule", schedule)
	return nil
}

// RemoveJob unregisters a job. Unknown names are ignored.
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.jobs[name]; ok {
		s.cron.Remove(e.id)
		delete(s.jobs, name)
		log.GlobalInfo("job removed", "job", name)
	}
}

// RunNow executes job immediately with the configured timeout.
func (s *Scheduler) RunNow(name string, job Job) error {
	return s.execute(context.Background(), name, job)
}

func (s *Scheduler) run(name string, job Job) {
	_ = s.execute(context.Background(), name, job)
}

func (s *Scheduler) execute(parent context.Context, name string, job Job) error {
	ctx, cancel := context.WithTimeout(log.WithRunID(parent), s.timeout)
	defer cancel()
	ctx = log.WithFields(ctx, "job", name)

	log.GlobalInfoCtx(ctx, "job started")
	start := time.Now()

	if err := job(ctx); err != nil {
		log.GlobalErrorCtx(ctx, "job failed", "error", err.Error(), "duration", time.Since(start).String())
		return err
	}
	log.GlobalInfoCtx(ctx, "job completed", "duration", time.Since(start).String())
	return nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	log.GlobalInfo("scheduler started", "timezone", s.location.String())
	s.cron.Start()
}

// Stop halts scheduling. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	log.GlobalInfo("scheduler stopping")
	return s.cron.Stop()
}

// ListJobs returns registered jobs sorted by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, e := range s.jobs {
		ce := s.cron.Entry(e.id)
		infos = append(infos, JobInfo{
			Name:     name,
			Schedule: e.schedule,
			NextRun:  ce.Next,
			LastRun:  ce.Prev,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
