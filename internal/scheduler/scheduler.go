package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/opicprep/trainer/internal/logging"
)

// Job is one periodic maintenance step.
type Job func(ctx context.Context) error

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// Scheduler runs named maintenance jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron
	log  *logging.Logger

	mu        sync.RWMutex
	entries   map[string]cron.EntryID
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
}

func New(log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		log:     log.With("component", "scheduler"),
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers job under name. A job still running when its next tick fires
// is skipped for that tick.
func (s *Scheduler) Add(name, schedule string, job Job) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("job %q already scheduled", name)
	}

	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		s.run(name, job)
	}))
	id, err := s.cron.AddJob(schedule, wrapped)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.entries[name] = id
	s.log.Info("job scheduled", "job", name, "schedule", schedule)
	return nil
}

// RunNow runs a registered job synchronously.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	id, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q is not scheduled", name)
	}
	entry := s.cron.Entry(id)
	if entry.Job == nil {
		return fmt.Errorf("job %q is not scheduled", name)
	}
	entry.Job.Run()
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()
	if err := job(s.ctx); err != nil {
		s.log.Error("scheduled job failed", "job", name, "error", err)
		return
	}
	s.log.Debug("scheduled job finished", "job", name, "duration", time.Since(start))
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.cron.Start()
	s.isRunning = true
}

// Stop waits for running jobs to finish or ctx to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}

	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.cancel()
		s.log.Warn("scheduler stopped before jobs finished")
	}
	s.isRunning = false
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the named job fires next, or nil when the scheduler is stopped.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return nil
	}
	id, ok := s.entries[name]
	if !ok {
		return nil
	}
	next := s.cron.Entry(id).Next
	return &next
}
