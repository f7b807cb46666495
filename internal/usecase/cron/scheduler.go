// Package cron runs the recurring maintenance jobs.
package cron

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/eci4ever/bizadmin/internal/domain"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler runs registered jobs on cron expressions such as "0 * * * *"
// or "@every 1h".
type Scheduler struct {
	cron    *cron.Cron
	entries map[string]*entry
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	log     *log.Logger
	nowFn   func() time.Time
}

type entry struct {
	id      string
	name    string
	spec    string
	cronID  cron.EntryID
	job     func(ctx context.Context) error
	lastRun time.Time
	running atomic.Bool
}

// NewScheduler creates a scheduler instance.
func NewScheduler(logger *log.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser), cron.WithLocation(time.UTC)),
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
		log:     logger,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Add registers a new scheduled job.
func (s *Scheduler) Add(id, name, spec string, job func(ctx context.Context) error) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if job == nil {
		return fmt.Errorf("job is required")
	}
	schedule, err := parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		return fmt.Errorf("schedule %q already exists", id)
	}

	e := &entry{id: id, name: name, spec: spec, job: job}
	e.cronID = s.cron.Schedule(schedule, cron.FuncJob(func() {
		if err := s.executeEntry(s.ctx, e); err != nil {
			s.log.Warn("scheduled job failed", "schedule_id", e.id, "err", err)
		}
	}))
	s.entries[id] = e
	return nil
}

// Remove unregisters a scheduled job.
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		s.cron.Remove(e.cronID)
		delete(s.entries, id)
	}
}

// Start begins running jobs. Jobs receive a context that is canceled when
// ctx ends or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			s.cancel()
		case <-s.ctx.Done():
		}
	}()
	s.cron.Start()
}

// Stop stops scheduling, cancels running jobs and waits for them until
// ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns current scheduler entries.
func (s *Scheduler) List() []domain.CronEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.CronEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, domain.CronEntry{
			ID:       e.id,
			Name:     e.name,
			Schedule: e.spec,
			LastRun:  e.lastRun,
			NextRun:  s.cron.Entry(e.cronID).Next,
			Running:  e.running.Load(),
		})
	}

	return entries
}

// RunNow triggers a registered job immediately.
func (s *Scheduler) RunNow(ctx context.Context, id string) error {
	e := s.getEntry(id)
	if e == nil {
		return fmt.Errorf("schedule %q not found", id)
	}

	return s.executeEntry(ctx, e)
}

func (s *Scheduler) executeEntry(ctx context.Context, e *entry) error {
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("schedule %q is already running", e.id)
	}
	defer e.running.Store(false)

	now := s.nowFn()
	err := e.job(ctx)

	s.mu.Lock()
	e.lastRun = now
	s.mu.Unlock()

	return err
}

func (s *Scheduler) getEntry(id string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id]
}
