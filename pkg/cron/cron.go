// Package cron implements scheduled message injection (spec.md §4.8): jobs
// with a 5-field cron expression fire a synthetic inbound message on
// schedule. Expression parsing and next-run computation are delegated to
// adhocore/gronx rather than hand-rolled, and the job list is durably
// persisted using the same write-to-temp-then-rename idiom the teacher
// uses for its own small JSON stores.
package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/localloom/corebot/pkg/logger"
	"github.com/localloom/corebot/pkg/message"
)

// Job is a single scheduled task.
type Job struct {
	ID        string    `json:"id"`
	Schedule  string    `json:"schedule"`
	Channel   string    `json:"channel"`
	ChatID    string    `json:"chat_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	LastRun   time.Time `json:"last_run,omitempty"`
}

// FireFunc is invoked once per due job, synthesizing an inbound message.
type FireFunc func(ctx context.Context, job Job, msg message.Inbound)

// Service polls the durable job store and fires due jobs once per tick.
type Service struct {
	store    *Store
	interval time.Duration
	fire     FireFunc

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewService builds a Service polling every interval (default 30s if <=0).
func NewService(store *Store, interval time.Duration, fire FireFunc) *Service {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Service{store: store, interval: interval, fire: fire}
}

// Start runs the polling loop until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop ends the polling loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		close(s.stopCh)
		s.running = false
	}
}

func (s *Service) tick(ctx context.Context) {
	jobs := s.store.List()
	now := time.Now()

	for _, job := range jobs {
		due, err := gronx.IsDue(job.Schedule, now)
		if err != nil {
			logger.WarnCF("cron", "invalid schedule", map[string]any{"job": job.ID, "schedule": job.Schedule, "error": err.Error()})
			continue
		}
		if !due {
			continue
		}
		// Avoid double-firing within the same minute tick.
		if !job.LastRun.IsZero() && now.Sub(job.LastRun) < time.Minute {
			continue
		}

		msg := message.NewInbound(job.Channel, "cron", job.ChatID, job.Content)
		msg.Metadata["source"] = "cron"
		msg.Metadata["job_id"] = job.ID

		s.fire(ctx, job, msg)

		job.LastRun = now
		if err := s.store.Upsert(job); err != nil {
			logger.ErrorCF("cron", "failed to record last run", map[string]any{"job": job.ID, "error": err.Error()})
		}
	}
}

// NextRun returns the next scheduled fire time for a cron expression.
func NextRun(schedule string, from time.Time) (time.Time, error) {
	next, err := gronx.NextTickAfter(schedule, from, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("cron: next run for %q: %w", schedule, err)
	}
	return next, nil
}

// ValidateSchedule reports whether schedule is a valid 5-field cron
// expression.
func ValidateSchedule(schedule string) bool {
	return gronx.IsValid(schedule)
}

// Store is the durable job list, persisted as a single JSON file using the
// write-to-temp-then-rename pattern.
type Store struct {
	path string
	mu   sync.RWMutex
	jobs map[string]Job
}

// NewStore loads (or initializes) the job store at <workspace>/<relPath>.
func NewStore(workspace, relPath string) (*Store, error) {
	path := filepath.Join(workspace, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("cron: create dir for %s: %w", path, err)
	}
	s := &Store{path: path, jobs: make(map[string]Job)}
	s.load()
	return s, nil
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var jobs []Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return
	}
	s.mu.Lock()
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	s.mu.Unlock()
}

// List returns all jobs, unordered.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

// Get returns a job by ID.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

// Upsert adds or updates a job and persists the store.
func (s *Store) Upsert(job Job) error {
	s.mu.Lock()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return s.saveAtomic()
}

// Delete removes a job by ID and persists the store. Returns whether a job
// was actually removed.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	_, existed := s.jobs[id]
	delete(s.jobs, id)
	s.mu.Unlock()
	if !existed {
		return false, nil
	}
	return true, s.saveAtomic()
}

func (s *Store) saveAtomic() error {
	s.mu.RLock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("cron: marshal jobs: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("cron: write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cron: rename temp file: %w", err)
	}
	return nil
}
