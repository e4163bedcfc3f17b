// Package httpapi exposes the daemon state over HTTP: a health probe and the
// list of jobs with their last run and next scheduled run.
package httpapi

import (
	"context"
	"sync"
	"time"

	"crontab/internal/crontab"
)

// Status remembers the last non-skipped outcome of every job and the time of
// the last finished tick. It implements scheduler.Reporter.
type Status struct {
	registry *crontab.Registry
	interval time.Duration
	now      func() time.Time
	started  time.Time

	mu       sync.RWMutex
	last     map[string]crontab.Outcome
	lastTick time.Time
	ticks    int
}

// NewStatus creates a Status for registry. interval is the tick interval, used
// to decide whether the loop is stuck.
func NewStatus(registry *crontab.Registry, interval time.Duration) *Status {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Status{
		registry: registry,
		interval: interval,
		now:      time.Now,
		started:  time.Now(),
		last:     make(map[string]crontab.Outcome),
	}
}

// Report implements scheduler.Reporter.
func (s *Status) Report(_ context.Context, o crontab.Outcome) {
	if o.Status == crontab.StatusSkipped {
		return
	}
	s.mu.Lock()
	s.last[o.Job.Name()] = o
	s.mu.Unlock()
}

// TickFinished records a finished tick. Wire it to scheduler.Hooks.OnTickFinish.
func (s *Status) TickFinished(at time.Time, _ []crontab.Outcome, _ time.Duration) {
	s.mu.Lock()
	s.lastTick = at
	s.ticks++
	s.mu.Unlock()
}

// Last returns the last non-skipped outcome of the job.
func (s *Status) Last(name string) (crontab.Outcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.last[name]
	return o, ok
}

// Healthy reports whether a tick finished within the last three intervals.
// Before the first tick the daemon counts as healthy for the same grace period.
func (s *Status) Healthy() bool {
	s.mu.RLock()
	ref := s.lastTick
	s.mu.RUnlock()
	if ref.IsZero() {
		ref = s.started
	}
	return s.now().Sub(ref) <= 3*s.interval
}
