// Package scheduler runs a job on a cron schedule in a fixed time zone.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler manages one cron job. A tick that arrives while the previous
// run is still going is skipped.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	mu       sync.Mutex
	entryID  cron.EntryID
	started  bool
}

// New creates a scheduler for the given IANA time zone ("Local" and "UTC"
// are accepted).
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		location: loc,
	}, nil
}

// Validate reports whether spec is a usable schedule. It accepts standard
// five-field expressions and descriptors such as "@weekly".
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Schedule replaces the current job with fn on spec.
func (s *Scheduler) Schedule(spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Remove existing job if any
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}

	entryID, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	s.entryID = entryID
	return nil
}

// Next returns the next activation time, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.cron.Start()
		s.started = true
	}
}

// Stop halts the scheduler and waits for a running job to return or ctx to
// end, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	done := s.cron.Stop()
	s.started = false
	s.mu.Unlock()

	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Location returns the scheduler time zone.
func (s *Scheduler) Location() *time.Location { return s.location }
