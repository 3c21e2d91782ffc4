package runner

import (
	"sync"
	"time"
)

// Schedule owns the per-task last-run timestamps. A task that never ran is
// due on the first tick.
type Schedule struct {
	mu        sync.Mutex
	order     []string
	intervals map[string]time.Duration
	lastRun   map[string]time.Time
}

// NewSchedule creates a schedule for tasks in the given order.
func NewSchedule(order []string, intervals map[string]time.Duration) *Schedule {
	s := &Schedule{
		intervals: map[string]time.Duration{},
		lastRun:   map[string]time.Time{},
	}
	for _, name := range order {
		if _, dup := s.intervals[name]; dup {
			continue
		}
		s.order = append(s.order, name)
		s.intervals[name] = intervals[name]
	}
	return s
}

// Due returns the tasks whose interval has elapsed at now, in schedule order.
func (s *Schedule) Due(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []string
	for _, name := range s.order {
		last, ran := s.lastRun[name]
		if !ran || now.Sub(last) >= s.intervals[name] {
			due = append(due, name)
		}
	}
	return due
}

// MarkRun records that name ran at the given tick time.
func (s *Schedule) MarkRun(name string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.intervals[name]; ok {
		s.lastRun[name] = at
	}
}

// LastRun returns the last tick time name ran at.
func (s *Schedule) LastRun(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastRun[name]
	return t, ok
}

// Interval returns the configured interval of name.
func (s *Schedule) Interval(name string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.intervals[name]
	return d, ok
}

// SetInterval changes the interval of a known task. Its last run is kept.
func (s *Schedule) SetInterval(name string, d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.intervals[name]; !ok {
		return false
	}
	s.intervals[name] = d
	return true
}

// Next returns when name becomes due. A task that never ran is due immediately.
func (s *Schedule) Next(name string, now time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastRun[name]
	if !ok {
		return now
	}
	return last.Add(s.intervals[name])
}
