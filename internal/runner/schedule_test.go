package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedule_Due(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := NewSchedule([]string{"releases", "cache-assets"}, map[string]time.Duration{
		"releases":     2 * time.Hour,
		"cache-assets": 24 * time.Hour,
	})

	assert.Equal(t, []string{"releases", "cache-assets"}, s.Due(start), "never-run tasks are due")
	s.MarkRun("releases", start)
	s.MarkRun("cache-assets", start)

	assert.Empty(t, s.Due(start.Add(time.Hour)))
	assert.Equal(t, []string{"releases"}, s.Due(start.Add(2*time.Hour)), "elapsed == interval is due")
	assert.Empty(t, s.Due(start.Add(2*time.Hour-time.Second)))
	assert.Equal(t, []string{"releases", "cache-assets"}, s.Due(start.Add(24*time.Hour)))
}

func TestSchedule_SetIntervalKeepsLastRun(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := NewSchedule([]string{"a"}, map[string]time.Duration{"a": time.Hour})
	s.MarkRun("a", start)

	assert.True(t, s.SetInterval("a", 10*time.Minute))
	assert.False(t, s.SetInterval("unknown", time.Minute))
	assert.Equal(t, []string{"a"}, s.Due(start.Add(10*time.Minute)))

	last, ok := s.LastRun("a")
	assert.True(t, ok)
	assert.Equal(t, start, last)
	assert.Equal(t, start.Add(10*time.Minute), s.Next("a", start))
}

func TestSchedule_UnknownMarkIgnored(t *testing.T) {
	s := NewSchedule([]string{"a", "a"}, map[string]time.Duration{"a": time.Hour})
	s.MarkRun("b", time.Now())
	_, ok := s.LastRun("b")
	assert.False(t, ok)
	assert.Len(t, s.Due(time.Now()), 1)
}
