package logic

import (
	"fmt"
	"time"

	"github.com/sweeney/rain-valve/internal/clock"
)

// Schedule fires once per calendar day at a fixed wall-clock minute.
type Schedule struct {
	hour, minute int
	lastDay      time.Time
}

// ParseSchedule parses "HH:MM". An empty string means no schedule and
// returns nil.
func ParseSchedule(s string) (*Schedule, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", s, err)
	}
	return &Schedule{hour: t.Hour(), minute: t.Minute()}, nil
}

// String returns the schedule as HH:MM.
func (s *Schedule) String() string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", s.hour, s.minute)
}

// Due reports whether the schedule should fire at now. It fires on the
// first call at or after the scheduled minute within the same hour, then
// not again until the next day. A nil schedule is never due.
func (s *Schedule) Due(now time.Time) bool {
	if s == nil {
		return false
	}
	if !s.lastDay.IsZero() && clock.SameDay(s.lastDay, now) {
		return false
	}
	h, m, _ := now.Clock()
	if h != s.hour || m < s.minute {
		return false
	}
	s.lastDay = clock.Day(now)
	return true
}
