package logic

import (
	"time"

	"github.com/sweeney/rain-valve/internal/clock"
)

// Stopwatch accumulates running time across start/stop cycles.
type Stopwatch struct {
	clk          clock.Clock
	running      bool
	accumulated  time.Duration
	segmentStart time.Time
}

// NewStopwatch creates a stopped, zeroed stopwatch reading time from clk.
func NewStopwatch(clk clock.Clock) *Stopwatch {
	return &Stopwatch{clk: clk, segmentStart: clk.Now()}
}

// Start begins a running segment. No-op if already running.
func (s *Stopwatch) Start() {
	if s.running {
		return
	}
	s.segmentStart = s.clk.Now()
	s.running = true
}

// Stop folds the current segment into the total. No-op if stopped.
func (s *Stopwatch) Stop() {
	if !s.running {
		return
	}
	s.accumulated += s.segment()
	s.running = false
}

// Reset zeroes the total and rearms the segment start.
// Resetting a running stopwatch stops it.
func (s *Stopwatch) Reset() {
	s.running = false
	s.accumulated = 0
	s.segmentStart = s.clk.Now()
}

// Running reports whether a segment is in progress.
func (s *Stopwatch) Running() bool {
	return s.running
}

// Value returns the accumulated time plus the running segment, if any.
func (s *Stopwatch) Value() time.Duration {
	if s.running {
		return s.accumulated + s.segment()
	}
	return s.accumulated
}

// segment never goes negative, so a clock stepped backwards cannot shrink
// the total.
func (s *Stopwatch) segment() time.Duration {
	d := s.clk.Now().Sub(s.segmentStart)
	if d < 0 {
		return 0
	}
	return d
}
