// Package status provides a thread-safe status tracker for the rain-valve daemon.
// The run loop writes it; HTTP handlers and MQTT heartbeats read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/rain-valve/internal/clock"
	"github.com/sweeney/rain-valve/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	DailyCap    time.Duration
	TimedCap    time.Duration
	LockOnQuota bool
	TimedStart  string
	Broker      string
	HTTPPort    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	View          logic.View
	Baselined     bool
	StartTime     time.Time
	LastTick      time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Healthy reports whether the control loop ticked within maxAge of Now.
func (s Snapshot) Healthy(maxAge time.Duration) bool {
	return !s.LastTick.IsZero() && s.Now.Sub(s.LastTick) <= maxAge
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	clk  clock.Clock
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given clock and config. The start
// time is read from the clock.
func NewTracker(clk clock.Clock, cfg Config) *Tracker {
	return &Tracker{
		clk: clk,
		snap: Snapshot{
			StartTime: clk.Now(),
			View:      logic.View{Mode: logic.ModeIdle, Valve: logic.ValveClosed},
			Config:    cfg,
		},
	}
}

// Update stores the controller view and button baseline status, and marks
// the loop as alive. Called from runLoop on every status tick.
func (t *Tracker) Update(v logic.View, baselined bool) {
	now := t.clk.Now()
	t.mu.Lock()
	t.snap.View = v
	t.snap.Baselined = baselined
	t.snap.LastTick = now
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	if s.View.LastSession != nil {
		last := *s.View.LastSession
		s.View.LastSession = &last
	}
	s.Now = t.clk.Now()
	return s
}
