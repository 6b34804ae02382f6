package logic

import (
	"time"

	"github.com/sweeney/rain-valve/internal/clock"
)

// Controller owns the valve state, the session and day stopwatches, and the
// Idle/Manual/Sensor/Timed mode machine. It is not safe for concurrent use;
// the host must serialize all calls.
//
// Every command and tick returns the events it produced, in order.
type Controller struct {
	cfg   Config
	clk   clock.Clock
	valve Valve

	mode   Mode
	open   bool
	locked bool
	// exceeded is set once the quota has been reported for the day.
	exceeded bool
	// outputFault is set while the last valve write failed.
	outputFault bool

	// resetPending defers the day reset until the valve is closed.
	resetPending bool
	day          time.Time

	session  *Stopwatch
	dayWatch *Stopwatch
	timed    *Stopwatch
	log      OpenLog

	pending []Event
}

// NewController creates an Idle controller with the valve assumed closed.
// Zero caps in cfg fall back to the defaults.
func NewController(cfg Config, clk clock.Clock, valve Valve) *Controller {
	if cfg.TimedCap <= 0 {
		cfg.TimedCap = DefaultTimedCap
	}
	if cfg.DailyCap <= 0 {
		cfg.DailyCap = DefaultDailyCap
	}
	return &Controller{
		cfg:      cfg,
		clk:      clk,
		valve:    valve,
		mode:     ModeIdle,
		day:      clock.Day(clk.Now()),
		session:  NewStopwatch(clk),
		dayWatch: NewStopwatch(clk),
		timed:    NewStopwatch(clk),
	}
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode { return c.mode }

// IsOpen reports whether the valve is open.
func (c *Controller) IsOpen() bool { return c.open }

// Locked reports whether mode entry is disabled by the daily quota.
func (c *Controller) Locked() bool { return c.locked }

// ResetPending reports whether a day reset is waiting for the valve to close.
func (c *Controller) ResetPending() bool { return c.resetPending }

// SessionElapsed returns the open time of the current activation.
func (c *Controller) SessionElapsed() time.Duration { return c.session.Value() }

// DayElapsed returns today's cumulative open time.
func (c *Controller) DayElapsed() time.Duration { return c.dayWatch.Value() }

// TimedElapsed returns the elapsed time of the current timed activation.
func (c *Controller) TimedElapsed() time.Duration { return c.timed.Value() }

// Sessions returns today's valve sessions.
func (c *Controller) Sessions() []Session { return c.log.Sessions() }

// View returns a snapshot of the controller state.
func (c *Controller) View() View {
	v := View{
		Mode:           c.mode,
		Valve:          valveState(c.open),
		Locked:         c.locked,
		ResetPending:   c.resetPending,
		SessionElapsed: c.session.Value(),
		DayElapsed:     c.dayWatch.Value(),
		TimedElapsed:   c.timed.Value(),
		TimedCap:       c.cfg.TimedCap,
		DailyCap:       c.cfg.DailyCap,
		Opens:          c.log.Opens(),
		Closes:         c.log.Closes(),
	}
	if last, ok := c.log.Last(); ok {
		v.LastSession = &last
	}
	return v
}

// EnterManual opens the valve until ExitManual. Valid only from Idle.
func (c *Controller) EnterManual() ([]Event, error) {
	err := c.enterManual()
	return c.flush(), err
}

// ExitManual closes the valve and returns to Idle. Valid only from Manual.
func (c *Controller) ExitManual() ([]Event, error) {
	err := c.exitManual()
	return c.flush(), err
}

// EnterSensor hands the valve to TickSensor. Valid only from Idle.
func (c *Controller) EnterSensor() ([]Event, error) {
	err := c.enterSensor()
	return c.flush(), err
}

// ExitSensor closes the valve and returns to Idle. Valid only from Sensor.
func (c *Controller) ExitSensor() ([]Event, error) {
	err := c.exitSensor()
	return c.flush(), err
}

// EnterTimed opens the valve for TimedCap. Valid only from Idle.
func (c *Controller) EnterTimed() ([]Event, error) {
	err := c.enterTimed()
	return c.flush(), err
}

// ExitTimed ends a timed activation early. Valid only from Timed.
func (c *Controller) ExitTimed() ([]Event, error) {
	err := c.exitTimed()
	return c.flush(), err
}

// Stop returns to Idle from any active mode. No-op in Idle.
func (c *Controller) Stop() []Event {
	if c.mode != ModeIdle {
		c.exitToIdle()
	}
	return c.flush()
}

// ResetQuota clears today's accounting and any quota lock. The valve must
// be closed.
func (c *Controller) ResetQuota() ([]Event, error) {
	if c.open {
		return nil, ErrValveOpen
	}
	c.resetDay()
	return c.flush(), nil
}

// TickSensor is called every poll interval. It is level-triggered: the
// valve follows detected regardless of previous reads. No-op outside Sensor.
func (c *Controller) TickSensor(detected bool) []Event {
	if c.mode != ModeSensor {
		return nil
	}
	if detected && !c.open {
		c.openValve()
	} else if !detected && c.open {
		c.closeValve()
	}
	return c.flush()
}

// TickTimed is called every poll interval. It ends the activation once its
// elapsed time reaches TimedCap. No-op outside Timed.
func (c *Controller) TickTimed() []Event {
	if c.mode != ModeTimed {
		return nil
	}
	if c.timed.Value() >= c.cfg.TimedCap {
		c.exitToIdle()
		c.emit(EventTimerFinished)
	}
	return c.flush()
}

// TickDay is called every poll interval regardless of mode. It enforces the
// daily cap, rewrites the output after a failed write, and performs the
// deferred day reset once the valve is closed.
func (c *Controller) TickDay() []Event {
	now := c.clk.Now()
	// The first tick on a new calendar day marks the reset. Repeated ticks
	// within the same day, including the midnight second, mark nothing.
	if !clock.SameDay(c.day, now) {
		c.day = clock.Day(now)
		c.resetPending = true
	}

	if c.outputFault {
		c.rewrite()
	}

	// A spent quota is reported once, even if its session already closed.
	spent := c.dayWatch.Value() >= c.cfg.DailyCap
	if spent && (c.dayWatch.Running() || !c.exceeded) {
		c.exitToIdle()
		c.exceeded = true
		if c.cfg.LockOnQuota {
			c.locked = true
		}
		c.emit(EventDailyQuotaExceeded)
	} else if !c.dayWatch.Running() && c.resetPending {
		c.resetDay()
	}
	return c.flush()
}

func (c *Controller) enterManual() error {
	if err := c.checkEntry("enter manual"); err != nil {
		return err
	}
	c.startActivation(ModeManual)
	c.openValve()
	return nil
}

func (c *Controller) exitManual() error {
	if c.mode != ModeManual {
		return &TransitionError{From: c.mode, Action: "exit manual"}
	}
	c.exitToIdle()
	return nil
}

func (c *Controller) enterSensor() error {
	if err := c.checkEntry("enter sensor"); err != nil {
		return err
	}
	c.startActivation(ModeSensor)
	return nil
}

func (c *Controller) exitSensor() error {
	if c.mode != ModeSensor {
		return &TransitionError{From: c.mode, Action: "exit sensor"}
	}
	c.exitToIdle()
	return nil
}

func (c *Controller) enterTimed() error {
	if err := c.checkEntry("enter timed"); err != nil {
		return err
	}
	c.startActivation(ModeTimed)
	c.timed.Reset()
	c.timed.Start()
	c.openValve()
	return nil
}

func (c *Controller) exitTimed() error {
	if c.mode != ModeTimed {
		return &TransitionError{From: c.mode, Action: "exit timed"}
	}
	c.exitToIdle()
	return nil
}

func (c *Controller) checkEntry(action string) error {
	if c.mode != ModeIdle {
		return &TransitionError{From: c.mode, Action: action}
	}
	if c.quotaBlocked() {
		return ErrQuotaLocked
	}
	return nil
}

// quotaBlocked reports whether mode entry is refused by the daily quota.
func (c *Controller) quotaBlocked() bool {
	return c.locked || (c.cfg.LockOnQuota && c.dayWatch.Value() >= c.cfg.DailyCap)
}

func (c *Controller) startActivation(m Mode) {
	c.session.Reset()
	c.setMode(m)
}

// exitToIdle leaves the active mode. Closing the valve on every exit is
// what keeps Idle closed.
func (c *Controller) exitToIdle() {
	if c.mode == ModeTimed {
		c.timed.Stop()
		c.timed.Reset()
	}
	c.setMode(ModeIdle)
	c.closeValve()
}

func (c *Controller) setMode(m Mode) {
	if c.mode == m {
		return
	}
	prev := c.mode
	c.mode = m
	c.pending = append(c.pending, Event{
		Timestamp:  c.clk.Now(),
		Type:       EventModeChanged,
		Mode:       m,
		PrevMode:   prev,
		Valve:      valveState(c.open),
		DayElapsed: c.dayWatch.Value(),
	})
}

func (c *Controller) openValve() {
	if c.open {
		return
	}
	now := c.clk.Now()
	c.open = true
	c.session.Start()
	c.dayWatch.Start()
	c.log.Opened(now)
	c.write(true)
	c.emit(EventValveOpened)
}

func (c *Controller) closeValve() {
	if !c.open {
		return
	}
	now := c.clk.Now()
	c.open = false
	c.session.Stop()
	c.dayWatch.Stop()
	c.log.Closed(now)
	last, _ := c.log.Last()
	c.write(false)
	c.pending = append(c.pending, Event{
		Timestamp:  now,
		Type:       EventValveClosed,
		Mode:       c.mode,
		Valve:      ValveClosed,
		Session:    last.Duration(now),
		DayElapsed: c.dayWatch.Value(),
	})
}

func (c *Controller) resetDay() {
	c.dayWatch.Reset()
	c.log.Clear()
	c.locked = false
	c.exceeded = false
	c.resetPending = false
	c.emit(EventDayReset)
}

// write drives the output. A failed write leaves the logical state as is;
// the host sees OUTPUT_ERROR and TickDay rewrites the output until it sticks.
func (c *Controller) write(open bool) {
	if c.valve == nil {
		return
	}
	err := c.valve.WriteValve(open)
	c.outputFault = err != nil
	if err != nil {
		c.pending = append(c.pending, Event{
			Timestamp: c.clk.Now(),
			Type:      EventOutputError,
			Mode:      c.mode,
			Valve:     valveState(open),
			Err:       err,
		})
	}
}

// rewrite repeats the last failed write without raising another event.
func (c *Controller) rewrite() {
	if c.valve.WriteValve(c.open) == nil {
		c.outputFault = false
	}
}

func (c *Controller) emit(t EventType) {
	c.pending = append(c.pending, Event{
		Timestamp:  c.clk.Now(),
		Type:       t,
		Mode:       c.mode,
		Valve:      valveState(c.open),
		DayElapsed: c.dayWatch.Value(),
	})
}

func (c *Controller) flush() []Event {
	events := c.pending
	c.pending = nil
	return events
}
