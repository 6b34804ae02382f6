// Package logic contains the valve session and daily quota controller.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via clock.Clock or time.Time parameters.
package logic

import (
	"errors"
	"fmt"
	"time"
)

// Mode is the active control mode. Exactly one is active at a time.
type Mode string

const (
	ModeIdle   Mode = "IDLE"
	ModeManual Mode = "MANUAL"
	ModeSensor Mode = "SENSOR"
	ModeTimed  Mode = "TIMED"
)

// ValveState is the logical state of the valve output.
type ValveState string

const (
	ValveOpen   ValveState = "OPEN"
	ValveClosed ValveState = "CLOSED"
)

func valveState(open bool) ValveState {
	if open {
		return ValveOpen
	}
	return ValveClosed
}

// EventType identifies something the controller did.
type EventType string

const (
	EventModeChanged        EventType = "MODE_CHANGED"
	EventValveOpened        EventType = "VALVE_OPENED"
	EventValveClosed        EventType = "VALVE_CLOSED"
	EventTimerFinished      EventType = "TIMER_FINISHED"
	EventDailyQuotaExceeded EventType = "DAILY_QUOTA_EXCEEDED"
	EventDayReset           EventType = "DAY_RESET"
	EventOutputError        EventType = "OUTPUT_ERROR"
)

// Event is emitted by controller commands and ticks for the host to log,
// publish and reflect in its UI.
type Event struct {
	Timestamp time.Time
	Type      EventType
	// Mode is the mode after the event; PrevMode is set for MODE_CHANGED.
	Mode     Mode
	PrevMode Mode
	Valve    ValveState
	// Session is how long the valve was open, set for VALVE_CLOSED.
	Session    time.Duration
	DayElapsed time.Duration
	// Err is set for OUTPUT_ERROR.
	Err error
}

// Valve drives the physical valve output. Writing the same value twice
// must be harmless.
type Valve interface {
	WriteValve(open bool) error
}

// Config holds controller limits.
type Config struct {
	// TimedCap is how long a timed activation keeps the valve open.
	TimedCap time.Duration
	// DailyCap is the cumulative open time allowed per calendar day.
	DailyCap time.Duration
	// LockOnQuota keeps every mode disabled after the daily cap is hit
	// until the next day reset.
	LockOnQuota bool
}

// Default limits.
const (
	DefaultTimedCap = 300 * time.Second
	DefaultDailyCap = 300 * time.Second
)

// DefaultConfig returns the stock limits: five minutes per timed run and per day.
func DefaultConfig() Config {
	return Config{
		TimedCap:    DefaultTimedCap,
		DailyCap:    DefaultDailyCap,
		LockOnQuota: true,
	}
}

var (
	// ErrInvalidTransition is returned when a command is not allowed in the
	// current mode. Match with errors.Is; the concrete type is *TransitionError.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrQuotaLocked is returned when entering a mode after the daily quota
	// was exceeded and before the day was reset.
	ErrQuotaLocked = errors.New("daily quota exhausted")

	// ErrValveOpen is returned by ResetQuota while the valve is open.
	ErrValveOpen = errors.New("valve is open")
)

// TransitionError describes a rejected command.
type TransitionError struct {
	From   Mode
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s from %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// View is a point-in-time copy of controller state for the host.
type View struct {
	Mode           Mode
	Valve          ValveState
	Locked         bool
	ResetPending   bool
	SessionElapsed time.Duration
	DayElapsed     time.Duration
	TimedElapsed   time.Duration
	TimedCap       time.Duration
	DailyCap       time.Duration
	Opens          int
	Closes         int
	LastSession    *Session
}

// DayRemaining returns how much open time is left today, never negative.
func (v View) DayRemaining() time.Duration {
	if v.DayElapsed >= v.DailyCap {
		return 0
	}
	return v.DailyCap - v.DayElapsed
}
