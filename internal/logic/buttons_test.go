package logic

import (
	"errors"
	"testing"
	"time"
)

func TestPressTransitionTable(t *testing.T) {
	tests := []struct {
		name     string
		presses  []Button
		wantMode Mode
		wantOpen bool
	}{
		{"manual toggles on", []Button{ButtonManual}, ModeManual, true},
		{"manual toggles off", []Button{ButtonManual, ButtonManual}, ModeIdle, false},
		{"stop ends manual", []Button{ButtonManual, ButtonStop}, ModeIdle, false},
		{"sensor toggles on", []Button{ButtonSensor}, ModeSensor, false},
		{"sensor toggles off", []Button{ButtonSensor, ButtonSensor}, ModeIdle, false},
		{"stop ends sensor", []Button{ButtonSensor, ButtonStop}, ModeIdle, false},
		{"timed starts", []Button{ButtonTimed}, ModeTimed, true},
		{"stop ends timed", []Button{ButtonTimed, ButtonStop}, ModeIdle, false},
		{"stop in idle", []Button{ButtonStop}, ModeIdle, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestController(t, DefaultConfig())
			for _, b := range tt.presses {
				if _, err := c.Press(b); err != nil {
					t.Fatalf("press %s: %v", b, err)
				}
			}
			if c.Mode() != tt.wantMode {
				t.Errorf("mode: got %s, want %s", c.Mode(), tt.wantMode)
			}
			if c.IsOpen() != tt.wantOpen {
				t.Errorf("open: got %v, want %v", c.IsOpen(), tt.wantOpen)
			}
		})
	}
}

func TestPressRejected(t *testing.T) {
	tests := []struct {
		name   string
		setup  Button
		reject Button
	}{
		{"sensor while manual", ButtonManual, ButtonSensor},
		{"timed while manual", ButtonManual, ButtonTimed},
		{"manual while sensor", ButtonSensor, ButtonManual},
		{"timed while sensor", ButtonSensor, ButtonTimed},
		{"manual while timed", ButtonTimed, ButtonManual},
		{"timed while timed", ButtonTimed, ButtonTimed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestController(t, DefaultConfig())
			c.Press(tt.setup)
			mode := c.Mode()

			events, err := c.Press(tt.reject)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if len(events) != 0 || c.Mode() != mode {
				t.Errorf("rejected press changed state: mode=%s events=%v", c.Mode(), eventTypes(events))
			}
			if c.Enabled(tt.reject) {
				t.Errorf("Enabled(%s) should be false in %s", tt.reject, mode)
			}
		})
	}
}

func TestPressWhileLocked(t *testing.T) {
	c, clk, _ := newTestController(t, Config{TimedCap: time.Hour, DailyCap: time.Second, LockOnQuota: true})
	c.Press(ButtonManual)
	clk.Advance(time.Second)
	c.TickDay()

	if _, err := c.Press(ButtonTimed); !errors.Is(err, ErrQuotaLocked) {
		t.Errorf("expected ErrQuotaLocked, got %v", err)
	}
	if _, err := c.Press(ButtonStop); err != nil {
		t.Errorf("stop while locked: %v", err)
	}
	for _, b := range []Button{ButtonManual, ButtonSensor, ButtonTimed} {
		if c.Enabled(b) {
			t.Errorf("Enabled(%s) should be false while locked", b)
		}
	}
	if !c.Enabled(ButtonStop) {
		t.Error("stop should stay enabled")
	}
}

func TestEnabledInIdle(t *testing.T) {
	c, _, _ := newTestController(t, DefaultConfig())
	for _, b := range AllButtons {
		if !c.Enabled(b) {
			t.Errorf("Enabled(%s) should be true in IDLE", b)
		}
	}
}
