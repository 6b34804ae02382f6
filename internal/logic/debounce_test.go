package logic

import (
	"testing"
	"time"
)

var debounceStart = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func released() ButtonLevels {
	return ButtonLevels{}
}

func pressed(b Button) ButtonLevels {
	return ButtonLevels{b: true}
}

// setupBaselinedDebouncer establishes a baseline with the given levels.
func setupBaselinedDebouncer(t *testing.T, levels ButtonLevels) *Debouncer {
	t.Helper()
	d := NewDebouncer(50 * time.Millisecond)

	d.Process(levels, debounceStart)
	d.Process(levels, debounceStart.Add(50*time.Millisecond))

	if !d.IsBaselined() {
		t.Fatal("failed to establish baseline")
	}
	return d
}

func TestNewDebouncer(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	if d.debounceDuration != 50*time.Millisecond {
		t.Errorf("expected debounce duration 50ms, got %v", d.debounceDuration)
	}
	if d.IsBaselined() {
		t.Error("new debouncer should not be baselined")
	}
	if len(d.channels) != len(AllButtons) {
		t.Errorf("expected %d channels, got %d", len(AllButtons), len(d.channels))
	}
}

func TestDebouncerBaselineEstablishment(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	if got := d.Process(released(), debounceStart); len(got) != 0 {
		t.Errorf("expected no presses during baseline, got %v", got)
	}
	if got := d.Process(released(), debounceStart.Add(40*time.Millisecond)); len(got) != 0 {
		t.Errorf("expected no presses during baseline, got %v", got)
	}
	if d.IsBaselined() {
		t.Error("should not be baselined before debounce period")
	}
	if got := d.Process(released(), debounceStart.Add(50*time.Millisecond)); len(got) != 0 {
		t.Errorf("expected no presses at baseline establishment, got %v", got)
	}
	if !d.IsBaselined() {
		t.Error("should be baselined after debounce period")
	}
}

func TestDebouncerButtonHeldAtStartupDoesNotFire(t *testing.T) {
	d := setupBaselinedDebouncer(t, pressed(ButtonManual))

	// Still held
	if got := d.Process(pressed(ButtonManual), debounceStart.Add(time.Second)); len(got) != 0 {
		t.Errorf("expected no presses while held, got %v", got)
	}

	// Release
	d.Process(released(), debounceStart.Add(2*time.Second))
	if got := d.Process(released(), debounceStart.Add(2*time.Second+50*time.Millisecond)); len(got) != 0 {
		t.Errorf("release must not report a press, got %v", got)
	}
}

func TestDebouncerSinglePress(t *testing.T) {
	d := setupBaselinedDebouncer(t, released())
	now := debounceStart.Add(time.Second)

	if got := d.Process(pressed(ButtonSensor), now); len(got) != 0 {
		t.Errorf("expected no press before debounce, got %v", got)
	}
	got := d.Process(pressed(ButtonSensor), now.Add(50*time.Millisecond))
	if len(got) != 1 || got[0] != ButtonSensor {
		t.Fatalf("expected [SENSOR], got %v", got)
	}

	// Holding does not repeat
	for i := 2; i < 10; i++ {
		if got := d.Process(pressed(ButtonSensor), now.Add(time.Duration(i)*50*time.Millisecond)); len(got) != 0 {
			t.Errorf("tick %d: expected no repeat while held, got %v", i, got)
		}
	}
	if d.Presses(ButtonSensor) != 1 {
		t.Errorf("expected 1 sensor press counted, got %d", d.Presses(ButtonSensor))
	}
}

func TestDebouncerBounceRejected(t *testing.T) {
	d := setupBaselinedDebouncer(t, released())
	now := debounceStart.Add(time.Second)

	d.Process(pressed(ButtonStop), now)
	d.Process(released(), now.Add(20*time.Millisecond))
	if got := d.Process(released(), now.Add(100*time.Millisecond)); len(got) != 0 {
		t.Errorf("expected bounce to be rejected, got %v", got)
	}
	if d.Presses(ButtonStop) != 0 {
		t.Errorf("expected 0 stop presses, got %d", d.Presses(ButtonStop))
	}
}

func TestDebouncerMultipleBouncesThenSettle(t *testing.T) {
	d := setupBaselinedDebouncer(t, released())
	now := debounceStart.Add(time.Second)

	levels := []bool{true, false, true, false, true}
	for i, level := range levels {
		got := d.Process(ButtonLevels{ButtonTimed: level}, now.Add(time.Duration(i*10)*time.Millisecond))
		if len(got) != 0 {
			t.Errorf("iteration %d: expected no presses while bouncing, got %v", i, got)
		}
	}

	// Settled pressed since the last sample at +40ms
	got := d.Process(pressed(ButtonTimed), now.Add(90*time.Millisecond))
	if len(got) != 1 || got[0] != ButtonTimed {
		t.Fatalf("expected [TIMED], got %v", got)
	}
}

func TestDebouncerSimultaneousPressesInOrder(t *testing.T) {
	d := setupBaselinedDebouncer(t, released())
	now := debounceStart.Add(time.Second)
	both := ButtonLevels{ButtonStop: true, ButtonManual: true}

	d.Process(both, now)
	got := d.Process(both, now.Add(50*time.Millisecond))
	if len(got) != 2 {
		t.Fatalf("expected 2 presses, got %v", got)
	}
	if got[0] != ButtonManual || got[1] != ButtonStop {
		t.Errorf("expected [MANUAL STOP], got %v", got)
	}
}

func TestDebouncerRepeatedPresses(t *testing.T) {
	d := setupBaselinedDebouncer(t, released())
	now := debounceStart.Add(time.Second)

	for i := 0; i < 3; i++ {
		base := now.Add(time.Duration(i) * time.Second)
		d.Process(pressed(ButtonManual), base)
		d.Process(pressed(ButtonManual), base.Add(50*time.Millisecond))
		d.Process(released(), base.Add(500*time.Millisecond))
		d.Process(released(), base.Add(550*time.Millisecond))
	}
	if d.Presses(ButtonManual) != 3 {
		t.Errorf("expected 3 presses, got %d", d.Presses(ButtonManual))
	}
}
