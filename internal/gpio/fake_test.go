package gpio

import (
	"errors"
	"testing"
)

func TestFakeIOReadSensor(t *testing.T) {
	f := NewFakeIO([]bool{true, false, true})

	for i, want := range []bool{true, false, true, true} {
		got, err := f.ReadSensor()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestFakeIONoSensorSamples(t *testing.T) {
	f := NewFakeIO(nil)
	if _, err := f.ReadSensor(); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeIOSensorError(t *testing.T) {
	f := NewFakeIO([]bool{true})
	f.SensorError = errors.New("simulated error")

	_, err := f.ReadSensor()
	if err == nil || err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeIOReadButtons(t *testing.T) {
	f := NewFakeIO(nil)

	b, err := f.ReadButtons()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != (Buttons{}) {
		t.Errorf("expected all released without samples, got %+v", b)
	}

	f.ButtonSamples = []Buttons{{Manual: true}, {Stop: true}}
	b, _ = f.ReadButtons()
	if !b.Manual || b.Stop {
		t.Errorf("sample 0: got %+v", b)
	}
	b, _ = f.ReadButtons()
	if b.Manual || !b.Stop {
		t.Errorf("sample 1: got %+v", b)
	}
	b, _ = f.ReadButtons()
	if !b.Stop {
		t.Errorf("exhausted samples should repeat the last, got %+v", b)
	}
}

func TestFakeIOWriteValve(t *testing.T) {
	f := NewFakeIO(nil)
	if f.Open() {
		t.Error("valve should start closed")
	}

	f.WriteValve(true)
	if !f.Open() {
		t.Error("valve should be open after write(true)")
	}
	f.WriteError = errors.New("busy")
	if err := f.WriteValve(false); err == nil {
		t.Error("expected write error")
	}
	if len(f.Writes) != 2 {
		t.Errorf("expected 2 recorded writes, got %d", len(f.Writes))
	}
}

func TestFakeIOCloseReleasesValve(t *testing.T) {
	f := NewFakeIO(nil)
	f.WriteValve(true)

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
	if f.Open() {
		t.Error("Close should release the valve")
	}
}

func TestFakeIOReset(t *testing.T) {
	f := NewFakeIO([]bool{true, false})
	f.ReadSensor()
	f.WriteValve(true)

	f.Reset()

	v, _ := f.ReadSensor()
	if !v {
		t.Error("after reset: expected first sample again")
	}
	if len(f.Writes) != 0 {
		t.Error("after reset: expected writes cleared")
	}
}

func TestButtonPins(t *testing.T) {
	p := DefaultPins()
	p.SensorButton = 0

	offsets, idx := p.buttonPins()
	want := []int{DefaultPinManual, DefaultPinTimed, DefaultPinStop}
	if len(offsets) != len(want) {
		t.Fatalf("offsets: got %v, want %v", offsets, want)
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("offset %d: got %d, want %d", i, offsets[i], want[i])
		}
	}
	if idx != [4]int{0, -1, 1, 2} {
		t.Errorf("index: got %v", idx)
	}

	b := buttonsFromValues([]int{0, 1, 1}, idx)
	if b != (Buttons{Timed: true, Stop: true}) {
		t.Errorf("buttons: got %+v", b)
	}
}
