package gpio

import "errors"

// FakeIO is a test double that returns scripted inputs and records valve
// writes.
type FakeIO struct {
	// SensorSamples contains scripted sensor values to return.
	// Each call to ReadSensor() consumes the next sample.
	SensorSamples []bool
	sensorIndex   int

	// ButtonSamples contains scripted button levels. With no samples,
	// ReadButtons reports every button released.
	ButtonSamples []Buttons
	buttonIndex   int

	// Writes records every WriteValve call in order.
	Writes []bool

	// SensorError, ButtonError and WriteError, if set, are returned by the
	// matching method.
	SensorError error
	ButtonError error
	WriteError  error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeIO creates a FakeIO with the given sensor samples.
func NewFakeIO(sensor []bool) *FakeIO {
	return &FakeIO{SensorSamples: sensor}
}

// ReadSensor returns the next scripted sensor sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeIO) ReadSensor() (bool, error) {
	if f.SensorError != nil {
		return false, f.SensorError
	}
	if len(f.SensorSamples) == 0 {
		return false, errors.New("no sensor samples configured")
	}

	v := f.SensorSamples[f.sensorIndex]
	if f.sensorIndex < len(f.SensorSamples)-1 {
		f.sensorIndex++
	}
	return v, nil
}

// ReadButtons returns the next scripted button sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeIO) ReadButtons() (Buttons, error) {
	if f.ButtonError != nil {
		return Buttons{}, f.ButtonError
	}
	if len(f.ButtonSamples) == 0 {
		return Buttons{}, nil
	}

	b := f.ButtonSamples[f.buttonIndex]
	if f.buttonIndex < len(f.ButtonSamples)-1 {
		f.buttonIndex++
	}
	return b, nil
}

// WriteValve records the write.
func (f *FakeIO) WriteValve(open bool) error {
	f.Writes = append(f.Writes, open)
	return f.WriteError
}

// Open reports the last value written to the valve.
func (f *FakeIO) Open() bool {
	return len(f.Writes) > 0 && f.Writes[len(f.Writes)-1]
}

// Close marks the fake as closed and the valve as released.
func (f *FakeIO) Close() error {
	if f.Open() {
		f.Writes = append(f.Writes, false)
	}
	f.Closed = true
	return nil
}

// Reset rewinds the scripted samples and clears recorded writes.
func (f *FakeIO) Reset() {
	f.sensorIndex = 0
	f.buttonIndex = 0
	f.Writes = nil
	f.Closed = false
}
