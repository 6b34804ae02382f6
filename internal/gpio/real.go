//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealIO drives actual hardware using Linux GPIO character device.
type RealIO struct {
	chip      *gpiocdev.Chip
	sensor    *gpiocdev.Line
	valve     *gpiocdev.Line
	buttons   *gpiocdev.Lines
	buttonIdx [4]int
	values    []int
}

// NewRealIO requests the sensor, valve and button lines on actual Raspberry
// Pi hardware. The valve line starts low (closed).
func NewRealIO(pins Pins) (*RealIO, error) {
	chip, err := gpiocdev.NewChip(pins.Chip, gpiocdev.WithConsumer("rain-valve"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", pins.Chip, err)
	}
	r := &RealIO{chip: chip}

	// Pull-down so a disconnected sensor reads as "no water".
	sensorOpts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullDown}
	if pins.SensorActiveLow {
		sensorOpts = append(sensorOpts, gpiocdev.AsActiveLow)
	}
	r.sensor, err = chip.RequestLine(pins.Sensor, sensorOpts...)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request sensor pin %d: %w", pins.Sensor, err)
	}

	r.valve, err = chip.RequestLine(pins.Valve, gpiocdev.AsOutput(0))
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request valve pin %d: %w", pins.Valve, err)
	}

	// Buttons short to ground when pressed.
	offsets, idx := pins.buttonPins()
	r.buttonIdx = idx
	if len(offsets) > 0 {
		r.buttons, err = chip.RequestLines(offsets, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request button pins %v: %w", offsets, err)
		}
		r.values = make([]int, len(offsets))
	}

	return r, nil
}

// ReadSensor returns true when the sensor line is active.
func (r *RealIO) ReadSensor() (bool, error) {
	v, err := r.sensor.Value()
	if err != nil {
		return false, fmt.Errorf("read sensor pin: %w", err)
	}
	return v == 1, nil
}

// WriteValve drives the valve line.
func (r *RealIO) WriteValve(open bool) error {
	v := 0
	if open {
		v = 1
	}
	if err := r.valve.SetValue(v); err != nil {
		return fmt.Errorf("write valve pin: %w", err)
	}
	return nil
}

// ReadButtons returns the current button levels.
func (r *RealIO) ReadButtons() (Buttons, error) {
	if r.buttons == nil {
		return Buttons{}, nil
	}
	if err := r.buttons.Values(r.values); err != nil {
		return Buttons{}, fmt.Errorf("read button pins: %w", err)
	}
	return buttonsFromValues(r.values, r.buttonIdx), nil
}

// Close drives the valve low and releases GPIO resources.
// The valve and sensor lines are reconfigured to input with pull-down
// (matching Pi boot defaults) before closing so the relay stays released
// through shutdown/reboot.
func (r *RealIO) Close() error {
	var errs []error

	if r.valve != nil {
		if err := r.valve.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("release valve: %w", err))
		}
		if err := r.valve.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure valve pin: %w", err))
		}
		if err := r.valve.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close valve pin: %w", err))
		}
	}
	if r.sensor != nil {
		if err := r.sensor.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sensor pin: %w", err))
		}
	}
	if r.buttons != nil {
		if err := r.buttons.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pins: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
