// Package gpio provides the valve output, rain sensor input and front-panel
// buttons with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Sensor reads the water-level/rain sensor.
type Sensor interface {
	// ReadSensor returns true when water is detected.
	ReadSensor() (bool, error)
}

// Valve drives the valve output.
type Valve interface {
	// WriteValve asserts (true) or deasserts (false) the valve output.
	// Writing the same value repeatedly is harmless.
	WriteValve(open bool) error
}

// Buttons is one sample of the front-panel buttons, true = pressed.
type Buttons struct {
	Manual bool
	Sensor bool
	Timed  bool
	Stop   bool
}

// ButtonReader reads the front-panel buttons.
type ButtonReader interface {
	ReadButtons() (Buttons, error)
}

// IO is everything the daemon needs from the board.
type IO interface {
	Sensor
	Valve
	ButtonReader

	// Close drives the valve closed and releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering). The sensor and valve match physical
// header pins 40 and 38.
const (
	DefaultChip      = "gpiochip0"
	DefaultPinSensor = 21
	DefaultPinValve  = 20

	DefaultPinManual       = 5
	DefaultPinSensorButton = 6
	DefaultPinTimed        = 13
	DefaultPinStop         = 19
)

// Pins selects the lines used by RealIO. A button pin of 0 means the button
// is not wired; BCM 0 is reserved for the HAT EEPROM.
type Pins struct {
	Chip            string
	Sensor          int
	SensorActiveLow bool
	Valve           int

	Manual       int
	SensorButton int
	Timed        int
	Stop         int
}

// DefaultPins returns the standard wiring.
func DefaultPins() Pins {
	return Pins{
		Chip:         DefaultChip,
		Sensor:       DefaultPinSensor,
		Valve:        DefaultPinValve,
		Manual:       DefaultPinManual,
		SensorButton: DefaultPinSensorButton,
		Timed:        DefaultPinTimed,
		Stop:         DefaultPinStop,
	}
}

// buttonPins returns the wired button offsets and, for each button in
// Manual/Sensor/Timed/Stop order, its index into those offsets (-1 if not
// wired).
func (p Pins) buttonPins() ([]int, [4]int) {
	var offsets []int
	idx := [4]int{-1, -1, -1, -1}
	for i, pin := range []int{p.Manual, p.SensorButton, p.Timed, p.Stop} {
		if pin == 0 {
			continue
		}
		idx[i] = len(offsets)
		offsets = append(offsets, pin)
	}
	return offsets, idx
}

func buttonsFromValues(values []int, idx [4]int) Buttons {
	level := func(i int) bool {
		return idx[i] >= 0 && values[idx[i]] == 1
	}
	return Buttons{
		Manual: level(0),
		Sensor: level(1),
		Timed:  level(2),
		Stop:   level(3),
	}
}
