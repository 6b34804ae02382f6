package logic

// Button is a front-panel control.
type Button string

const (
	ButtonManual Button = "MANUAL"
	ButtonSensor Button = "SENSOR"
	ButtonTimed  Button = "TIMED"
	ButtonStop   Button = "STOP"
)

// AllButtons lists the buttons in the order presses are reported.
var AllButtons = []Button{ButtonManual, ButtonSensor, ButtonTimed, ButtonStop}

type action func(c *Controller) error

func noop(*Controller) error { return nil }

// transitions maps the active mode and a pressed button to a command.
// The Manual and Sensor switches toggle their mode; Timed can only be
// cut short with Stop. Missing entries are invalid transitions.
var transitions = map[Mode]map[Button]action{
	ModeIdle: {
		ButtonManual: (*Controller).enterManual,
		ButtonSensor: (*Controller).enterSensor,
		ButtonTimed:  (*Controller).enterTimed,
		ButtonStop:   noop,
	},
	ModeManual: {
		ButtonManual: (*Controller).exitManual,
		ButtonStop:   (*Controller).exitManual,
	},
	ModeSensor: {
		ButtonSensor: (*Controller).exitSensor,
		ButtonStop:   (*Controller).exitSensor,
	},
	ModeTimed: {
		ButtonStop: (*Controller).exitTimed,
	},
}

// Press applies a button press to the controller.
func (c *Controller) Press(b Button) ([]Event, error) {
	act, ok := transitions[c.mode][b]
	if !ok {
		return nil, &TransitionError{From: c.mode, Action: "press " + string(b)}
	}
	err := act(c)
	return c.flush(), err
}

// Enabled reports whether pressing b would be accepted right now. Hosts use
// it to grey out controls.
func (c *Controller) Enabled(b Button) bool {
	if _, ok := transitions[c.mode][b]; !ok {
		return false
	}
	if c.mode == ModeIdle && b != ButtonStop && c.quotaBlocked() {
		return false
	}
	return true
}
