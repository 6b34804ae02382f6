//go:build !linux

package gpio

import "errors"

// RealIO is not available on non-Linux platforms.
type RealIO struct{}

// NewRealIO returns an error on non-Linux platforms.
func NewRealIO(pins Pins) (*RealIO, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// ReadSensor is not implemented on non-Linux platforms.
func (r *RealIO) ReadSensor() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// WriteValve is not implemented on non-Linux platforms.
func (r *RealIO) WriteValve(open bool) error {
	return errors.New("gpio: not supported")
}

// ReadButtons is not implemented on non-Linux platforms.
func (r *RealIO) ReadButtons() (Buttons, error) {
	return Buttons{}, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealIO) Close() error {
	return nil
}
