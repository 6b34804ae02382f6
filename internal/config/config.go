// Package config holds the daemon settings: defaults, an optional YAML file,
// and validation. Command-line flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/rain-valve/internal/gpio"
	"github.com/sweeney/rain-valve/internal/logic"
)

// Config is the full daemon configuration.
type Config struct {
	Poll           time.Duration `yaml:"poll"`
	StatusInterval time.Duration `yaml:"status_interval"`
	Debounce       time.Duration `yaml:"debounce"`
	Heartbeat      time.Duration `yaml:"heartbeat"`

	DailyCap    time.Duration `yaml:"daily_cap"`
	TimedCap    time.Duration `yaml:"timed_cap"`
	LockOnQuota bool          `yaml:"lock_on_quota"`
	TimedStart  string        `yaml:"timed_start"`

	Broker string `yaml:"broker"`
	HTTP   string `yaml:"http"`

	GPIO GPIO `yaml:"gpio"`
}

// GPIO selects the chip and lines. Pins use BCM numbering.
type GPIO struct {
	Chip            string  `yaml:"chip"`
	SensorPin       int     `yaml:"sensor_pin"`
	SensorActiveLow bool    `yaml:"sensor_active_low"`
	ValvePin        int     `yaml:"valve_pin"`
	Buttons         Buttons `yaml:"buttons"`
}

// Buttons holds the button pins; 0 leaves a button unwired.
type Buttons struct {
	Manual int `yaml:"manual"`
	Sensor int `yaml:"sensor"`
	Timed  int `yaml:"timed"`
	Stop   int `yaml:"stop"`
}

// Default returns the built-in configuration.
func Default() Config {
	pins := gpio.DefaultPins()
	return Config{
		Poll:           10 * time.Millisecond,
		StatusInterval: 500 * time.Millisecond,
		Debounce:       50 * time.Millisecond,
		Heartbeat:      15 * time.Minute,
		DailyCap:       logic.DefaultDailyCap,
		TimedCap:       logic.DefaultTimedCap,
		LockOnQuota:    true,
		HTTP:           ":80",
		GPIO: GPIO{
			Chip:      pins.Chip,
			SensorPin: pins.Sensor,
			ValvePin:  pins.Valve,
			Buttons: Buttons{
				Manual: pins.Manual,
				Sensor: pins.SensorButton,
				Timed:  pins.Timed,
				Stop:   pins.Stop,
			},
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping fields the document does not set.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// An empty document leaves the defaults.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// Validate checks ranges and cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if c.Poll <= 0 {
		errs = append(errs, fmt.Errorf("poll must be positive, got %v", c.Poll))
	}
	if c.StatusInterval <= 0 {
		errs = append(errs, fmt.Errorf("status_interval must be positive, got %v", c.StatusInterval))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must not be negative, got %v", c.Debounce))
	}
	if c.DailyCap <= 0 {
		errs = append(errs, fmt.Errorf("daily_cap must be positive, got %v", c.DailyCap))
	}
	if c.TimedCap <= 0 {
		errs = append(errs, fmt.Errorf("timed_cap must be positive, got %v", c.TimedCap))
	}
	if _, err := logic.ParseSchedule(c.TimedStart); err != nil {
		errs = append(errs, fmt.Errorf("timed_start: %w", err))
	}
	if c.GPIO.SensorPin == c.GPIO.ValvePin {
		errs = append(errs, fmt.Errorf("sensor_pin and valve_pin are both %d", c.GPIO.SensorPin))
	}

	used := map[int]string{c.GPIO.SensorPin: "sensor_pin", c.GPIO.ValvePin: "valve_pin"}
	for _, b := range []struct {
		name string
		pin  int
	}{
		{"buttons.manual", c.GPIO.Buttons.Manual},
		{"buttons.sensor", c.GPIO.Buttons.Sensor},
		{"buttons.timed", c.GPIO.Buttons.Timed},
		{"buttons.stop", c.GPIO.Buttons.Stop},
	} {
		if b.pin == 0 {
			continue
		}
		if b.pin < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid pin %d", b.name, b.pin))
			continue
		}
		if other, ok := used[b.pin]; ok {
			errs = append(errs, fmt.Errorf("%s: pin %d already used by %s", b.name, b.pin, other))
			continue
		}
		used[b.pin] = b.name
	}
	return errors.Join(errs...)
}

// Controller returns the controller settings.
func (c Config) Controller() logic.Config {
	return logic.Config{
		TimedCap:    c.TimedCap,
		DailyCap:    c.DailyCap,
		LockOnQuota: c.LockOnQuota,
	}
}

// Pins returns the GPIO wiring.
func (c Config) Pins() gpio.Pins {
	return gpio.Pins{
		Chip:            c.GPIO.Chip,
		Sensor:          c.GPIO.SensorPin,
		SensorActiveLow: c.GPIO.SensorActiveLow,
		Valve:           c.GPIO.ValvePin,
		Manual:          c.GPIO.Buttons.Manual,
		SensorButton:    c.GPIO.Buttons.Sensor,
		Timed:           c.GPIO.Buttons.Timed,
		Stop:            c.GPIO.Buttons.Stop,
	}
}
