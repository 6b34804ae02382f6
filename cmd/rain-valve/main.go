// Command rain-valve drives a garden water valve from front-panel buttons, a
// rain sensor and a daily schedule, within a daily open-time quota.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/rain-valve/internal/clock"
	"github.com/sweeney/rain-valve/internal/config"
	"github.com/sweeney/rain-valve/internal/gpio"
	"github.com/sweeney/rain-valve/internal/logic"
	"github.com/sweeney/rain-valve/internal/metrics"
	"github.com/sweeney/rain-valve/internal/mqtt"
	"github.com/sweeney/rain-valve/internal/web"
)

func main() {
	cfg, opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(cfg, opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

type options struct {
	configPath string
	printState bool
}

// parseFlags builds the configuration: defaults, then the -config file,
// then any flags given explicitly on the command line.
func parseFlags(args []string) (config.Config, options, error) {
	def := config.Default()
	var opts options

	fs := flag.NewFlagSet("rain-valve", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	poll := fs.Duration("poll", def.Poll, "GPIO polling interval")
	statusInterval := fs.Duration("status-interval", def.StatusInterval, "Status page and metrics refresh interval")
	debounce := fs.Duration("debounce", def.Debounce, "Button debounce duration")
	heartbeat := fs.Duration("heartbeat", def.Heartbeat, "Heartbeat interval (0 to disable)")
	dailyCap := fs.Duration("daily-cap", def.DailyCap, "Maximum valve open time per day")
	timedCap := fs.Duration("timed-cap", def.TimedCap, "Duration of a timed activation")
	timedStart := fs.String("timed-start", def.TimedStart, `Daily timed start as "HH:MM" (empty to disable)`)
	broker := fs.String("broker", def.Broker, "MQTT broker address (empty to disable)")
	httpAddr := fs.String("http", def.HTTP, "HTTP status address (empty to disable)")
	pinSensor := fs.Int("pin-sensor", def.GPIO.SensorPin, "BCM pin number for the rain sensor")
	pinValve := fs.Int("pin-valve", def.GPIO.ValvePin, "BCM pin number for the valve relay")
	fs.BoolVar(&opts.printState, "print-state", false, "Print current sensor state and exit")

	if err := fs.Parse(args); err != nil {
		return def, opts, err
	}

	cfg := def
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, opts, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "poll":
			cfg.Poll = *poll
		case "status-interval":
			cfg.StatusInterval = *statusInterval
		case "debounce":
			cfg.Debounce = *debounce
		case "heartbeat":
			cfg.Heartbeat = *heartbeat
		case "daily-cap":
			cfg.DailyCap = *dailyCap
		case "timed-cap":
			cfg.TimedCap = *timedCap
		case "timed-start":
			cfg.TimedStart = *timedStart
		case "broker":
			cfg.Broker = *broker
		case "http":
			cfg.HTTP = *httpAddr
		case "pin-sensor":
			cfg.GPIO.SensorPin = *pinSensor
		case "pin-valve":
			cfg.GPIO.ValvePin = *pinValve
		}
	})

	if err := cfg.Validate(); err != nil {
		return cfg, opts, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, opts, nil
}

func run(cfg config.Config, opts options) error {
	// Initialize GPIO; the valve line starts closed
	io, err := gpio.NewRealIO(cfg.Pins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer io.Close()

	// Print state mode
	if opts.printState {
		detected, err := io.ReadSensor()
		if err != nil {
			return fmt.Errorf("read sensor: %w", err)
		}
		buttons, err := io.ReadButtons()
		if err != nil {
			return fmt.Errorf("read buttons: %w", err)
		}
		fmt.Printf("sensor: %s, valve: %s, buttons: %+v\n", sensorString(detected), logic.ValveClosed, buttons)
		return nil
	}

	clk := clock.Real{}

	// Initialize MQTT
	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.NopPublisher{}
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.Broker, "rain-valve")
		if err != nil {
			log.Printf("mqtt disabled: %v", err)
		} else {
			publisher, mqttStatus = p, p
		}
	}
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d, err := newDaemon(cfg, clk, io, publisher, mqttStatus, metrics.New(reg))
	if err != nil {
		return err
	}

	// Publish startup event with full status snapshot
	d.startup()

	// Start HTTP status server
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, d.tracker, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	log.Printf("started: poll=%v debounce=%v daily_cap=%v timed_cap=%v timed_start=%q broker=%q heartbeat=%v",
		cfg.Poll, cfg.Debounce, cfg.DailyCap, cfg.TimedCap, cfg.TimedStart, cfg.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()
	statusTicker := time.NewTicker(cfg.StatusInterval)
	defer statusTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, ticker.C, statusTicker.C, sigCh)
}

// runLoop owns the controller. Every controller call happens on this
// goroutine.
func runLoop(d *daemon, tick, statusTick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			d.shutdown(s)
			return nil
		case <-tick:
			d.poll()
		case <-statusTick:
			d.refresh()
		}
	}
}

func sensorString(detected bool) string {
	if detected {
		return "WET"
	}
	return "DRY"
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
