package main

import (
	"log"
	"os"

	"github.com/sweeney/rain-valve/internal/clock"
	"github.com/sweeney/rain-valve/internal/config"
	"github.com/sweeney/rain-valve/internal/gpio"
	"github.com/sweeney/rain-valve/internal/logic"
	"github.com/sweeney/rain-valve/internal/metrics"
	"github.com/sweeney/rain-valve/internal/mqtt"
	"github.com/sweeney/rain-valve/internal/status"
)

// daemon wires the controller to the board and the observers.
type daemon struct {
	cfg        config.Config
	clk        clock.Clock
	io         gpio.IO
	ctrl       *logic.Controller
	debouncer  *logic.Debouncer
	schedule   *logic.Schedule
	heartbeat  *logic.Heartbeat
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	metrics    *metrics.Metrics
}

func newDaemon(cfg config.Config, clk clock.Clock, io gpio.IO, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, m *metrics.Metrics) (*daemon, error) {
	schedule, err := logic.ParseSchedule(cfg.TimedStart)
	if err != nil {
		return nil, err
	}

	return &daemon{
		cfg:        cfg,
		clk:        clk,
		io:         io,
		ctrl:       logic.NewController(cfg.Controller(), clk, io),
		debouncer:  logic.NewDebouncer(cfg.Debounce),
		schedule:   schedule,
		heartbeat:  logic.NewHeartbeat(clk.Now()),
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    status.NewTracker(clk, statusConfig(cfg)),
		metrics:    m,
	}, nil
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		DebounceMs:  cfg.Debounce.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		DailyCap:    cfg.DailyCap,
		TimedCap:    cfg.TimedCap,
		LockOnQuota: cfg.LockOnQuota,
		TimedStart:  cfg.TimedStart,
		Broker:      cfg.Broker,
		HTTPPort:    cfg.HTTP,
	}
}

// poll runs one control step: buttons, then sensor, timer and day quota,
// then the daily schedule.
func (d *daemon) poll() {
	now := d.clk.Now()

	if b, err := d.io.ReadButtons(); err != nil {
		log.Printf("button read error: %v", err)
	} else {
		for _, btn := range d.debouncer.Process(buttonLevels(b), now) {
			d.metrics.Pressed(btn)
			events, err := d.ctrl.Press(btn)
			d.handle(events)
			if err != nil {
				log.Printf("button %s ignored in %s: %v", btn, d.ctrl.Mode(), err)
			}
		}
	}

	detected, err := d.io.ReadSensor()
	if err != nil {
		log.Printf("sensor read error: %v", err)
		d.metrics.SensorError()
		detected = false
	}
	d.handle(d.ctrl.TickSensor(detected))
	d.handle(d.ctrl.TickTimed())
	d.handle(d.ctrl.TickDay())

	if d.schedule.Due(now) {
		events, err := d.ctrl.EnterTimed()
		d.handle(events)
		if err != nil {
			log.Printf("scheduled timed start %s skipped: %v", d.schedule, err)
		} else {
			log.Printf("scheduled timed start %s", d.schedule)
		}
	}

	if hb := d.heartbeat.Check(now, d.cfg.Heartbeat, d.ctrl.View()); hb != nil {
		log.Printf("heartbeat: uptime=%v mode=%s valve=%s opens=%d closes=%d day=%v",
			hb.Uptime, hb.Mode, hb.Valve, hb.Opens, hb.Closes, hb.DayElapsed)
		d.refresh()
		snap := d.tracker.Snapshot()
		d.publishSystem(mqtt.SystemEvent{
			Timestamp:  hb.Timestamp,
			Event:      "HEARTBEAT",
			RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
		})
	}
}

// refresh copies controller state to the tracker and gauges.
func (d *daemon) refresh() {
	v := d.ctrl.View()
	d.tracker.Update(v, d.debouncer.IsBaselined())
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
	d.metrics.Update(v)
}

func (d *daemon) startup() {
	d.refresh()
	snap := d.tracker.Snapshot()
	d.publishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	})
}

// shutdown returns the controller to Idle, which closes the valve, and
// announces the shutdown.
func (d *daemon) shutdown(s os.Signal) {
	log.Printf("received %v, shutting down", s)
	d.handle(d.ctrl.Stop())
	d.refresh()

	name := signalName(s)
	snap := d.tracker.Snapshot()
	d.publishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "SHUTDOWN",
		Reason:     name,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", name),
	})
}

func (d *daemon) handle(events []logic.Event) {
	for _, e := range events {
		logEvent(e)
		if err := d.publisher.Publish(e); err != nil {
			// Don't stop the control loop on publish failure
			log.Printf("publish error: %v", err)
		}
	}
	d.metrics.Observe(events)
}

func (d *daemon) publishSystem(e mqtt.SystemEvent) {
	if err := d.publisher.PublishSystem(e); err != nil {
		log.Printf("failed to publish %s event: %v", e.Event, err)
		return
	}
	log.Printf("published %s event", e.Event)
}

func logEvent(e logic.Event) {
	switch e.Type {
	case logic.EventModeChanged:
		log.Printf("event: %s %s -> %s", e.Type, e.PrevMode, e.Mode)
	case logic.EventValveClosed:
		log.Printf("event: %s mode=%s session=%v day=%v", e.Type, e.Mode, e.Session, e.DayElapsed)
	case logic.EventOutputError:
		log.Printf("event: %s valve=%s err=%v", e.Type, e.Valve, e.Err)
	default:
		log.Printf("event: %s mode=%s valve=%s day=%v", e.Type, e.Mode, e.Valve, e.DayElapsed)
	}
}

func buttonLevels(b gpio.Buttons) logic.ButtonLevels {
	return logic.ButtonLevels{
		logic.ButtonManual: b.Manual,
		logic.ButtonSensor: b.Sensor,
		logic.ButtonTimed:  b.Timed,
		logic.ButtonStop:   b.Stop,
	}
}
