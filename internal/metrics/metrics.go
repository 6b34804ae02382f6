// Package metrics exposes the valve controller as Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/rain-valve/internal/logic"
)

const namespace = "valve"

var modes = []logic.Mode{logic.ModeIdle, logic.ModeManual, logic.ModeSensor, logic.ModeTimed}

// Metrics holds the collectors. Counters are fed from controller events,
// gauges from periodic views.
type Metrics struct {
	open             prometheus.Gauge
	locked           prometheus.Gauge
	mode             *prometheus.GaugeVec
	dayOpenSeconds   prometheus.Gauge
	dayRemaining     prometheus.Gauge
	opensTotal       prometheus.Counter
	openSecondsTotal prometheus.Counter
	eventsTotal      *prometheus.CounterVec
	sensorErrors     prometheus.Counter
	buttonPresses    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		open: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_binary",
			Help:      "Valve output is asserted",
		}),
		locked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quota_locked_binary",
			Help:      "Mode entry is disabled until the daily quota resets",
		}),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mode",
			Help:      "Active controller mode (1 for the active mode)",
		}, []string{"mode"}),
		dayOpenSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "day_open_seconds",
			Help:      "Cumulative open time today",
		}),
		dayRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "day_remaining_seconds",
			Help:      "Open time left before the daily quota is exceeded",
		}),
		opensTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "opens_total",
			Help:      "Increase when the valve opens",
		}),
		openSecondsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "open_seconds_total",
			Help:      "Open time of completed sessions",
		}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Controller events by type",
		}, []string{"type"}),
		sensorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_read_errors_total",
			Help:      "Increase when the sensor line could not be read",
		}),
		buttonPresses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "button_presses_total",
			Help:      "Debounced front-panel button presses",
		}, []string{"button"}),
	}

	reg.MustRegister(
		m.open,
		m.locked,
		m.mode,
		m.dayOpenSeconds,
		m.dayRemaining,
		m.opensTotal,
		m.openSecondsTotal,
		m.eventsTotal,
		m.sensorErrors,
		m.buttonPresses,
	)
	return m
}

// Observe accounts controller events.
func (m *Metrics) Observe(events []logic.Event) {
	for _, e := range events {
		m.eventsTotal.WithLabelValues(string(e.Type)).Inc()
		switch e.Type {
		case logic.EventValveOpened:
			m.opensTotal.Inc()
			m.open.Set(1)
		case logic.EventValveClosed:
			m.openSecondsTotal.Add(e.Session.Seconds())
			m.open.Set(0)
		}
	}
}

// Update sets the gauges from a controller view.
func (m *Metrics) Update(v logic.View) {
	m.open.Set(boolFloat(v.Valve == logic.ValveOpen))
	m.locked.Set(boolFloat(v.Locked))
	for _, mode := range modes {
		m.mode.WithLabelValues(string(mode)).Set(boolFloat(v.Mode == mode))
	}
	m.dayOpenSeconds.Set(v.DayElapsed.Seconds())
	m.dayRemaining.Set(v.DayRemaining().Seconds())
}

// SensorError counts a failed sensor read.
func (m *Metrics) SensorError() {
	m.sensorErrors.Inc()
}

// Pressed counts a debounced button press.
func (m *Metrics) Pressed(b logic.Button) {
	m.buttonPresses.WithLabelValues(string(b)).Inc()
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
