package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/rain-valve/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Mode          string     `json:"mode"`
	Valve         string     `json:"valve"`
	Locked        bool       `json:"locked"`
	ResetPending  bool       `json:"reset_pending"`
	Ready         bool       `json:"ready"`
	Today         TodayJSON  `json:"today"`
	Timed         *TimedJSON `json:"timed,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Config        ConfigJSON `json:"config"`
}

// TodayJSON reports the day accounting.
type TodayJSON struct {
	Opens            int          `json:"opens"`
	Closes           int          `json:"closes"`
	ElapsedSeconds   float64      `json:"elapsed_seconds"`
	RemainingSeconds float64      `json:"remaining_seconds"`
	SessionSeconds   float64      `json:"session_seconds"`
	LastSession      *SessionJSON `json:"last_session,omitempty"`
}

// SessionJSON is one valve session.
type SessionJSON struct {
	OpenedAt string  `json:"opened_at"`
	ClosedAt string  `json:"closed_at,omitempty"`
	Seconds  float64 `json:"seconds"`
}

// TimedJSON reports a running timed activation.
type TimedJSON struct {
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	CapSeconds     float64 `json:"cap_seconds"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs          int64   `json:"poll_ms"`
	DebounceMs      int64   `json:"debounce_ms"`
	HeartbeatMs     int64   `json:"heartbeat_ms"`
	DailyCapSeconds float64 `json:"daily_cap_seconds"`
	TimedCapSeconds float64 `json:"timed_cap_seconds"`
	LockOnQuota     bool    `json:"lock_on_quota"`
	TimedStart      string  `json:"timed_start,omitempty"`
	Broker          string  `json:"broker"`
	HTTPPort        string  `json:"http_port"`
}

func buildInner(snap Snapshot) StatusInner {
	v := snap.View
	mode := string(v.Mode)
	if mode == "" {
		mode = "UNKNOWN"
	}
	valve := string(v.Valve)
	if valve == "" {
		valve = "UNKNOWN"
	}

	inner := StatusInner{
		Mode:         mode,
		Valve:        valve,
		Locked:       v.Locked,
		ResetPending: v.ResetPending,
		Ready:        snap.Baselined,
		Today: TodayJSON{
			Opens:            v.Opens,
			Closes:           v.Closes,
			ElapsedSeconds:   v.DayElapsed.Seconds(),
			RemainingSeconds: v.DayRemaining().Seconds(),
			SessionSeconds:   v.SessionElapsed.Seconds(),
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:          snap.Config.PollMs,
			DebounceMs:      snap.Config.DebounceMs,
			HeartbeatMs:     snap.Config.HeartbeatMs,
			DailyCapSeconds: snap.Config.DailyCap.Seconds(),
			TimedCapSeconds: snap.Config.TimedCap.Seconds(),
			LockOnQuota:     snap.Config.LockOnQuota,
			TimedStart:      snap.Config.TimedStart,
			Broker:          snap.Config.Broker,
			HTTPPort:        snap.Config.HTTPPort,
		},
	}

	if last := v.LastSession; last != nil {
		s := &SessionJSON{
			OpenedAt: last.OpenedAt.UTC().Format(time.RFC3339),
			Seconds:  last.Duration(snap.Now).Seconds(),
		}
		if last.Closed() {
			s.ClosedAt = last.ClosedAt.UTC().Format(time.RFC3339)
		}
		inner.Today.LastSession = s
	}
	if v.Mode == logic.ModeTimed {
		inner.Timed = &TimedJSON{
			ElapsedSeconds: v.TimedElapsed.Seconds(),
			CapSeconds:     v.TimedCap.Seconds(),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
