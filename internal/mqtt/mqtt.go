// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/rain-valve/internal/logic"
)

// Topic is the MQTT topic for valve events.
const Topic = "home/garden/valve/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/garden/valve/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a valve event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// NopPublisher discards everything. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(logic.Event) error { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }
func (NopPublisher) Close() error { return nil }
func (NopPublisher) IsConnected() bool { return false }

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Valve ValvePayload `json:"valve"`
}

// ValvePayload contains the valve event details.
type ValvePayload struct {
	Timestamp      string  `json:"timestamp"`
	Event          string  `json:"event"`
	Mode           string  `json:"mode"`
	PrevMode       string  `json:"prev_mode,omitempty"`
	State          string  `json:"state"`
	SessionSeconds float64 `json:"session_seconds,omitempty"`
	DaySeconds     float64 `json:"day_seconds"`
	Error          string  `json:"error,omitempty"`
}

// FormatPayload creates the JSON payload for a valve event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Valve: ValvePayload{
			Timestamp:      event.Timestamp.UTC().Format(time.RFC3339),
			Event:          string(event.Type),
			Mode:           string(event.Mode),
			PrevMode:       string(event.PrevMode),
			State:          string(event.Valve),
			SessionSeconds: event.Session.Seconds(),
			DaySeconds:     event.DayElapsed.Seconds(),
		},
	}
	if event.Err != nil {
		payload.Valve.Error = event.Err.Error()
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillPayload is the retained last-will message the broker publishes on
// TopicSystem when the daemon disappears without a clean disconnect. It has
// no timestamp since it is registered at connect time.
func WillPayload() []byte {
	data, _ := json.Marshal(SystemPayload{
		System: SystemPayloadInner{Event: "OFFLINE", Reason: "CONNECTION_LOST"},
	})
	return data
}
