package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/rain-valve/internal/clock"
	"github.com/sweeney/rain-valve/internal/logic"
)

var start = time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)

func TestNewTracker(t *testing.T) {
	clk := clock.NewFake(start)
	cfg := Config{PollMs: 10, DebounceMs: 50, Broker: "tcp://localhost:1883", HTTPPort: ":80"}
	tr := NewTracker(clk, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PollMs != 10 {
		t.Errorf("Config.PollMs: got %d, want 10", snap.Config.PollMs)
	}
	if snap.View.Mode != logic.ModeIdle || snap.View.Valve != logic.ValveClosed {
		t.Errorf("initial view: got %s/%s, want IDLE/CLOSED", snap.View.Mode, snap.View.Valve)
	}
	if snap.Baselined {
		t.Error("expected Baselined=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if snap.Healthy(10 * time.Second) {
		t.Error("should not be healthy before the first tick")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	clk := clock.NewFake(start)
	tr := NewTracker(clk, Config{})

	clk.Advance(time.Minute)
	tr.Update(logic.View{Mode: logic.ModeManual, Valve: logic.ValveOpen, Opens: 2, Closes: 1}, true)

	snap := tr.Snapshot()
	if snap.View.Mode != logic.ModeManual {
		t.Errorf("Mode: got %q, want MANUAL", snap.View.Mode)
	}
	if snap.View.Opens != 2 {
		t.Errorf("Opens: got %d, want 2", snap.View.Opens)
	}
	if !snap.Baselined {
		t.Error("expected Baselined=true")
	}
	if !snap.LastTick.Equal(start.Add(time.Minute)) {
		t.Errorf("LastTick: got %v", snap.LastTick)
	}
	if snap.Uptime() != time.Minute {
		t.Errorf("Uptime: got %v, want 1m", snap.Uptime())
	}
}

func TestHealthy(t *testing.T) {
	clk := clock.NewFake(start)
	tr := NewTracker(clk, Config{})
	tr.Update(logic.View{}, true)

	clk.Advance(10 * time.Second)
	if !tr.Snapshot().Healthy(10 * time.Second) {
		t.Error("expected healthy at the limit")
	}
	clk.Advance(time.Millisecond)
	if tr.Snapshot().Healthy(10 * time.Second) {
		t.Error("expected unhealthy past the limit")
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(clock.NewFake(start), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(clock.NewFake(start), Config{})
	last := logic.Session{OpenedAt: start}
	tr.Update(logic.View{Mode: logic.ModeSensor, LastSession: &last}, true)

	snap1 := tr.Snapshot()
	snap1.View.LastSession.ClosedAt = start.Add(time.Second)

	tr.Update(logic.View{Mode: logic.ModeIdle}, true)

	if snap1.View.Mode != logic.ModeSensor {
		t.Error("snapshot should be a copy; Mode was modified")
	}
	if last.Closed() {
		t.Error("snapshot LastSession should not alias the tracker's")
	}
}

func testSnapshot() Snapshot {
	opened := start.Add(14*time.Minute + 30*time.Second)
	return Snapshot{
		View: logic.View{
			Mode:           logic.ModeTimed,
			Valve:          logic.ValveOpen,
			SessionElapsed: 30 * time.Second,
			DayElapsed:     100 * time.Second,
			TimedElapsed:   30 * time.Second,
			TimedCap:       300 * time.Second,
			DailyCap:       300 * time.Second,
			Opens:          2,
			Closes:         1,
			LastSession:    &logic.Session{OpenedAt: opened},
		},
		Baselined:     true,
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config: Config{
			PollMs:      10,
			DebounceMs:  50,
			HeartbeatMs: 900000,
			DailyCap:    300 * time.Second,
			TimedCap:    300 * time.Second,
			LockOnQuota: true,
			Broker:      "tcp://localhost:1883",
			HTTPPort:    ":80",
		},
	}
}

func TestFormatJSON(t *testing.T) {
	data := FormatJSON(testSnapshot())

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := parsed.Status

	if s.Mode != "TIMED" || s.Valve != "OPEN" {
		t.Errorf("mode/valve: got %s/%s, want TIMED/OPEN", s.Mode, s.Valve)
	}
	if !s.Ready {
		t.Error("expected Ready=true")
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if s.Today.Opens != 2 || s.Today.Closes != 1 {
		t.Errorf("opens/closes: got %d/%d, want 2/1", s.Today.Opens, s.Today.Closes)
	}
	if s.Today.ElapsedSeconds != 100 || s.Today.RemainingSeconds != 200 {
		t.Errorf("elapsed/remaining: got %v/%v, want 100/200", s.Today.ElapsedSeconds, s.Today.RemainingSeconds)
	}
	if s.Today.LastSession == nil {
		t.Fatal("expected last session")
	}
	if s.Today.LastSession.Seconds != 30 {
		t.Errorf("open session seconds: got %v, want 30", s.Today.LastSession.Seconds)
	}
	if s.Today.LastSession.ClosedAt != "" {
		t.Errorf("open session should omit closed_at, got %q", s.Today.LastSession.ClosedAt)
	}
	if s.Timed == nil || s.Timed.CapSeconds != 300 || s.Timed.ElapsedSeconds != 30 {
		t.Errorf("timed: got %+v", s.Timed)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.Config.DailyCapSeconds != 300 || !s.Config.LockOnQuota {
		t.Errorf("config: got %+v", s.Config)
	}
	if s.Event != "" || s.Reason != "" {
		t.Errorf("web format should omit event/reason, got %q/%q", s.Event, s.Reason)
	}
}

func TestFormatJSONIdleOmitsTimed(t *testing.T) {
	snap := testSnapshot()
	snap.View.Mode = logic.ModeIdle
	snap.View.Valve = logic.ValveClosed
	snap.View.LastSession = nil

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(FormatJSON(snap), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := raw["status"]["timed"]; ok {
		t.Error("timed should be omitted outside TIMED")
	}
	today := raw["status"]["today"].(map[string]interface{})
	if _, ok := today["last_session"]; ok {
		t.Error("last_session should be omitted with no sessions")
	}
}

func TestFormatJSONUnknownState(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(time.Second)}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Mode != "UNKNOWN" || parsed.Status.Valve != "UNKNOWN" {
		t.Errorf("got %s/%s, want UNKNOWN/UNKNOWN", parsed.Status.Mode, parsed.Status.Valve)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
	if parsed.Status.Mode != "TIMED" {
		t.Errorf("Mode: got %q, want TIMED", parsed.Status.Mode)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "HEARTBEAT", "")

	var raw map[string]map[string]interface{}
	json.Unmarshal(data, &raw)
	if _, exists := raw["status"]["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if raw["status"]["event"] != "HEARTBEAT" {
		t.Errorf("event: got %v, want HEARTBEAT", raw["status"]["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(clock.Real{}, Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(logic.View{Mode: logic.ModeSensor, Opens: i}, true)
			tr.SetMQTTConnected(i%2 == 0)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()
}
