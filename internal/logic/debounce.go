package logic

import "time"

// channelState tracks debounce state for a single button.
type channelState struct {
	// Current stable (debounced) level, true = pressed
	stable bool
	// Pending level during debounce
	pending    bool
	hasPending bool
	// Time when the pending level was first observed
	pendingSince time.Time
	// Whether we have established a baseline
	baselined bool
}

// ButtonLevels is one sample of the raw button levels, true = pressed.
type ButtonLevels map[Button]bool

// Debouncer turns raw button levels into debounced presses.
type Debouncer struct {
	debounceDuration time.Duration
	channels         map[Button]*channelState
	baselined        bool
	presses          map[Button]int
}

// NewDebouncer creates a debouncer for AllButtons.
func NewDebouncer(debounceDuration time.Duration) *Debouncer {
	d := &Debouncer{
		debounceDuration: debounceDuration,
		channels:         make(map[Button]*channelState, len(AllButtons)),
		presses:          make(map[Button]int, len(AllButtons)),
	}
	for _, b := range AllButtons {
		d.channels[b] = &channelState{}
	}
	return d
}

// Process takes a new sample and returns the buttons that were pressed,
// in AllButtons order. A press is a debounced released-to-pressed edge.
// Nothing is reported until every button has a baseline, so a button held
// at startup does not fire.
func (d *Debouncer) Process(levels ButtonLevels, now time.Time) []Button {
	var pressed []Button
	for _, b := range AllButtons {
		if d.processChannel(d.channels[b], levels[b], now) {
			pressed = append(pressed, b)
		}
	}

	if !d.baselined {
		for _, b := range AllButtons {
			if !d.channels[b].baselined {
				return nil
			}
		}
		d.baselined = true
		return nil
	}

	for _, b := range pressed {
		d.presses[b]++
	}
	return pressed
}

// processChannel handles debounce logic for a single button.
// Returns true on a debounced press edge.
func (d *Debouncer) processChannel(ch *channelState, level bool, now time.Time) bool {
	// First time seeing this channel
	if !ch.baselined {
		if !ch.hasPending || ch.pending != level {
			// Start observing, or restart after a change during baseline
			ch.pending = level
			ch.hasPending = true
			ch.pendingSince = now
			return false
		}

		if now.Sub(ch.pendingSince) >= d.debounceDuration {
			ch.stable = level
			ch.baselined = true
			ch.hasPending = false
		}
		return false
	}

	if level == ch.stable {
		ch.hasPending = false
		return false
	}

	if !ch.hasPending || ch.pending != level {
		ch.pending = level
		ch.hasPending = true
		ch.pendingSince = now
		return false
	}

	if now.Sub(ch.pendingSince) >= d.debounceDuration {
		ch.stable = level
		ch.hasPending = false
		return level
	}
	return false
}

// IsBaselined returns whether every button has a baseline.
func (d *Debouncer) IsBaselined() bool {
	return d.baselined
}

// Presses returns how many presses of b were reported since startup.
func (d *Debouncer) Presses(b Button) int {
	return d.presses[b]
}
