package tfa

import (
	"fmt"
	"sync"
	"time"

	"github.com/rfsense/tfa433/internal/timeutil"
)

const (
	// NumChannels is the number of channel positions on the sensor's
	// slide switch.
	NumChannels = 3

	// UnassignedID marks a channel slot with no learned device id. A slot
	// in this state accepts the next reading for its channel regardless
	// of id (sync / learning mode).
	UnassignedID = 0xFF
)

// SlotReading is a stored reading plus its bookkeeping state.
type SlotReading struct {
	Reading
	ReceivedAt time.Time `json:"received_at"`

	// Fresh is set when the reading has not been read back yet.
	Fresh bool `json:"fresh"`
}

type slot struct {
	// id the slot is locked to, or UnassignedID.
	id      uint8
	reading SlotReading
}

// Registry keeps the last reading per sensor channel plus a "last seen on
// any channel" record. Channel slots are sticky: once a slot has learned a
// device id, readings carrying a different id for that channel are ignored
// until the slot is resynced. This keeps a neighbour's sensor on the same
// channel from clobbering yours.
type Registry struct {
	mu       sync.Mutex
	clock    timeutil.Clock
	slots    [NumChannels]slot
	last     SlotReading
	accepted uint64
}

// NewRegistry returns a registry with all channel slots in learning mode.
func NewRegistry(clock timeutil.Clock) *Registry {
	r := &Registry{clock: clock}
	for i := range r.slots {
		r.slots[i].id = UnassignedID
	}
	return r
}

// Apply records a decoded reading. The "last seen" record is always
// updated; the matching channel slot only when it is unassigned or already
// locked to the reading's device id. It reports whether the channel slot
// accepted the reading.
//
// Callers must not pass readings that failed the type-tag check.
func (g *Registry) Apply(r Reading) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	stored := SlotReading{Reading: r, ReceivedAt: g.clock.Now(), Fresh: true}
	g.last = stored
	g.accepted++

	if r.Channel < 1 || r.Channel > NumChannels {
		return false
	}
	s := &g.slots[r.Channel-1]
	if s.id != UnassignedID && s.id != r.DeviceID {
		return false
	}
	s.id = r.DeviceID
	s.reading = stored
	return true
}

// Channel returns the stored reading for channel n (1-based).
func (g *Registry) Channel(n int) (SlotReading, error) {
	if n < 1 || n > NumChannels {
		return SlotReading{}, fmt.Errorf("channel %d out of range 1-%d", n, NumChannels)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.slots[n-1].reading, nil
}

// Last returns the most recent reading seen on any channel.
func (g *Registry) Last() SlotReading {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// HasNew reports whether channel n (1-based) holds an unread reading;
// n == 0 asks about the "last seen" record.
func (g *Registry) HasNew(n int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n == 0 {
		return g.last.Fresh
	}
	if n < 1 || n > NumChannels {
		return false
	}
	return g.slots[n-1].reading.Fresh
}

// Ack clears the unread flag of channel n (1-based); n == 0 clears the
// "last seen" flag.
func (g *Registry) Ack(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n == 0 {
		g.last.Fresh = false
		return
	}
	if n >= 1 && n <= NumChannels {
		g.slots[n-1].reading.Fresh = false
	}
}

// Sync returns channel n (1-based) to learning mode; n == 0 resyncs all
// channels. The stored reading is kept until replaced.
func (g *Registry) Sync(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.slots {
		if n == 0 || n == i+1 {
			g.slots[i].id = UnassignedID
		}
	}
}

// Snapshot returns a copy of all channel slot readings, indexed 0..2 for
// channels 1..3.
func (g *Registry) Snapshot() [NumChannels]SlotReading {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out [NumChannels]SlotReading
	for i := range g.slots {
		out[i] = g.slots[i].reading
	}
	return out
}

// Accepted returns the number of type-valid readings applied since start
// or the last ResetAccepted.
func (g *Registry) Accepted() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.accepted
}

// ResetAccepted zeroes the accepted-readings counter.
func (g *Registry) ResetAccepted() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accepted = 0
}
