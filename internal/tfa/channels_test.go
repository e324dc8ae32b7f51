package tfa

import (
	"testing"
	"time"

	"github.com/rfsense/tfa433/internal/timeutil"
)

func newTestRegistry() (*Registry, *timeutil.MockClock) {
	clock := timeutil.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewRegistry(clock), clock
}

func reading(id uint8, chn int, temp float64) Reading {
	return Reading{Type: SensorType, DeviceID: id, Channel: chn, TempC: temp, Humidity: 50}
}

func TestRegistryLearnsFirstID(t *testing.T) {
	reg, _ := newTestRegistry()

	if !reg.Apply(reading(9, 2, 23.7)) {
		t.Fatal("unassigned slot rejected first reading")
	}
	got, err := reg.Channel(2)
	if err != nil {
		t.Fatalf("Channel(2): %v", err)
	}
	if got.DeviceID != 9 || !got.Fresh {
		t.Errorf("slot = %+v, want device 9 fresh", got)
	}
}

// Once a slot has learned an id, readings with another id on the same
// channel are ignored until the slot is resynced.
func TestRegistryStickiness(t *testing.T) {
	reg, _ := newTestRegistry()

	reg.Apply(reading(9, 2, 23.7))
	if reg.Apply(reading(4, 2, -5.0)) {
		t.Fatal("slot locked to device 9 accepted device 4")
	}
	got, _ := reg.Channel(2)
	if got.DeviceID != 9 || got.TempC != 23.7 {
		t.Errorf("slot changed by rejected reading: %+v", got)
	}

	// same id keeps updating
	if !reg.Apply(reading(9, 2, 24.1)) {
		t.Fatal("slot rejected its own device id")
	}
	got, _ = reg.Channel(2)
	if got.TempC != 24.1 {
		t.Errorf("TempC = %v, want 24.1", got.TempC)
	}

	// resync unlocks the slot
	reg.Sync(2)
	if !reg.Apply(reading(4, 2, -5.0)) {
		t.Fatal("resynced slot rejected new device id")
	}
	got, _ = reg.Channel(2)
	if got.DeviceID != 4 {
		t.Errorf("DeviceID = %d, want 4 after resync", got.DeviceID)
	}
}

func TestRegistrySyncAll(t *testing.T) {
	reg, _ := newTestRegistry()
	reg.Apply(reading(1, 1, 1))
	reg.Apply(reading(2, 2, 2))
	reg.Apply(reading(3, 3, 3))

	reg.Sync(0)
	for chn := 1; chn <= NumChannels; chn++ {
		if !reg.Apply(reading(uint8(10+chn), chn, 0)) {
			t.Errorf("channel %d still locked after Sync(0)", chn)
		}
	}
}

func TestRegistryLastSeenAlwaysUpdates(t *testing.T) {
	reg, _ := newTestRegistry()
	reg.Apply(reading(9, 2, 23.7))
	reg.Apply(reading(4, 2, -5.0)) // rejected by the slot

	last := reg.Last()
	if last.DeviceID != 4 {
		t.Errorf("Last().DeviceID = %d, want 4", last.DeviceID)
	}
}

func TestRegistryFreshFlags(t *testing.T) {
	reg, _ := newTestRegistry()
	reg.Apply(reading(9, 2, 23.7))

	if !reg.HasNew(0) || !reg.HasNew(2) {
		t.Fatal("fresh flags not raised")
	}
	if reg.HasNew(1) {
		t.Error("channel 1 reports fresh data without a reading")
	}

	reg.Ack(2)
	if reg.HasNew(2) {
		t.Error("channel 2 still fresh after Ack")
	}
	if !reg.HasNew(0) {
		t.Error("last-seen flag cleared by channel Ack")
	}
	reg.Ack(0)
	if reg.HasNew(0) {
		t.Error("last-seen still fresh after Ack(0)")
	}
}

func TestRegistryOutOfRangeChannel(t *testing.T) {
	reg, _ := newTestRegistry()
	if reg.Apply(reading(9, 4, 23.7)) {
		t.Error("reading with channel 4 was accepted into a slot")
	}
	if _, err := reg.Channel(0); err == nil {
		t.Error("Channel(0) did not error")
	}
	if _, err := reg.Channel(4); err == nil {
		t.Error("Channel(4) did not error")
	}
}

func TestRegistryAcceptedCounter(t *testing.T) {
	reg, _ := newTestRegistry()
	reg.Apply(reading(9, 2, 23.7))
	reg.Apply(reading(9, 2, 23.8))
	if got := reg.Accepted(); got != 2 {
		t.Errorf("Accepted = %d, want 2", got)
	}
	reg.ResetAccepted()
	if got := reg.Accepted(); got != 0 {
		t.Errorf("Accepted after reset = %d, want 0", got)
	}
}

func TestRegistryTimestamps(t *testing.T) {
	reg, clock := newTestRegistry()
	reg.Apply(reading(9, 2, 23.7))
	first, _ := reg.Channel(2)

	clock.Advance(30 * time.Second)
	reg.Apply(reading(9, 2, 23.9))
	second, _ := reg.Channel(2)

	if !second.ReceivedAt.Equal(first.ReceivedAt.Add(30 * time.Second)) {
		t.Errorf("ReceivedAt = %v, want 30s after %v", second.ReceivedAt, first.ReceivedAt)
	}
}
