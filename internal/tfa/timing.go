// Package tfa decodes the 433 MHz PPM telemetry of TFA Dostmann
// 30.3215.02 temperature/humidity sensors.
//
// The sensor transmits every reading as a burst of up to 7 repetitions of
// the same 36-bit packet. Symbol values are carried by the length of the
// low interval between pulses: a short gap (~1.8 ms) is a 0 bit, a long
// gap (~3.6 ms) is a 1 bit, a very short gap marks the end of a packet, a
// long gap (~8 ms) marks the start of one, and an idle period over 10 ms
// marks the end of the whole burst. There is no checksum; the repetitions
// themselves are the integrity mechanism (see ResolveBurst).
package tfa

import "time"

// Timing holds the sampling tick period and the nominal protocol pulse
// widths. Thresholds are derived from it once; any tick rate works as long
// as it is fast enough to resolve the glitch limit.
type Timing struct {
	// Tick is the fixed sampling period of the level source.
	Tick time.Duration

	// Nominal low-gap widths of the protocol.
	Glitch time.Duration // reject gaps shorter than this
	Stop   time.Duration // packet end below this
	Short  time.Duration // 0 bit
	Long   time.Duration // 1 bit
	Start  time.Duration // packet start above this
	Gap    time.Duration // burst end above this
}

// DefaultTiming returns the reference timing: 50 us sampling tick and the
// pulse widths of the 30.3215.02 transmitter.
func DefaultTiming() Timing {
	return Timing{
		Tick:   50 * time.Microsecond,
		Glitch: 200 * time.Microsecond,
		Stop:   1350 * time.Microsecond, // 0.75 * short
		Short:  1800 * time.Microsecond,
		Long:   3600 * time.Microsecond,
		Start:  5 * time.Millisecond,
		Gap:    10 * time.Millisecond,
	}
}

// Thresholds are the tick-count decision boundaries derived from a Timing.
type Thresholds struct {
	glitch int
	stop   int
	mid    int // 0/1 decision point, (short+long)/2
	start  int
	gap    int
}

// Thresholds converts the timing constants into tick counts.
func (t Timing) Thresholds() Thresholds {
	ticks := func(d time.Duration) int {
		return int(d / t.Tick)
	}
	return Thresholds{
		glitch: ticks(t.Glitch),
		stop:   ticks(t.Stop),
		mid:    ticks((t.Short + t.Long) / 2),
		start:  ticks(t.Start),
		gap:    ticks(t.Gap),
	}
}

// Symbol is the classification of one low-gap duration.
type Symbol int

const (
	SymbolGlitch Symbol = iota
	SymbolBit0
	SymbolBit1
	SymbolStop
	SymbolStart
	SymbolGap
)

func (s Symbol) String() string {
	switch s {
	case SymbolGlitch:
		return "glitch"
	case SymbolBit0:
		return "bit0"
	case SymbolBit1:
		return "bit1"
	case SymbolStop:
		return "stop"
	case SymbolStart:
		return "start"
	case SymbolGap:
		return "gap"
	}
	return "unknown"
}

// Classify maps a low-gap duration in ticks to a protocol symbol.
//
// The comparison directions and their evaluation order are load-bearing:
// glitch and stop are strict less-than, gap and start strict greater-than,
// and the 0/1 decision uses >= mid. Transmitter tolerances were tuned
// against exactly these boundaries, so an exact-threshold duration folds
// into the same class here as in the reference receiver.
func (t Thresholds) Classify(ticks int) Symbol {
	switch {
	case ticks < t.glitch:
		return SymbolGlitch
	case ticks < t.stop:
		return SymbolStop
	case ticks > t.gap:
		return SymbolGap
	case ticks > t.start:
		return SymbolStart
	case ticks >= t.mid:
		return SymbolBit1
	default:
		return SymbolBit0
	}
}
