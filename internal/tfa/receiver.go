package tfa

import "sync"

// assembler states. The receiver idles until a start marker, collects 36
// bits, and parks in invalidated after a glitch until the next start.
type rxState int

const (
	stateIdle rxState = iota
	stateCollecting
	stateInvalidated
)

// Receiver turns a fixed-rate stream of input levels into complete
// transmission bursts. FeedSample must be called exactly once per sampling
// tick from a single goroutine; it never blocks and does bounded work per
// call. TryTakeBurst may be called from any other single goroutine.
//
// One Receiver instance serves one physical radio input.
type Receiver struct {
	thresholds Thresholds

	// edge detection and low-gap timing
	lastLevel  bool
	pulseTicks int

	// assembler
	state    rxState
	bitsLeft int

	// burst under assembly. count saturates at BurstCapacity+1 so an
	// over-long burst fails the [MinRepetitions, BurstCapacity] gate.
	burst [BurstCapacity]Candidate
	count int

	// single-slot handoff mailbox. Buffer, count and fresh flag are only
	// touched together under mu, on both sides.
	mu      sync.Mutex
	pending [BurstCapacity]Candidate
	nPend   int
	fresh   bool

	// optional diagnostics tap; nil when unused. Sends never block.
	pulses chan<- int
}

// NewReceiver returns a receiver for the given timing.
func NewReceiver(t Timing) *Receiver {
	return &Receiver{thresholds: t.Thresholds()}
}

// SetPulseTap attaches a channel receiving the measured low-gap duration
// (in ticks) of every classified pulse. Deliveries are dropped when the
// channel is full so the sampling path never blocks. Must be called before
// the first FeedSample.
func (r *Receiver) SetPulseTap(ch chan<- int) {
	r.pulses = ch
}

// FeedSample advances the receiver by one sampling tick.
func (r *Receiver) FeedSample(levelHigh bool) {
	edge := levelHigh != r.lastLevel
	r.lastLevel = levelHigh

	if edge && !levelHigh {
		// falling edge: a low gap starts
		r.pulseTicks = 0
	} else if edge && levelHigh {
		// rising edge: the low gap is complete, decode it
		if r.pulses != nil {
			select {
			case r.pulses <- r.pulseTicks:
			default:
			}
		}
		r.step(r.thresholds.Classify(r.pulseTicks))
	}

	// saturate just past the gap threshold; longer is still a gap
	if r.pulseTicks <= r.thresholds.gap {
		r.pulseTicks++
	}
}

func (r *Receiver) step(sym Symbol) {
	switch sym {
	case SymbolGlitch:
		// discard the in-progress candidate only; committed candidates
		// stay and the next start marker resynchronizes
		r.state = stateInvalidated

	case SymbolStart:
		r.state = stateCollecting
		r.bitsLeft = PacketBits
		if r.count < BurstCapacity {
			r.burst[r.count] = Candidate{}
		}

	case SymbolBit0, SymbolBit1:
		if r.state == stateCollecting && r.bitsLeft > 0 {
			if r.count < BurstCapacity {
				r.burst[r.count].setBit(PacketBits-r.bitsLeft, sym == SymbolBit1)
			}
			r.bitsLeft--
		} else if r.state != stateIdle {
			// count extra bits so an over-long packet cannot commit
			r.bitsLeft--
		}

	case SymbolStop:
		if r.state == stateCollecting && r.bitsLeft == 0 {
			if r.count <= BurstCapacity {
				r.count++
			}
		}
		r.state = stateIdle

	case SymbolGap:
		if r.count >= MinRepetitions && r.count <= BurstCapacity {
			r.mu.Lock()
			r.pending = r.burst
			r.nPend = r.count
			r.fresh = true
			r.mu.Unlock()
		}
		r.count = 0
		r.state = stateIdle
	}
}

// TryTakeBurst returns the most recently completed burst, or nil if none
// has arrived since the last call. Copy-out and flag clearing happen under
// the same lock, so the sampling goroutine never overwrites a burst that
// is mid-copy. An unconsumed burst is silently replaced by the next one
// (last-burst-wins, no queue).
func (r *Receiver) TryTakeBurst() []Candidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.fresh {
		return nil
	}
	out := make([]Candidate, r.nPend)
	copy(out, r.pending[:r.nPend])
	r.fresh = false
	return out
}

// Reset returns the receiver to its initial state, dropping any burst in
// progress and any unconsumed handoff.
func (r *Receiver) Reset() {
	r.mu.Lock()
	r.fresh = false
	r.nPend = 0
	r.mu.Unlock()
	r.state = stateIdle
	r.count = 0
	r.bitsLeft = 0
	r.pulseTicks = 0
}
