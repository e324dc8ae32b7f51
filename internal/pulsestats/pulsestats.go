// Package pulsestats aggregates the receiver's measured low-gap durations
// per symbol class. Mean and spread per class show how far a transmitter
// drifts from nominal timing and whether the glitch squelch is earning its
// keep, without touching the decode path.
package pulsestats

import (
	"context"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/rfsense/tfa433/internal/tfa"
)

// ringSize bounds the per-class sample window.
const ringSize = 256

// ClassStats summarises the recent durations of one symbol class.
type ClassStats struct {
	Symbol      string  `json:"symbol"`
	Count       uint64  `json:"count"`
	MeanTicks   float64 `json:"mean_ticks"`
	StdDevTicks float64 `json:"stddev_ticks"`
	MeanMillis  float64 `json:"mean_ms"`
}

type classRing struct {
	samples [ringSize]float64
	n       int // filled entries, saturates at ringSize
	idx     int
	total   uint64
}

func (r *classRing) add(ticks int) {
	r.samples[r.idx] = float64(ticks)
	r.idx = (r.idx + 1) % ringSize
	if r.n < ringSize {
		r.n++
	}
	r.total++
}

// Collector classifies and windows pulse durations. Record is cheap and
// lock-guarded; it is fed from its own goroutine via Run, never from the
// sampling path directly.
type Collector struct {
	timing     tfa.Timing
	thresholds tfa.Thresholds

	mu    sync.Mutex
	rings map[tfa.Symbol]*classRing
}

// NewCollector returns a collector classifying against the given timing.
func NewCollector(timing tfa.Timing) *Collector {
	return &Collector{
		timing:     timing,
		thresholds: timing.Thresholds(),
		rings:      make(map[tfa.Symbol]*classRing),
	}
}

// Record adds one measured duration.
func (c *Collector) Record(ticks int) {
	sym := c.thresholds.Classify(ticks)
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.rings[sym]
	if r == nil {
		r = &classRing{}
		c.rings[sym] = r
	}
	r.add(ticks)
}

// Run drains a receiver pulse tap until ctx is cancelled or the channel is
// closed.
func (c *Collector) Run(ctx context.Context, tap <-chan int) {
	for {
		select {
		case <-ctx.Done():
			return
		case ticks, ok := <-tap:
			if !ok {
				return
			}
			c.Record(ticks)
		}
	}
}

// Snapshot returns per-class statistics over the current windows, ordered
// by symbol value.
func (c *Collector) Snapshot() []ClassStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []ClassStats
	for _, sym := range []tfa.Symbol{
		tfa.SymbolGlitch, tfa.SymbolBit0, tfa.SymbolBit1,
		tfa.SymbolStop, tfa.SymbolStart, tfa.SymbolGap,
	} {
		r := c.rings[sym]
		if r == nil || r.n == 0 {
			continue
		}
		window := r.samples[:r.n]
		mean := stat.Mean(window, nil)
		cs := ClassStats{
			Symbol:     sym.String(),
			Count:      r.total,
			MeanTicks:  mean,
			MeanMillis: mean * c.timing.Tick.Seconds() * 1000,
		}
		if r.n > 1 {
			cs.StdDevTicks = stat.StdDev(window, nil)
		}
		out = append(out, cs)
	}
	return out
}
