package pulsestats

import (
	"context"
	"math"
	"testing"

	"github.com/rfsense/tfa433/internal/tfa"
)

func TestCollectorClassifiesAndAverages(t *testing.T) {
	c := NewCollector(tfa.DefaultTiming())

	// three short bits around nominal 36 ticks, one long bit, one glitch
	for _, ticks := range []int{35, 36, 37, 72, 2} {
		c.Record(ticks)
	}

	stats := c.Snapshot()
	byName := make(map[string]ClassStats)
	for _, s := range stats {
		byName[s.Symbol] = s
	}

	b0, ok := byName["bit0"]
	if !ok {
		t.Fatal("no bit0 stats")
	}
	if b0.Count != 3 {
		t.Errorf("bit0 count = %d, want 3", b0.Count)
	}
	if math.Abs(b0.MeanTicks-36) > 1e-9 {
		t.Errorf("bit0 mean = %v, want 36", b0.MeanTicks)
	}
	if math.Abs(b0.MeanMillis-1.8) > 1e-9 {
		t.Errorf("bit0 mean ms = %v, want 1.8", b0.MeanMillis)
	}
	if b0.StdDevTicks == 0 {
		t.Error("bit0 stddev = 0 over a spread window")
	}

	if g := byName["glitch"]; g.Count != 1 {
		t.Errorf("glitch count = %d, want 1", g.Count)
	}
	if b1 := byName["bit1"]; b1.Count != 1 || b1.StdDevTicks != 0 {
		t.Errorf("bit1 stats = %+v, want count 1 stddev 0", b1)
	}
}

func TestCollectorWindowBound(t *testing.T) {
	c := NewCollector(tfa.DefaultTiming())
	for i := 0; i < ringSize*2; i++ {
		c.Record(36)
	}
	stats := c.Snapshot()
	if len(stats) != 1 {
		t.Fatalf("got %d classes, want 1", len(stats))
	}
	if stats[0].Count != ringSize*2 {
		t.Errorf("total count = %d, want %d", stats[0].Count, ringSize*2)
	}
}

func TestCollectorRunDrainsTap(t *testing.T) {
	c := NewCollector(tfa.DefaultTiming())
	tap := make(chan int, 8)
	tap <- 36
	tap <- 72
	close(tap)

	c.Run(context.Background(), tap)

	if got := len(c.Snapshot()); got != 2 {
		t.Errorf("got %d classes after Run, want 2", got)
	}
}
