package tfa

import (
	"testing"
	"time"
)

func TestDefaultThresholds(t *testing.T) {
	th := DefaultTiming().Thresholds()
	if th.glitch != 4 {
		t.Errorf("glitch threshold = %d ticks, want 4", th.glitch)
	}
	if th.stop != 27 {
		t.Errorf("stop threshold = %d ticks, want 27", th.stop)
	}
	if th.mid != 54 {
		t.Errorf("mid threshold = %d ticks, want 54", th.mid)
	}
	if th.start != 100 {
		t.Errorf("start threshold = %d ticks, want 100", th.start)
	}
	if th.gap != 200 {
		t.Errorf("gap threshold = %d ticks, want 200", th.gap)
	}
}

func TestThresholdsScaleWithTick(t *testing.T) {
	timing := DefaultTiming()
	timing.Tick = 100 * time.Microsecond
	th := timing.Thresholds()
	if th.glitch != 2 || th.stop != 13 || th.mid != 27 || th.start != 50 || th.gap != 100 {
		t.Errorf("thresholds at 100us tick = %+v", th)
	}
}

func TestClassify(t *testing.T) {
	th := DefaultTiming().Thresholds()

	tests := []struct {
		name  string
		ticks int
		want  Symbol
	}{
		{"zero duration", 0, SymbolGlitch},
		{"just below glitch limit", 3, SymbolGlitch},
		{"at glitch limit folds to stop", 4, SymbolStop},
		{"nominal stop 0.5ms", 10, SymbolStop},
		{"just below stop limit", 26, SymbolStop},
		{"at stop limit folds to bit", 27, SymbolBit0},
		{"nominal short pulse 1.8ms", 36, SymbolBit0},
		{"just below midpoint", 53, SymbolBit0},
		{"at midpoint is a high bit", 54, SymbolBit1},
		{"nominal long pulse 3.6ms", 72, SymbolBit1},
		{"at start limit is still a bit", 100, SymbolBit1},
		{"just above start limit", 101, SymbolStart},
		{"nominal start 8ms", 160, SymbolStart},
		{"at gap limit is still a start", 200, SymbolStart},
		{"just above gap limit", 201, SymbolGap},
		{"saturated counter", 1000, SymbolGap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := th.Classify(tt.ticks); got != tt.want {
				t.Errorf("Classify(%d) = %v, want %v", tt.ticks, got, tt.want)
			}
		})
	}
}

// Every duration strictly below the glitch threshold must classify as a
// glitch; this is the squelch the whole noise-recovery design leans on.
func TestClassifyAllSubGlitchDurations(t *testing.T) {
	th := DefaultTiming().Thresholds()
	for ticks := 0; ticks < th.glitch; ticks++ {
		if got := th.Classify(ticks); got != SymbolGlitch {
			t.Fatalf("Classify(%d) = %v, want glitch", ticks, got)
		}
	}
}
