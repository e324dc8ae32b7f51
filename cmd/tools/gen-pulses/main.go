// Command gen-pulses generates synthetic sample streams for testing the
// receiver in dev mode. Output is one ASCII '0' or '1' per 50us sampling
// tick, the format the sampling dongle emits.
package main

import (
	"bufio"
	"flag"
	"log"
	"os"

	"github.com/rfsense/tfa433/internal/tfa"
)

// tick counts for the default 50us timing
const (
	ticksPulse = 10  // carrier pulse width, 0.5ms
	ticksStop  = 10  // stop gap, 0.5ms
	ticksZero  = 36  // 0-bit gap, 1.8ms
	ticksOne   = 72  // 1-bit gap, 3.6ms
	ticksStart = 160 // start gap, 8ms
	ticksGap   = 210 // end-of-transmission gap, >10ms
)

const lineWidth = 80

type emitter struct {
	w   *bufio.Writer
	col int
}

func (e *emitter) run(c byte, n int) {
	for i := 0; i < n; i++ {
		e.w.WriteByte(c)
		e.col++
		if e.col == lineWidth {
			e.w.WriteByte('\n')
			e.col = 0
		}
	}
}

// gap emits a carrier pulse followed by a low gap of n ticks
func (e *emitter) gap(n int) {
	e.run('1', ticksPulse)
	e.run('0', n)
}

func (e *emitter) candidate(c tfa.Candidate) {
	e.gap(ticksStart)
	for i := 0; i < tfa.PacketBits; i++ {
		if c[i>>3]&(1<<(7-i&7)) != 0 {
			e.gap(ticksOne)
		} else {
			e.gap(ticksZero)
		}
	}
	e.gap(ticksStop)
}

func main() {
	output := flag.String("o", "fixtures.txt", "output path (- for stdout)")
	id := flag.Int("id", 9, "device id (0-15)")
	channel := flag.Int("chn", 1, "channel (1-3)")
	temp := flag.Float64("t", 21.5, "temperature in celsius")
	humidity := flag.Int("rh", 45, "relative humidity percent")
	battLow := flag.Bool("batt-low", false, "set the low battery flag")
	syncBtn := flag.Bool("sync", false, "set the sync button flag")
	reps := flag.Int("n", 5, "packet repetitions per burst")
	bursts := flag.Int("bursts", 1, "number of bursts")
	flag.Parse()

	c := tfa.Encode(tfa.Reading{
		Type:       tfa.SensorType,
		DeviceID:   uint8(*id),
		Channel:    *channel,
		TempC:      *temp,
		Humidity:   uint8(*humidity),
		BatteryLow: *battLow,
		Sync:       *syncBtn,
	})

	out := os.Stdout
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("failed to create %s: %v", *output, err)
		}
		defer f.Close()
		out = f
	}

	e := &emitter{w: bufio.NewWriter(out)}
	for b := 0; b < *bursts; b++ {
		for i := 0; i < *reps; i++ {
			e.candidate(c)
		}
		e.gap(ticksGap)
	}
	// trailing pulse so the final gap gets classified
	e.run('1', ticksPulse)
	if e.col != 0 {
		e.w.WriteByte('\n')
	}
	if err := e.w.Flush(); err != nil {
		log.Fatalf("write failed: %v", err)
	}

	if *output != "-" {
		log.Printf("✓ Created: %s (%d bursts of %d repetitions)", *output, *bursts, *reps)
	}
}
