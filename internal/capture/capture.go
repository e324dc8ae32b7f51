// Package capture decodes the byte stream of the sampling dongle into
// per-tick input levels. The dongle samples the radio data line at a fixed
// rate (50 us by default) and streams one ASCII digit per tick: '0' for a
// low level, '1' for high. Line breaks are ignored so recorded fixture
// files can be wrapped and edited by hand.
package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// Stream reads tick levels from r and hands each one to sink, in order,
// until r is drained or ctx is cancelled. sink is called from this
// goroutine only, preserving the one-sample-per-tick contract of
// tfa.Receiver.FeedSample.
func Stream(ctx context.Context, r io.Reader, sink func(levelHigh bool)) error {
	br := bufio.NewReaderSize(r, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := br.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read sample stream: %w", err)
		}
		switch b {
		case '0':
			sink(false)
		case '1':
			sink(true)
		case '\n', '\r', ' ', '\t':
			// padding, skip
		default:
			return fmt.Errorf("unexpected byte 0x%02x in sample stream", b)
		}
	}
}
