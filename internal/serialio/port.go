// Package serialio abstracts the serial ports the receiver talks to: the
// fixed-rate sampling dongle carrying the radio level stream, and an
// optional UART for the SCPI command surface.
package serialio

import (
	"io"
	"time"
)

// Porter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// Mode defines serial port configuration parameters.
type Mode struct {
	BaudRate int
	DataBits int
	Parity   Parity
	StopBits StopBits
}

// Parity defines serial port parity options.
type Parity int

const (
	NoParity Parity = iota
	OddParity
	EvenParity
)

// StopBits defines serial port stop bit options.
type StopBits int

const (
	OneStopBit StopBits = iota
	TwoStopBits
)

// DefaultMode returns the 19200 8N1 setup shared by the sampling dongle
// and the SCPI UART.
func DefaultMode() *Mode {
	return &Mode{
		BaudRate: 19200,
		DataBits: 8,
		Parity:   NoParity,
		StopBits: OneStopBit,
	}
}

// Opener is a function type for opening serial ports. It allows tests to
// substitute port creation.
type Opener func(path string, mode *Mode) (Porter, error)

// TimeoutPorter extends Porter with read timeouts. Optional; real ports
// implement it, mocks may not.
type TimeoutPorter interface {
	Porter
	SetReadTimeout(timeout time.Duration) error
}
