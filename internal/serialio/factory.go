package serialio

import (
	"fmt"

	"go.bug.st/serial"
)

// Open opens a real serial port at the given path. It satisfies Opener.
func Open(path string, mode *Mode) (Porter, error) {
	m, err := serialMode(mode)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, m)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	return port, nil
}

func serialMode(mode *Mode) (*serial.Mode, error) {
	if mode == nil {
		mode = DefaultMode()
	}
	m := &serial.Mode{
		BaudRate: mode.BaudRate,
		DataBits: mode.DataBits,
	}
	switch mode.Parity {
	case NoParity:
		m.Parity = serial.NoParity
	case OddParity:
		m.Parity = serial.OddParity
	case EvenParity:
		m.Parity = serial.EvenParity
	default:
		return nil, fmt.Errorf("unsupported parity %d", mode.Parity)
	}
	switch mode.StopBits {
	case OneStopBit:
		m.StopBits = serial.OneStopBit
	case TwoStopBits:
		m.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits %d", mode.StopBits)
	}
	return m, nil
}
