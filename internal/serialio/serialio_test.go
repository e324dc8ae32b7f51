package serialio

import (
	"errors"
	"io"
	"testing"

	"go.bug.st/serial"
)

func TestDefaultMode(t *testing.T) {
	m := DefaultMode()
	if m.BaudRate != 19200 {
		t.Errorf("BaudRate = %d, want 19200", m.BaudRate)
	}
	if m.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", m.DataBits)
	}
	if m.Parity != NoParity {
		t.Errorf("Parity = %d, want NoParity", m.Parity)
	}
	if m.StopBits != OneStopBit {
		t.Errorf("StopBits = %d, want OneStopBit", m.StopBits)
	}
}

func TestSerialModeConversion(t *testing.T) {
	tests := []struct {
		name string
		mode *Mode
		want serial.Mode
	}{
		{
			name: "nil falls back to default",
			mode: nil,
			want: serial.Mode{BaudRate: 19200, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit},
		},
		{
			name: "odd parity two stop bits",
			mode: &Mode{BaudRate: 9600, DataBits: 7, Parity: OddParity, StopBits: TwoStopBits},
			want: serial.Mode{BaudRate: 9600, DataBits: 7, Parity: serial.OddParity, StopBits: serial.TwoStopBits},
		},
		{
			name: "even parity",
			mode: &Mode{BaudRate: 115200, DataBits: 8, Parity: EvenParity, StopBits: OneStopBit},
			want: serial.Mode{BaudRate: 115200, DataBits: 8, Parity: serial.EvenParity, StopBits: serial.OneStopBit},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := serialMode(tt.mode)
			if err != nil {
				t.Fatalf("serialMode: %v", err)
			}
			if *got != tt.want {
				t.Errorf("serialMode = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestSerialModeRejectsUnknownValues(t *testing.T) {
	if _, err := serialMode(&Mode{Parity: Parity(9)}); err == nil {
		t.Error("expected error for unknown parity")
	}
	if _, err := serialMode(&Mode{StopBits: StopBits(9)}); err == nil {
		t.Error("expected error for unknown stop bits")
	}
}

func TestMockPortReadWrite(t *testing.T) {
	p := NewMockPort("0101")

	buf := make([]byte, 16)
	n, err := p.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "0101" {
		t.Errorf("Read = %q, want %q", buf[:n], "0101")
	}

	if _, err := p.Write([]byte("*IDN?\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := p.Written(); got != "*IDN?\n" {
		t.Errorf("Written = %q, want %q", got, "*IDN?\n")
	}
}

func TestMockPortEOFWhenDrained(t *testing.T) {
	p := NewMockPort("1")
	buf := make([]byte, 4)
	if _, err := p.Read(buf); err != nil {
		t.Fatalf("first Read: %v", err)
	}
	if _, err := p.Read(buf); err != io.EOF {
		t.Errorf("Read after drain = %v, want io.EOF", err)
	}
}

func TestMockPortErrors(t *testing.T) {
	readErr := errors.New("read failed")
	writeErr := errors.New("write failed")
	p := NewMockPort("data")
	p.ReadError = readErr
	p.WriteError = writeErr

	if _, err := p.Read(make([]byte, 4)); !errors.Is(err, readErr) {
		t.Errorf("Read error = %v, want %v", err, readErr)
	}
	if _, err := p.Write([]byte("x")); !errors.Is(err, writeErr) {
		t.Errorf("Write error = %v, want %v", err, writeErr)
	}
}

func TestMockPortClosedReadsEOF(t *testing.T) {
	p := NewMockPort("data")
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := p.Read(make([]byte, 4)); err != io.EOF {
		t.Errorf("Read after Close = %v, want io.EOF", err)
	}
}
