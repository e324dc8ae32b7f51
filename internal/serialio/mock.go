package serialio

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// MockPort implements Porter with configurable behaviour for testing.
// It provides control over reads, writes, errors, and latency.
type MockPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// ReadLatency adds a delay to each Read call
	ReadLatency time.Duration

	// ReadError is returned by the next Read call if set
	ReadError error

	// WriteError is returned by the next Write call if set
	WriteError error

	// CloseError is returned by Close if set
	CloseError error

	closed bool
}

// NewMockPort returns a mock port preloaded with the given input.
func NewMockPort(input string) *MockPort {
	return &MockPort{
		ReadBuffer:  bytes.NewBufferString(input),
		WriteBuffer: &bytes.Buffer{},
	}
}

func (p *MockPort) Read(buf []byte) (int, error) {
	if p.ReadLatency > 0 {
		time.Sleep(p.ReadLatency)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ReadError != nil {
		return 0, p.ReadError
	}
	if p.closed || p.ReadBuffer.Len() == 0 {
		return 0, io.EOF
	}
	return p.ReadBuffer.Read(buf)
}

func (p *MockPort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.WriteError != nil {
		return 0, p.WriteError
	}
	return p.WriteBuffer.Write(data)
}

func (p *MockPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.CloseError
}

// Written returns everything written to the port so far.
func (p *MockPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.WriteBuffer.String()
}
