package scpi

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/rfsense/tfa433/internal/monitoring"
)

// Server serves the command protocol to any number of clients and can
// broadcast talk-mode report lines to all of them.
type Server struct {
	handler *Handler

	mu      sync.Mutex
	clients map[string]io.Writer
}

// NewServer returns a server executing commands against h.
func NewServer(h *Handler) *Server {
	return &Server{
		handler: h,
		clients: make(map[string]io.Writer),
	}
}

// Handler returns the server's command handler.
func (s *Server) Handler() *Handler {
	return s.handler
}

// clientID generates a random connection id (8 byte random hex encoded value)
func clientID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *Server) addClient(w io.Writer) string {
	id := clientID()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[id] = w
	return id
}

func (s *Server) removeClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

// Broadcast writes a report line to every connected client. Used by the
// consumer loop when talk mode is on. Write errors are logged and
// otherwise ignored; the failing client's read loop will notice the dead
// connection on its own.
func (s *Server) Broadcast(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, w := range s.clients {
		if _, err := fmt.Fprintln(w, line); err != nil {
			monitoring.Logf("scpi: broadcast to client %s failed: %v", id, err)
		}
	}
}

// Serve runs the request/response loop on a single transport (a serial
// port or an accepted TCP connection). It returns when rw is exhausted or
// fails; cancel the surrounding listener or close rw to stop it.
func (s *Server) Serve(rw io.ReadWriter) error {
	id := s.addClient(rw)
	defer s.removeClient(id)

	scanner := bufio.NewScanner(rw)
	scanner.Buffer(make([]byte, MaxLineLen+1), MaxLineLen+1)
	for scanner.Scan() {
		for _, resp := range s.handler.ExecChain(scanner.Text()) {
			if _, err := fmt.Fprintln(rw, resp); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("command stream error: %w", err)
	}
	return nil
}

// ListenAndServe accepts TCP clients on addr (conventionally port 5025)
// until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		go func() {
			defer conn.Close()
			if err := s.Serve(conn); err != nil {
				monitoring.Logf("scpi: client %s: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}
