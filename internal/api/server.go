// Package api exposes the receiver's state over a small read-only JSON
// API: current channel slots, stored reading history, and pulse timing
// statistics.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rfsense/tfa433/internal/db"
	"github.com/rfsense/tfa433/internal/monitoring"
	"github.com/rfsense/tfa433/internal/pulsestats"
	"github.com/rfsense/tfa433/internal/tfa"
	"github.com/rfsense/tfa433/internal/units"
)

// ANSI escape codes for request logging
const (
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Server serves the JSON API. db and stats may be nil when the daemon
// runs without persistence or diagnostics; the matching endpoints then
// answer 404.
type Server struct {
	reg   *tfa.Registry
	db    *db.DB
	stats *pulsestats.Collector
	units string
}

// NewServer returns a server reporting temperatures in defaultUnits.
func NewServer(reg *tfa.Registry, database *db.DB, stats *pulsestats.Collector, defaultUnits string) *Server {
	if !units.IsValid(defaultUnits) {
		defaultUnits = units.Celsius
	}
	return &Server{reg: reg, db: database, stats: stats, units: defaultUnits}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf("%s %s %s %s", r.Method, r.URL.Path, statusCodeColor(lrw.statusCode), time.Since(start))
	})
}

// Routes returns the API handler with request logging attached.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /api/channels", s.handleChannels)
	mux.HandleFunc("GET /api/readings", s.handleReadings)
	mux.HandleFunc("GET /api/pulse_stats", s.handlePulseStats)
	return logRequest(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("api: failed to encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestUnits resolves the units query parameter against the server
// default. ok is false (and the response already written) on an invalid
// value.
func (s *Server) requestUnits(w http.ResponseWriter, r *http.Request) (string, bool) {
	u := r.URL.Query().Get("units")
	if u == "" {
		return s.units, true
	}
	if !units.IsValid(u) {
		writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid units %q, valid values: %s", u, units.GetValidUnitsString()))
		return "", false
	}
	return u, true
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type channelEntry struct {
	Channel int  `json:"channel"`
	HasData bool `json:"has_data"`
	tfa.SlotReading
}

type channelsResponse struct {
	Units    string         `json:"units"`
	Channels []channelEntry `json:"channels"`
	Last     *channelEntry  `json:"last,omitempty"`
	Accepted uint64         `json:"accepted"`
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requestUnits(w, r)
	if !ok {
		return
	}

	snapshot := s.reg.Snapshot()
	resp := channelsResponse{Units: u, Accepted: s.reg.Accepted()}
	for i, sr := range snapshot {
		sr.TempC = units.ConvertTemperature(sr.TempC, u)
		resp.Channels = append(resp.Channels, channelEntry{
			Channel:     i + 1,
			HasData:     !sr.ReceivedAt.IsZero(),
			SlotReading: sr,
		})
	}
	if last := s.reg.Last(); !last.ReceivedAt.IsZero() {
		last.TempC = units.ConvertTemperature(last.TempC, u)
		resp.Last = &channelEntry{Channel: last.Reading.Channel, HasData: true, SlotReading: last}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSONError(w, http.StatusNotFound, "reading history not enabled")
		return
	}
	u, ok := s.requestUnits(w, r)
	if !ok {
		return
	}

	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 || v > 10000 {
			writeJSONError(w, http.StatusBadRequest, "limit must be an integer between 1 and 10000")
			return
		}
		limit = v
	}

	readings, err := s.db.RecentReadings(limit)
	if err != nil {
		monitoring.Logf("api: failed to query readings: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to query readings")
		return
	}
	for i := range readings {
		readings[i].TempC = units.ConvertTemperature(readings[i].TempC, u)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"units":    u,
		"readings": readings,
	})
}

func (s *Server) handlePulseStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSONError(w, http.StatusNotFound, "pulse statistics not enabled")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"classes": s.stats.Snapshot()})
}
