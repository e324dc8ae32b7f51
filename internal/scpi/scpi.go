// Package scpi implements the receiver's line-oriented command surface.
// Commands follow the SCPI style of the original instrument UART: LF
// terminated, chainable with ';', answers LF terminated. The same handler
// serves a serial port or TCP clients.
package scpi

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rfsense/tfa433/internal/tfa"
)

// SCPI error codes kept from the instrument convention.
const (
	errNoError         = 0
	errWrongParamType  = -104
	errUndefinedHeader = -113
)

// MaxLineLen bounds one command chain, matching the original 127-byte
// receive buffer.
const MaxLineLen = 127

// Handler executes commands against the receiver state. Safe for use from
// multiple connections.
type Handler struct {
	reg *tfa.Registry
	rx  *tfa.Receiver
	idn string

	mu      sync.Mutex
	talk    bool
	head    bool
	errCode int
	errInfo string // single outstanding message, overwritten by the next error
}

// NewHandler returns a handler with talk mode and headers enabled, the
// power-on defaults of the original firmware.
func NewHandler(reg *tfa.Registry, rx *tfa.Receiver, idn string) *Handler {
	return &Handler{reg: reg, rx: rx, idn: idn, talk: true, head: true}
}

// Talk reports whether auto-reporting of received readings is enabled.
func (h *Handler) Talk() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.talk
}

// Head reports whether report lines carry field headers.
func (h *Handler) Head() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.head
}

func (h *Handler) storeErr(code int, info string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errCode = code
	h.errInfo = info
}

// takeErr returns the stored error as a SCPI answer and clears it.
func (h *Handler) takeErr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	code, info := h.errCode, h.errInfo
	h.errCode = errNoError
	h.errInfo = ""

	var msg string
	switch code {
	case errUndefinedHeader:
		msg = "-113, Undefined command header."
	case errWrongParamType:
		msg = "-104, Wrong parameter type or value."
	default:
		msg = "0, No error."
	}
	if info != "" {
		msg += " " + info
	}
	return msg
}

// parseChannel parses an optional 1-based channel parameter; 0 means "any
// channel". ok is false when the parameter is present but invalid.
func parseChannel(par string) (chn int, ok bool) {
	if par == "" {
		return 0, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(par))
	if err != nil || n < 1 || n > tfa.NumChannels {
		return 0, false
	}
	return n, true
}

// Exec runs a single command (no terminator, no ';' chaining) and returns
// the answer line, if the command produces one.
func (h *Handler) Exec(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	cmd, par := line, ""
	if i := strings.IndexByte(line, ' '); i >= 0 {
		cmd, par = line[:i], strings.TrimSpace(line[i+1:])
	}

	switch cmd {
	case "*IDN?":
		return h.idn, true

	case "*RST":
		h.rx.Reset()
		h.reg.Sync(0)
		h.reg.ResetAccepted()
		h.mu.Lock()
		h.talk, h.head = true, true
		h.errCode, h.errInfo = errNoError, ""
		h.mu.Unlock()
		return "", false

	case "SYST:ERR?":
		return h.takeErr(), true

	case "TFA:TALK", "TFA:HEAD":
		if par != "0" && par != "1" {
			h.storeErr(errWrongParamType, cmd+" parameter must be 0 or 1.")
			return "", false
		}
		h.mu.Lock()
		if cmd == "TFA:TALK" {
			h.talk = par == "1"
		} else {
			h.head = par == "1"
		}
		h.mu.Unlock()
		return "", false

	case "TFA:DATA:NEW?":
		chn, ok := parseChannel(par)
		if !ok {
			h.storeErr(errWrongParamType, "TFA:DATA:NEW? <channel> parameter must be 1 to 3 or empty.")
			return "", false
		}
		if h.reg.HasNew(chn) {
			return "1", true
		}
		return "0", true

	case "TFA:DATA?":
		chn, ok := parseChannel(par)
		if !ok {
			h.storeErr(errWrongParamType, "TFA:DATA? <channel> parameter must be 1 to 3 or empty.")
			return "", false
		}
		var r tfa.SlotReading
		if chn == 0 {
			r = h.reg.Last()
		} else {
			r, _ = h.reg.Channel(chn)
		}
		h.reg.Ack(chn)
		return FormatReading(r.Reading, h.Head()), true

	case "TFA:SYNC":
		chn, ok := parseChannel(par)
		if !ok {
			h.storeErr(errWrongParamType, "TFA:SYNC <channel> parameter must be 1 to 3 or empty.")
			return "", false
		}
		h.reg.Sync(chn)
		return "", false

	case "TFA:COUNT?":
		if par != "" {
			h.storeErr(errWrongParamType, "No parameters expected for TFA:COUNT?")
			return "", false
		}
		return strconv.FormatUint(h.reg.Accepted(), 10), true

	case "TFA:COUNT:RESET":
		if par != "" {
			h.storeErr(errWrongParamType, "No parameters expected for TFA:COUNT:RESET")
			return "", false
		}
		h.reg.ResetAccepted()
		return "", false

	default:
		h.storeErr(errUndefinedHeader, cmd)
		return "", false
	}
}

// ExecChain runs a ';'-chained command line and returns the concatenated
// answers, one per line.
func (h *Handler) ExecChain(line string) []string {
	var out []string
	for _, part := range strings.Split(line, ";") {
		if resp, ok := h.Exec(part); ok {
			out = append(out, resp)
		}
	}
	return out
}

// FormatReading renders a reading the way the instrument reports it.
func FormatReading(r tfa.Reading, head bool) string {
	if head {
		return fmt.Sprintf("id=%2d, chn=%d, t=%.1f\"C, rh=%d%%, batt=%d, sync=%d",
			r.DeviceID, r.Channel, r.TempC, r.Humidity, b2i(r.BatteryLow), b2i(r.Sync))
	}
	return fmt.Sprintf("%2d, %d, %.1f, %d, %d, %d",
		r.DeviceID, r.Channel, r.TempC, r.Humidity, b2i(r.BatteryLow), b2i(r.Sync))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
