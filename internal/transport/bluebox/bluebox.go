// Package bluebox implements the BlueBox long-poll HTTP tunnel (spec
// §4.7): a single form-encoded endpoint that demultiplexes
// connect/poll/data/disconnect for clients that can't hold a direct TCP
// socket open.
package bluebox

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/race/lobbyserver/internal/codec"
	"github.com/race/lobbyserver/internal/lobby"
	"github.com/race/lobbyserver/internal/logger"
	"github.com/race/lobbyserver/internal/session"
)

const (
	cmdConnect    = "connect"
	cmdPoll       = "poll"
	cmdData       = "data"
	cmdDisconnect = "disconnect"
)

// Handler serves the BlueBox endpoint.
type Handler struct {
	sessions  *session.Registry
	processor *lobby.Processor
	frameMax  int64
	log       *logger.Logger
}

// New builds a Handler wired to the given registry and processor.
func New(sessions *session.Registry, processor *lobby.Processor, frameMax int64, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{sessions: sessions, processor: processor, frameMax: frameMax, log: log}
}

// Router builds the chi mux this handler serves on, with the
// middleware stack spec §6 calls for.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Post("/BlueBox/BlueBox.do", h.serveBlueBox)
	return r
}

func (h *Handler) serveBlueBox(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")

	if err := r.ParseForm(); err != nil {
		writeErr(w, "Data error")
		return
	}
	raw := strings.TrimRight(r.FormValue("sfsHttp"), "\x00")
	parts := strings.SplitN(raw, "|", 3)
	if len(parts) < 2 {
		writeErr(w, "Data error")
		return
	}
	sessionID, cmd := parts[0], parts[1]
	data := ""
	if len(parts) == 3 {
		data = parts[2]
	}

	switch cmd {
	case cmdConnect:
		h.handleConnect(w, r)
	case cmdPoll:
		h.handlePoll(w, sessionID)
	case cmdData:
		h.handleData(w, sessionID, data)
	case cmdDisconnect:
		h.handleDisconnect(w, sessionID)
	default:
		writeErr(w, "Data error")
	}
}

func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Create(clientIP(r))
	if err != nil {
		h.log.Error("bluebox connect failed", "err", err)
		writeErr(w, "Session error")
		return
	}
	write(w, cmdConnect, sess.ID())
}

func (h *Handler) handlePoll(w http.ResponseWriter, sessionID string) {
	frame, ok, err := h.sessions.Poll(sessionID)
	if err != nil {
		writeErr(w, "Invalid http session !")
		return
	}
	if !ok {
		write(w, cmdPoll, "null")
		return
	}
	write(w, cmdPoll, frame)
}

func (h *Handler) handleData(w http.ResponseWriter, sessionID, frameB64 string) {
	if _, err := h.sessions.Get(sessionID); err != nil {
		writeErr(w, "Invalid http session !")
		return
	}

	if frameB64 != "" && frameB64 != "null" {
		raw, err := codec.DecodeBlueBoxFrame(frameB64, h.frameMax)
		if err != nil {
			writeErr(w, "Data error")
			return
		}
		msg, err := codec.DecodeMessage(raw)
		if err != nil {
			writeErr(w, "Data error")
			return
		}
		if err := h.processor.Handle(sessionID, msg); err != nil {
			h.log.Warn("bluebox data handling failed", "session_id", sessionID, "err", err)
		}
	}

	write(w, cmdData, "null")
}

func (h *Handler) handleDisconnect(w http.ResponseWriter, sessionID string) {
	h.sessions.Disconnect(sessionID)
	write(w, cmdDisconnect, "null")
}

func write(w http.ResponseWriter, cmd, payload string) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(cmd + "|" + payload))
}

func writeErr(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("err01|" + message))
}

// clientIP resolves the connecting client's address honoring
// X-Forwarded-For (first comma-separated value), then X-Real-IP, then
// falling back to the transport peer (spec §6).
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndexByte(host, ':'); idx >= 0 {
		return host[:idx]
	}
	return host
}
