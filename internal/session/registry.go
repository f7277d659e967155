package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/race/lobbyserver/internal/identity"
	"github.com/race/lobbyserver/internal/logger"
)

// Sentinel errors for registry operations (spec §7).
var (
	ErrNotFound  = errors.New("session: not found")
	ErrQueueFull = errors.New("session: outbound queue full")
)

// idPrefix and idByteLen determine the "SESS_<16-hex-uppercase>" shape
// of a minted session id (spec §4.4).
const (
	idPrefix  = "SESS_"
	idByteLen = 8 // 8 bytes -> 16 hex chars
)

// Clock abstracts time so reap logic is testable without real sleeps.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Registry is the process-wide session index (spec §3, "session
// registry"). A single RWMutex guards the top-level map; each Session
// owns a private mutex for its own mutable fields, so a touch/enqueue
// on one session never blocks a lookup of another.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	clock Clock
	log   *logger.Logger
}

// NewRegistry builds an empty Registry. A nil clock defaults to the
// real wall clock; a nil log defaults to a no-op logger.
func NewRegistry(clock Clock, log *logger.Logger) *Registry {
	if clock == nil {
		clock = realClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		clock:    clock,
		log:      log,
	}
}

// Create mints a new session bound to clientIP and inserts it into the
// registry, retrying id generation on the (astronomically unlikely)
// collision case.
func (r *Registry) Create(clientIP string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < 10; attempt++ {
		id, err := newSessionID()
		if err != nil {
			return nil, err
		}
		if _, exists := r.sessions[id]; exists {
			continue
		}
		now := r.clock.Now()
		s := &Session{
			id:           id,
			clientIP:     clientIP,
			createdAt:    now,
			lastActivity: now,
		}
		r.sessions[id] = s
		return s, nil
	}
	return nil, fmt.Errorf("session: exhausted id generation attempts")
}

// newSessionID draws its entropy from a v4 UUID and truncates to
// idByteLen, rather than reading crypto/rand directly: one random
// source for every minted identifier in the package.
func newSessionID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("session: generating id: %w", err)
	}
	raw := u[:idByteLen]
	return idPrefix + strings.ToUpper(hex.EncodeToString(raw)), nil
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Touch refreshes a session's last-activity timestamp.
func (r *Registry) Touch(id string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lastActivity = r.clock.Now()
	s.mu.Unlock()
	return nil
}

// BindPlayer attaches a PlayerID to a session, e.g. after a successful
// login handshake.
func (r *Registry) BindPlayer(id string, player identity.PlayerID) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.player = player
	s.hasPlayer = true
	s.mu.Unlock()
	return nil
}

// BindRoom attaches a room id to a session, or clears the binding when
// hasRoom is false.
func (r *Registry) BindRoom(id string, roomID int64, hasRoom bool) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.roomID = roomID
	s.hasRoom = hasRoom
	s.mu.Unlock()
	return nil
}

// Enqueue appends a base64-encoded outbound frame to a session's
// queue. When the queue is already at MaxQueueSize, the new frame is
// dropped (the newest loses, per spec §4.4), a warning is logged, and
// ErrQueueFull is returned so callers can log it up their own chain
// without treating it as a fatal transport error.
func (r *Registry) Enqueue(id string, frameB64 string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) >= MaxQueueSize {
		r.log.Warn("session outbound queue full, dropping frame", "session_id", id, "queue_size", len(s.queue))
		return ErrQueueFull
	}
	s.queue = append(s.queue, frameB64)
	return nil
}

// Poll pops and returns the single oldest queued outbound frame for a
// session, refreshing its last-activity timestamp. It returns ok=false
// when the queue is empty, matching the BlueBox "poll|null" response
// and the continuous single-frame draining a TCP writer performs
// (spec §4.4, §4.7).
func (r *Registry) Poll(id string) (frame string, ok bool, err error) {
	s, err := r.Get(id)
	if err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = r.clock.Now()
	if len(s.queue) == 0 {
		return "", false, nil
	}
	frame = s.queue[0]
	s.queue = s.queue[1:]
	return frame, true, nil
}

// Disconnect removes a session from the registry. It is not an error
// to disconnect an id that is already gone.
func (r *Registry) Disconnect(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ReapedSession captures everything a caller needs to cascade cleanup
// for a session Reap removed, since the Session itself is gone once
// Reap returns: its bound room (if any) and bound player (if any),
// per spec §4.4's "for each room where its bound player is a member, a
// leave is enqueued" requirement.
type ReapedSession struct {
	ID        string
	ClientIP  string
	Player    identity.PlayerID
	HasPlayer bool
	RoomID    int64
	HasRoom   bool
}

// Reap removes every session whose last activity is older than
// idleCutoff and returns a ReapedSession per removed session, capturing
// each one's bound room/player before deletion so the caller can
// cascade a room leave.
func (r *Registry) Reap(idleCutoff time.Duration) []ReapedSession {
	now := r.clock.Now()

	r.mu.Lock()
	var stale []ReapedSession
	for id, s := range r.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastActivity) >= idleCutoff
		var rs ReapedSession
		if idle {
			rs = ReapedSession{
				ID:        id,
				ClientIP:  s.clientIP,
				Player:    s.player,
				HasPlayer: s.hasPlayer,
				RoomID:    s.roomID,
				HasRoom:   s.hasRoom,
			}
		}
		s.mu.Unlock()
		if idle {
			stale = append(stale, rs)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	if len(stale) > 0 {
		r.log.Info("reaped idle sessions", "count", len(stale))
	}
	return stale
}
