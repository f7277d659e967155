// Package session implements the session registry (spec §3, §4.4): opaque
// per-connection session ids, their bound identity/room, and a bounded
// outbound frame queue drained by BlueBox polls or the TCP writer.
package session

import (
	"sync"
	"time"

	"github.com/race/lobbyserver/internal/identity"
)

// MaxQueueSize bounds a session's outbound queue (spec §4.4).
const MaxQueueSize = 1024

// Session is one logical SFS2X connection, whether it arrived over
// direct TCP or BlueBox HTTP.
type Session struct {
	mu sync.Mutex

	id           string
	clientIP     string
	createdAt    time.Time
	lastActivity time.Time

	player   identity.PlayerID
	hasPlayer bool

	roomID    int64
	hasRoom   bool

	queue []string // base64-encoded outbound frames, FIFO
}

// ID returns the session's immutable identifier.
func (s *Session) ID() string { return s.id }

// ClientIP returns the IP the session was created with.
func (s *Session) ClientIP() string { return s.clientIP }

// CreatedAt returns session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastActivity returns the last time the session was touched.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Player returns the bound PlayerID, if any.
func (s *Session) Player() (identity.PlayerID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player, s.hasPlayer
}

// RoomID returns the bound room id, if any.
func (s *Session) RoomID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID, s.hasRoom
}

// QueueLen reports the number of queued outbound frames.
func (s *Session) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
