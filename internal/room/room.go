// Package room implements the room registry (spec §3, §4.5): room
// creation, membership, ready-state negotiation, game-start gating and
// idle reaping.
package room

import (
	"sync"
	"time"

	"github.com/race/lobbyserver/internal/identity"
	"github.com/race/lobbyserver/internal/settings"
)

// DefaultGroup is the room group new rooms join unless told otherwise.
const DefaultGroup = "lobbies"

// MinMembersToStart is the smallest membership startGame accepts
// (spec §4.5, §8 "Start preconditions").
const MinMembersToStart = 2

// member tracks one room participant's per-room state. join order is
// preserved by membership's position in Room.members, which is what
// ownership transfer consults.
type member struct {
	combined identity.CombinedID
	ready    bool
	joinedAt time.Time
}

// Room is one lobby room. All mutation goes through its own mutex —
// the registry's top-level lock only ever guards the id→*Room index
// (spec §5, "room → session, never session → room" lock order; within
// that, the room's own lock is always the first one taken).
type Room struct {
	mu sync.Mutex

	id       int64
	group    string
	owner    identity.PlayerID
	password string
	settings settings.Settings

	members []*member // insertion order; looked up by key via indexOfLocked

	createdAt    time.Time
	lastActivity time.Time
	started      bool
}

// ID returns the room's immutable numeric id.
func (r *Room) ID() int64 { return r.id }

// snapshot is a read-only view of a room's state, safe to hold after
// the room's lock has been released.
type Snapshot struct {
	ID           int64
	Group        string
	Owner        identity.PlayerID
	HasPassword  bool
	Settings     settings.Settings
	MemberCount  int
	MaxPlayers   int
	Started      bool
	CreatedAt    time.Time
	LastActivity time.Time
}

// Snapshot copies out the room's current state under its lock.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() Snapshot {
	return Snapshot{
		ID:           r.id,
		Group:        r.group,
		Owner:        r.owner,
		HasPassword:  r.password != "",
		Settings:     r.settings,
		MemberCount:  len(r.members),
		MaxPlayers:   r.settings.MaxPlayers(),
		Started:      r.started,
		CreatedAt:    r.createdAt,
		LastActivity: r.lastActivity,
	}
}

// Members returns the current members' CombinedIDs in join order; ready
// flags are not included.
func (r *Room) Members() []identity.CombinedID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]identity.CombinedID, len(r.members))
	for i, m := range r.members {
		out[i] = m.combined
	}
	return out
}

func (r *Room) indexOfLocked(key string) int {
	for i, m := range r.members {
		if m.combined.Key() == key {
			return i
		}
	}
	return -1
}

func (r *Room) isJoinableLocked() bool {
	return !r.started && len(r.members) < r.settings.MaxPlayers()
}

func (r *Room) touchLocked(now time.Time) {
	r.lastActivity = now
}
