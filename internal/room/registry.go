package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/race/lobbyserver/internal/identity"
	"github.com/race/lobbyserver/internal/logger"
	"github.com/race/lobbyserver/internal/settings"
)

// Clock abstracts time so reap and activity-tracking logic is testable
// without real sleeps.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Registry is the process-wide room index (spec §3, "room registry").
// Its RWMutex guards only the id→*Room map; all membership mutation
// happens under the target Room's own lock, never under the registry
// lock, so operations on different rooms never contend.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[int64]*Room
	nextID int64

	clock Clock
	log   *logger.Logger
}

// NewRegistry builds an empty Registry.
func NewRegistry(clock Clock, log *logger.Logger) *Registry {
	if clock == nil {
		clock = realClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		rooms: make(map[int64]*Room),
		clock: clock,
		log:   log,
	}
}

func validateSettings(st settings.Settings) error {
	max := st.MaxPlayers()
	if max < 2 || max > 10 {
		return fmt.Errorf("%w: maxPlayers must be in [2,10], got %d", ErrInvalidSettings, max)
	}
	return nil
}

// Create allocates a new room owned by owner, per spec §4.5. It
// enforces "at most one non-started room per owner" (spec §3).
func (reg *Registry) Create(st settings.Settings, owner identity.CombinedID, password string) (*Room, error) {
	if err := validateSettings(st); err != nil {
		return nil, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, existing := range reg.rooms {
		existing.mu.Lock()
		ownsActive := !existing.started && existing.owner.Equal(owner.Player)
		existing.mu.Unlock()
		if ownsActive {
			return nil, ErrOwnerHasActiveRoom
		}
	}

	now := reg.clock.Now()
	reg.nextID++
	r := &Room{
		id:       reg.nextID,
		group:    DefaultGroup,
		owner:    owner.Player,
		password: password,
		settings: st,
		members: []*member{{
			combined: owner,
			ready:    false,
			joinedAt: now,
		}},
		createdAt:    now,
		lastActivity: now,
	}
	reg.rooms[r.id] = r
	return r, nil
}

// Get looks up a room by id.
func (reg *Registry) Get(id int64) (*Room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

func (reg *Registry) snapshotAll() []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r)
	}
	return out
}

// ListGroup returns a snapshot of every room in group.
func (reg *Registry) ListGroup(group string) []Snapshot {
	var out []Snapshot
	for _, r := range reg.snapshotAll() {
		snap := r.Snapshot()
		if snap.Group == group {
			out = append(out, snap)
		}
	}
	return out
}

// CountGroup returns the number of rooms in group.
func (reg *Registry) CountGroup(group string) int {
	count := 0
	for _, r := range reg.snapshotAll() {
		if r.Snapshot().Group == group {
			count++
		}
	}
	return count
}

// FindJoinable returns up to limit rooms in group that are not started
// and not full. Password matching is deferred to Join (spec §4.5).
func (reg *Registry) FindJoinable(group string, limit int) []Snapshot {
	var out []Snapshot
	for _, r := range reg.snapshotAll() {
		r.mu.Lock()
		joinable := r.group == group && r.isJoinableLocked()
		snap := r.snapshotLocked()
		r.mu.Unlock()

		if !joinable {
			continue
		}
		out = append(out, snap)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// GetByOwner returns the single non-started room owned by owner, if
// any (spec §4.5).
func (reg *Registry) GetByOwner(owner identity.PlayerID) (*Room, bool) {
	for _, r := range reg.snapshotAll() {
		r.mu.Lock()
		match := !r.started && r.owner.Equal(owner)
		r.mu.Unlock()
		if match {
			return r, true
		}
	}
	return nil, false
}

// Join adds user to room id, per spec §4.5.
func (reg *Registry) Join(id int64, user identity.CombinedID, password string) error {
	r, err := reg.Get(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrRoomStarted
	}
	if len(r.members) >= r.settings.MaxPlayers() {
		return ErrRoomFull
	}
	if r.password != "" && r.password != password {
		return ErrRoomPasswordMismatch
	}

	r.members = append(r.members, &member{
		combined: user,
		ready:    false,
		joinedAt: reg.clock.Now(),
	})
	r.touchLocked(reg.clock.Now())
	return nil
}

// Leave removes user from room id, transferring ownership to the
// earliest-joined remaining member if the owner left a non-empty room,
// and removing the room entirely if membership becomes empty
// (spec §4.5).
func (reg *Registry) Leave(id int64, user identity.CombinedID) error {
	r, err := reg.Get(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	idx := r.indexOfLocked(user.Key())
	if idx < 0 {
		r.mu.Unlock()
		return ErrNotMember
	}

	wasOwner := r.owner.Equal(user.Player)
	r.members = append(r.members[:idx], r.members[idx+1:]...)

	empty := len(r.members) == 0
	if !empty && wasOwner {
		r.owner = r.members[0].combined.Player
	}
	if !empty {
		r.touchLocked(reg.clock.Now())
	}
	r.mu.Unlock()

	if empty {
		reg.RemoveRoom(id)
	}
	return nil
}

// SetReady updates user's ready flag in room id (spec §4.5).
func (reg *Registry) SetReady(id int64, user identity.CombinedID, ready bool) error {
	r, err := reg.Get(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOfLocked(user.Key())
	if idx < 0 {
		return ErrNotMember
	}
	r.members[idx].ready = ready
	r.touchLocked(reg.clock.Now())
	return nil
}

// UpdateSettings replaces room id's settings, per spec §4.5: requester
// must be owner, and the new maxPlayers may not drop below current
// membership.
func (reg *Registry) UpdateSettings(id int64, newSettings settings.Settings, requester identity.PlayerID) error {
	if err := validateSettings(newSettings); err != nil {
		return err
	}

	r, err := reg.Get(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.owner.Equal(requester) {
		return ErrNotOwner
	}
	if newSettings.MaxPlayers() < len(r.members) {
		return fmt.Errorf("%w: maxPlayers %d below current membership %d", ErrInvalidSettings, newSettings.MaxPlayers(), len(r.members))
	}

	r.settings = newSettings
	r.touchLocked(reg.clock.Now())
	return nil
}

// StartGame transitions room id into the started state and mints a
// rendezvous token for the owner's endpoint, per spec §4.5 and the
// resolved open question: readiness is gated by every non-owner
// member's ready flag, not merely member count.
func (reg *Registry) StartGame(id int64, requester identity.PlayerID) (string, error) {
	r, err := reg.Get(id)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	if !r.owner.Equal(requester) {
		r.mu.Unlock()
		return "", ErrNotOwner
	}
	if r.started {
		r.mu.Unlock()
		return "", ErrRoomStarted
	}
	if len(r.members) < MinMembersToStart {
		r.mu.Unlock()
		return "", ErrNotReady
	}

	var ownerCombined identity.CombinedID
	for _, m := range r.members {
		if m.combined.Player.Equal(r.owner) {
			ownerCombined = m.combined
			continue
		}
		if !m.ready {
			r.mu.Unlock()
			return "", ErrNotReady
		}
	}

	r.started = true
	r.touchLocked(reg.clock.Now())
	r.mu.Unlock()

	token, err := identity.MintRendezvousToken(ownerCombined)
	if err != nil {
		return "", err
	}
	return token, nil
}

// RemoveRoom deletes room id unconditionally.
func (reg *Registry) RemoveRoom(id int64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, id)
}

// Reap removes every room whose last activity is older than
// idleCutoff and returns the removed rooms' ids.
func (reg *Registry) Reap(idleCutoff time.Duration) []int64 {
	now := reg.clock.Now()

	reg.mu.Lock()
	var stale []int64
	for id, r := range reg.rooms {
		r.mu.Lock()
		idle := now.Sub(r.lastActivity)
		r.mu.Unlock()
		if idle >= idleCutoff {
			stale = append(stale, id)
			delete(reg.rooms, id)
		}
	}
	reg.mu.Unlock()

	if len(stale) > 0 {
		reg.log.Info("reaped idle rooms", "count", len(stale))
	}
	return stale
}
