package session

import (
	"regexp"
	"testing"
	"time"

	"github.com/race/lobbyserver/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time forward deterministically.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestRegistry() (*Registry, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewRegistry(clock, nil), clock
}

var sessionIDPattern = regexp.MustCompile(`^SESS_[0-9A-F]{16}$`)

func TestCreate_IDFormat(t *testing.T) {
	reg, _ := newTestRegistry()
	s, err := reg.Create("127.0.0.1")
	require.NoError(t, err)
	assert.Regexp(t, sessionIDPattern, s.ID())
	assert.Equal(t, "127.0.0.1", s.ClientIP())
}

func TestCreate_UniqueIDs(t *testing.T) {
	reg, _ := newTestRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, err := reg.Create("10.0.0.1")
		require.NoError(t, err)
		assert.False(t, seen[s.ID()], "duplicate session id minted")
		seen[s.ID()] = true
	}
}

func TestGet_NotFound(t *testing.T) {
	reg, _ := newTestRegistry()
	_, err := reg.Get("SESS_DOESNOTEXIST")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTouch_UpdatesLastActivity(t *testing.T) {
	reg, clock := newTestRegistry()
	s, err := reg.Create("1.2.3.4")
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	require.NoError(t, reg.Touch(s.ID()))
	assert.Equal(t, clock.Now(), s.LastActivity())
}

func TestBindPlayerAndRoom(t *testing.T) {
	reg, _ := newTestRegistry()
	s, err := reg.Create("1.2.3.4")
	require.NoError(t, err)

	player := identity.PlayerID{Storefront: identity.StorefrontSteam, ID: "99"}
	require.NoError(t, reg.BindPlayer(s.ID(), player))

	got, ok := s.Player()
	assert.True(t, ok)
	assert.True(t, got.Equal(player))

	require.NoError(t, reg.BindRoom(s.ID(), 42, true))
	roomID, hasRoom := s.RoomID()
	assert.True(t, hasRoom)
	assert.EqualValues(t, 42, roomID)

	require.NoError(t, reg.BindRoom(s.ID(), 0, false))
	_, hasRoom = s.RoomID()
	assert.False(t, hasRoom)
}

func TestEnqueueAndPoll_FIFOOrder(t *testing.T) {
	reg, _ := newTestRegistry()
	s, err := reg.Create("1.2.3.4")
	require.NoError(t, err)

	require.NoError(t, reg.Enqueue(s.ID(), "frame-1"))
	require.NoError(t, reg.Enqueue(s.ID(), "frame-2"))
	require.NoError(t, reg.Enqueue(s.ID(), "frame-3"))

	frame, ok, err := reg.Poll(s.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "frame-1", frame)

	frame, ok, err = reg.Poll(s.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "frame-2", frame)

	frame, ok, err = reg.Poll(s.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "frame-3", frame)

	// Queue is now drained.
	_, ok, err = reg.Poll(s.ID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnqueue_DropsNewestOnOverflow(t *testing.T) {
	reg, _ := newTestRegistry()
	s, err := reg.Create("1.2.3.4")
	require.NoError(t, err)

	for i := 0; i < MaxQueueSize; i++ {
		require.NoError(t, reg.Enqueue(s.ID(), "frame"))
	}
	// One more push past capacity should be dropped and reported via
	// ErrQueueFull, not silently swallowed.
	err = reg.Enqueue(s.ID(), "overflow-frame")
	require.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, MaxQueueSize, s.QueueLen())
}

func TestDisconnect_RemovesSession(t *testing.T) {
	reg, _ := newTestRegistry()
	s, err := reg.Create("1.2.3.4")
	require.NoError(t, err)

	reg.Disconnect(s.ID())
	_, err = reg.Get(s.ID())
	assert.ErrorIs(t, err, ErrNotFound)

	// Disconnecting an already-gone id is not an error.
	reg.Disconnect(s.ID())
}

func TestReap_RemovesIdleSessions(t *testing.T) {
	reg, clock := newTestRegistry()
	stale, err := reg.Create("1.1.1.1")
	require.NoError(t, err)
	fresh, err := reg.Create("2.2.2.2")
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	require.NoError(t, reg.Touch(fresh.ID()))

	clock.Advance(20 * time.Minute)

	reaped := reg.Reap(30 * time.Minute)
	reapedIDs := make([]string, len(reaped))
	for i, rs := range reaped {
		reapedIDs[i] = rs.ID
	}
	assert.Contains(t, reapedIDs, stale.ID())
	assert.NotContains(t, reapedIDs, fresh.ID())

	_, err = reg.Get(stale.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = reg.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestReap_CapturesBoundPlayerAndRoom(t *testing.T) {
	reg, clock := newTestRegistry()
	s, err := reg.Create("1.1.1.1")
	require.NoError(t, err)

	player := identity.PlayerID{Storefront: identity.StorefrontNone, ID: s.ID(), DisplayName: "A"}
	require.NoError(t, reg.BindPlayer(s.ID(), player))
	require.NoError(t, reg.BindRoom(s.ID(), 42, true))

	clock.Advance(31 * time.Minute)

	reaped := reg.Reap(30 * time.Minute)
	require.Len(t, reaped, 1)
	rs := reaped[0]
	assert.Equal(t, s.ID(), rs.ID)
	assert.Equal(t, "1.1.1.1", rs.ClientIP)
	assert.True(t, rs.HasPlayer)
	assert.Equal(t, player, rs.Player)
	assert.True(t, rs.HasRoom)
	assert.Equal(t, int64(42), rs.RoomID)
}

func TestCount(t *testing.T) {
	reg, _ := newTestRegistry()
	assert.Equal(t, 0, reg.Count())
	_, err := reg.Create("1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Count())
}
