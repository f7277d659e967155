// Package reaper drives the session and room idle-eviction passes on a
// schedule, per SPEC_FULL.md §4.13: a cron job rather than a bare
// time.Ticker, matching the corpus's own scheduled-task component.
package reaper

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/race/lobbyserver/internal/identity"
	"github.com/race/lobbyserver/internal/logger"
	"github.com/race/lobbyserver/internal/room"
	"github.com/race/lobbyserver/internal/session"
)

// Scheduler runs the session and room reap passes on the configured
// interval, each as its own cron entry.
type Scheduler struct {
	sessions *session.Registry
	rooms    *room.Registry

	reapEvery   time.Duration
	sessionIdle time.Duration
	roomIdle    time.Duration

	cron *cron.Cron
	log  *logger.Logger
}

// New builds a Scheduler. reapEvery is the cron interval both the
// session and room passes run on; sessionIdle/roomIdle are the
// idle-cutoff durations passed to each registry's Reap.
func New(sessions *session.Registry, rooms *room.Registry, reapEvery, sessionIdle, roomIdle time.Duration, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		sessions:    sessions,
		rooms:       rooms,
		reapEvery:   reapEvery,
		sessionIdle: sessionIdle,
		roomIdle:    roomIdle,
		cron:        c,
		log:         log,
	}
}

// everyExpr renders a cron.Every-compatible "@every <interval>" schedule.
func everyExpr(d time.Duration) string {
	return "@every " + d.String()
}

// Start schedules both reap passes and begins running them in the
// background. Call Stop to cancel and drain in-flight passes.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(everyExpr(s.reapEvery), func() {
		s.reapSessions()
	}); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(everyExpr(s.reapEvery), func() {
		s.reapRooms()
	}); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop cancels future runs and blocks until any in-flight pass
// completes (spec.md §5's drain-on-shutdown requirement).
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// reapSessions evicts idle sessions and cascades a room leave for each
// one that was still bound to a room, per spec §4.4: a reaped session
// is removed from the registry, and for each room where its bound
// player is a member, a leave is enqueued through the room registry.
func (s *Scheduler) reapSessions() {
	reaped := s.sessions.Reap(s.sessionIdle)
	for _, rs := range reaped {
		s.log.Info("reaped idle session", "session_id", rs.ID)
		if !rs.HasRoom || !rs.HasPlayer {
			continue
		}
		combined := identity.CombinedID{Player: rs.Player, IP: rs.ClientIP}
		if err := s.rooms.Leave(rs.RoomID, combined); err != nil &&
			!errors.Is(err, room.ErrRoomNotFound) && !errors.Is(err, room.ErrNotMember) {
			s.log.Warn("cascading room leave for reaped session failed",
				"session_id", rs.ID, "room_id", rs.RoomID, "err", err)
		}
	}
}

func (s *Scheduler) reapRooms() {
	reaped := s.rooms.Reap(s.roomIdle)
	for _, id := range reaped {
		s.log.Info("reaped idle room", "room_id", id)
	}
}
