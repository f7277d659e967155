package lobby

import (
	"errors"
	"fmt"
	"time"

	"github.com/race/lobbyserver/internal/codec"
	"github.com/race/lobbyserver/internal/identity"
	"github.com/race/lobbyserver/internal/logger"
	"github.com/race/lobbyserver/internal/room"
	"github.com/race/lobbyserver/internal/session"
	"github.com/race/lobbyserver/internal/settings"
)

// ErrUnknownSession is raised when a message arrives for a session id
// the registry has never seen or has already reaped (spec §7).
var ErrUnknownSession = errors.New("lobby: unknown session")

// ErrNotLoggedIn gates every room operation on a prior LoginRequest.
var ErrNotLoggedIn = errors.New("lobby: session not logged in")

// Clock abstracts wall-clock reads used in handshake responses.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Processor dispatches decoded requests to the session and room
// registries, per spec §4.6. It holds no per-request state; every
// method is safe for concurrent use across sessions.
type Processor struct {
	sessions *session.Registry
	rooms    *room.Registry
	clock    Clock
	log      *logger.Logger
}

// NewProcessor builds a Processor wired to the given registries.
func NewProcessor(sessions *session.Registry, rooms *room.Registry, clock Clock, log *logger.Logger) *Processor {
	if clock == nil {
		clock = realClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{sessions: sessions, rooms: rooms, clock: clock, log: log}
}

// Handle resolves sessionID, dispatches msg by (controller, action),
// and enqueues every synthesized response/event frame into the
// relevant sessions' outbound queues (spec §4.6, §9 "fan-out through
// queues"). It never returns an error for handled, well-formed domain
// failures or missing/ill-typed params — those become enqueued
// error-response frames instead — but does return one when the session
// is unknown or a session-registry update or enqueue fails.
func (p *Processor) Handle(sessionID string, msg codec.Message) error {
	sess, err := p.sessions.Get(sessionID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	if err := p.sessions.Touch(sessionID); err != nil {
		return err
	}

	switch msg.Controller {
	case ControllerSystem:
		return p.handleSystem(sess, msg)
	case ControllerExtension:
		return p.handleExtension(sess, msg)
	default:
		return p.sendError(sessionID, msg.Action, ErrCodeInvalidData, "unknown controller")
	}
}

func (p *Processor) handleSystem(sess *session.Session, msg codec.Message) error {
	switch msg.Action {
	case ActionHandshake:
		return p.handleHandshake(sess)
	case ActionLogin:
		return p.handleLogin(sess, msg)
	case ActionLogout:
		return p.handleLogout(sess)
	case ActionGetRoomList:
		return p.handleGetRoomList(sess, msg)
	case ActionCreateRoom:
		return p.handleCreateRoom(sess, msg)
	case ActionJoinRoom:
		return p.handleJoinRoom(sess, msg)
	case ActionLeaveRoom:
		return p.handleLeaveRoom(sess)
	case ActionSetUserVars:
		return p.handleSetUserVars(sess, msg)
	case ActionSetRoomVars:
		return p.handleSetRoomVars(sess, msg)
	case ActionPingPong:
		return p.handlePing(sess)
	case ActionPublicMsg:
		return p.handlePublicMsg(sess, msg)
	default:
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "unsupported system action")
	}
}

func (p *Processor) handleExtension(sess *session.Session, msg codec.Message) error {
	cmd, err := paramString(paramsOf(msg), ParamCmd)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "missing cmd")
	}
	switch cmd {
	case CmdStartGame:
		return p.handleStartGame(sess, msg)
	default:
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "unknown extension command")
	}
}

func paramsOf(msg codec.Message) *codec.Object {
	if msg.Params == nil {
		return codec.NewObject()
	}
	return msg.Params
}

// loggedInPlayer returns the PlayerID bound to sess, or ErrNotLoggedIn.
func (p *Processor) loggedInPlayer(sess *session.Session) (identity.PlayerID, error) {
	player, ok := sess.Player()
	if !ok {
		return identity.PlayerID{}, ErrNotLoggedIn
	}
	return player, nil
}

// combinedFor builds the CombinedID a session presents to the room
// registry. Its PlayerID.ID is always the owning session's id (see
// handleLogin), which lets fan-out route straight back to a session
// without a separate lookup table.
func combinedFor(sess *session.Session, player identity.PlayerID) identity.CombinedID {
	return identity.CombinedID{
		Player: player,
		IP:     sess.ClientIP(),
	}
}

func (p *Processor) handleHandshake(sess *session.Session) error {
	resp := codec.NewObject()
	resp.Put(ParamSessionTok, codec.NewString(sess.ID()))
	resp.Put(ParamCompThresh, codec.NewInt(int32(1<<31-1)))
	resp.Put(ParamEncThresh, codec.NewInt(int32(1<<31-1)))
	resp.Put(ParamServerTime, codec.NewLong(p.clock.Now().UnixMilli()))

	return p.send(sess.ID(), codec.Message{
		Controller: ControllerSystem,
		Action:     ActionHandshake,
		Params:     resp,
	})
}

func (p *Processor) handleLogin(sess *session.Session, msg codec.Message) error {
	if _, ok := sess.Player(); ok {
		return p.sendError(sess.ID(), msg.Action, ErrCodeGeneric, "already logged in")
	}

	username, err := paramString(paramsOf(msg), ParamUsername)
	if err != nil || username == "" {
		return p.sendError(sess.ID(), msg.Action, ErrCodeLoginBadUsername, "username required")
	}

	player := identity.PlayerID{
		Storefront:  identity.StorefrontNone,
		ID:          sess.ID(),
		DisplayName: username,
	}
	if err := p.sessions.BindPlayer(sess.ID(), player); err != nil {
		return err
	}

	userObj := codec.NewObject()
	userObj.Put("id", codec.NewString(player.Canonical()))
	userObj.Put("name", codec.NewString(player.DisplayName))

	resp := codec.NewObject()
	resp.Put(ParamUser, codec.NewSFSObject(userObj))

	return p.send(sess.ID(), codec.Message{
		Controller: ControllerSystem,
		Action:     ActionLogin,
		Params:     resp,
	})
}

func (p *Processor) handleLogout(sess *session.Session) error {
	p.leaveCurrentRoom(sess)
	p.sessions.Disconnect(sess.ID())
	return nil
}

func (p *Processor) handlePing(sess *session.Session) error {
	return p.send(sess.ID(), codec.Message{
		Controller: ControllerSystem,
		Action:     ActionPingPong,
		Params:     codec.NewObject(),
	})
}

func (p *Processor) handleGetRoomList(sess *session.Session, msg codec.Message) error {
	group := DefaultGroup
	if g, err := paramString(paramsOf(msg), ParamGroup); err == nil && g != "" {
		group = g
	}

	snaps := p.rooms.ListGroup(group)
	roomVals := make([]codec.Value, len(snaps))
	for i, snap := range snaps {
		roomVals[i] = roomSnapshotToValue(snap)
	}

	resp := codec.NewObject()
	resp.Put(ParamRooms, codec.NewSFSArray(roomVals))

	return p.send(sess.ID(), codec.Message{
		Controller: ControllerSystem,
		Action:     ActionGetRoomList,
		Params:     resp,
	})
}

func roomSnapshotObject(snap room.Snapshot) *codec.Object {
	obj := codec.NewObject()
	obj.Put(ParamRoomID, codec.NewInt(int32(snap.ID)))
	obj.Put(ParamGroup, codec.NewString(snap.Group))
	obj.Put("owner", codec.NewString(snap.Owner.Canonical()))
	obj.Put("hasPassword", codec.NewBool(snap.HasPassword))
	obj.Put("memberCount", codec.NewInt(int32(snap.MemberCount)))
	obj.Put("maxPlayers", codec.NewInt(int32(snap.MaxPlayers)))
	obj.Put("started", codec.NewBool(snap.Started))
	obj.Put(ParamSettings, settings.ToTuple(snap.Settings))
	return obj
}

func roomSnapshotToValue(snap room.Snapshot) codec.Value {
	return codec.NewSFSObject(roomSnapshotObject(snap))
}

func (p *Processor) handleCreateRoom(sess *session.Session, msg codec.Message) error {
	player, err := p.loggedInPlayer(sess)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeGeneric, "not logged in")
	}

	params := paramsOf(msg)
	settingsVal, err := paramValue(params, ParamSettings)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "missing settings")
	}
	st, err := settings.FromTuple(settingsVal)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "invalid settings")
	}
	password, _ := paramString(params, ParamPassword)

	owner := combinedFor(sess, player)
	r, err := p.rooms.Create(st, owner, password)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, err.Error())
	}

	if err := p.sessions.BindRoom(sess.ID(), r.ID(), true); err != nil {
		return err
	}

	resp := codec.NewObject()
	resp.Put(ParamRoomID, codec.NewInt(int32(r.ID())))

	if err := p.send(sess.ID(), codec.Message{Controller: ControllerSystem, Action: ActionCreateRoom, Params: resp}); err != nil {
		return err
	}

	p.broadcastEvent(r, EventRoomAdd, roomEventParams(r))
	return nil
}

func (p *Processor) handleJoinRoom(sess *session.Session, msg codec.Message) error {
	player, err := p.loggedInPlayer(sess)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeGeneric, "not logged in")
	}

	params := paramsOf(msg)
	roomID, err := paramInt(params, ParamRoomID)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "missing room id")
	}
	password, _ := paramString(params, ParamPassword)

	user := combinedFor(sess, player)
	if err := p.rooms.Join(int64(roomID), user, password); err != nil {
		return p.sendJoinError(sess.ID(), msg.Action, err)
	}

	if err := p.sessions.BindRoom(sess.ID(), int64(roomID), true); err != nil {
		return err
	}

	r, err := p.rooms.Get(int64(roomID))
	if err != nil {
		return err
	}

	if err := p.send(sess.ID(), codec.Message{
		Controller: ControllerSystem,
		Action:     ActionJoinRoom,
		Params:     roomEventParams(r),
	}); err != nil {
		return err
	}

	evt := codec.NewObject()
	evt.Put(ParamRoomID, codec.NewInt(int32(r.ID())))
	evt.Put("user", codec.NewString(player.Canonical()))
	// The joiner already has its join response; the event goes to the
	// members who were in the room before it.
	for _, member := range r.Members() {
		if member.Player.ID == sess.ID() {
			continue
		}
		evtMsg := codec.Message{Controller: ControllerSystem, Action: EventUserJoinRoom, Params: evt}
		if err := p.send(member.Player.ID, evtMsg); err != nil {
			p.log.Warn("fan-out enqueue failed", "room_id", r.ID(), "session_id", member.Player.ID, "err", err)
		}
	}
	return nil
}

func (p *Processor) sendJoinError(sessionID string, action int16, err error) error {
	switch {
	case errors.Is(err, room.ErrRoomFull):
		return p.sendError(sessionID, action, ErrCodeJoinRoomFull, "room is full")
	case errors.Is(err, room.ErrRoomPasswordMismatch):
		return p.sendError(sessionID, action, ErrCodeJoinPwdMismatch, "password mismatch")
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, room.ErrRoomStarted):
		return p.sendError(sessionID, action, ErrCodeJoinRoomNotFound, "room not joinable")
	default:
		return p.sendError(sessionID, action, ErrCodeGeneric, err.Error())
	}
}

func (p *Processor) handleLeaveRoom(sess *session.Session) error {
	ok := p.leaveCurrentRoom(sess)
	if !ok {
		return p.sendError(sess.ID(), ActionLeaveRoom, ErrCodeInvalidData, "not in a room")
	}
	return p.send(sess.ID(), codec.Message{
		Controller: ControllerSystem,
		Action:     ActionLeaveRoom,
		Params:     codec.NewObject(),
	})
}

// leaveCurrentRoom removes sess's bound player from its bound room, if
// any, broadcasting the leave event and unbinding the session's room
// pointer. It reports whether a room membership actually existed.
func (p *Processor) leaveCurrentRoom(sess *session.Session) bool {
	roomID, hasRoom := sess.RoomID()
	player, hasPlayer := sess.Player()
	if !hasRoom || !hasPlayer {
		return false
	}

	r, err := p.rooms.Get(roomID)
	if err == nil {
		user := combinedFor(sess, player)
		if err := p.rooms.Leave(roomID, user); err == nil {
			evt := codec.NewObject()
			evt.Put(ParamRoomID, codec.NewInt(int32(roomID)))
			evt.Put("user", codec.NewString(player.Canonical()))
			p.broadcastEvent(r, EventUserLeaveRoom, evt)
		}
	}

	_ = p.sessions.BindRoom(sess.ID(), 0, false)
	return true
}

func (p *Processor) handleSetUserVars(sess *session.Session, msg codec.Message) error {
	player, err := p.loggedInPlayer(sess)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeGeneric, "not logged in")
	}
	roomID, hasRoom := sess.RoomID()
	if !hasRoom {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "not in a room")
	}

	ready, err := paramBool(paramsOf(msg), ParamReady)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "missing ready flag")
	}

	user := combinedFor(sess, player)
	if err := p.rooms.SetReady(roomID, user, ready); err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, err.Error())
	}

	r, err := p.rooms.Get(roomID)
	if err != nil {
		return err
	}

	evt := codec.NewObject()
	evt.Put(ParamRoomID, codec.NewInt(int32(roomID)))
	evt.Put("user", codec.NewString(player.Canonical()))
	evt.Put(ParamReady, codec.NewBool(ready))
	p.broadcastEvent(r, EventUserVariablesUpdate, evt)
	return nil
}

// handlePublicMsg relays a chat line from one room member to every
// member, including the sender (spec §4.6's extension/system dispatch
// covers any controller-0 action identified by (controller, action),
// and PUBLIC_MSG is one of the pinned SystemRequest ids, see C9).
func (p *Processor) handlePublicMsg(sess *session.Session, msg codec.Message) error {
	player, err := p.loggedInPlayer(sess)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeGeneric, "not logged in")
	}
	roomID, hasRoom := sess.RoomID()
	if !hasRoom {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "not in a room")
	}

	text, err := paramString(paramsOf(msg), ParamMessage)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "missing message")
	}

	r, err := p.rooms.Get(roomID)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "not in a room")
	}

	evt := codec.NewObject()
	evt.Put(ParamRoomID, codec.NewInt(int32(roomID)))
	evt.Put("user", codec.NewString(player.Canonical()))
	evt.Put(ParamMessage, codec.NewString(text))
	p.broadcastEvent(r, EventPublicMsg, evt)
	return nil
}

func (p *Processor) handleSetRoomVars(sess *session.Session, msg codec.Message) error {
	player, err := p.loggedInPlayer(sess)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeGeneric, "not logged in")
	}
	roomID, hasRoom := sess.RoomID()
	if !hasRoom {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "not in a room")
	}

	params := paramsOf(msg)
	settingsVal, err := paramValue(params, ParamSettings)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "missing settings")
	}
	st, err := settings.FromTuple(settingsVal)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "invalid settings")
	}

	if err := p.rooms.UpdateSettings(roomID, st, player); err != nil {
		if errors.Is(err, room.ErrNotOwner) {
			return p.sendError(sess.ID(), msg.Action, ErrCodeNotOwner, "not owner")
		}
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, err.Error())
	}

	r, err := p.rooms.Get(roomID)
	if err != nil {
		return err
	}
	p.broadcastEvent(r, EventRoomVariablesUpdate, roomEventParams(r))
	return nil
}

func (p *Processor) handleStartGame(sess *session.Session, msg codec.Message) error {
	player, err := p.loggedInPlayer(sess)
	if err != nil {
		return p.sendError(sess.ID(), msg.Action, ErrCodeGeneric, "not logged in")
	}
	roomID, hasRoom := sess.RoomID()
	if !hasRoom {
		return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, "not in a room")
	}

	token, err := p.rooms.StartGame(roomID, player)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrNotOwner):
			return p.sendError(sess.ID(), msg.Action, ErrCodeNotOwner, "not owner")
		case errors.Is(err, room.ErrNotReady):
			return p.sendError(sess.ID(), msg.Action, ErrCodeNotReady, "not every member is ready")
		default:
			return p.sendError(sess.ID(), msg.Action, ErrCodeInvalidData, err.Error())
		}
	}

	r, err := p.rooms.Get(roomID)
	if err != nil {
		return err
	}

	evt := codec.NewObject()
	evt.Put(ParamRoomID, codec.NewInt(int32(roomID)))
	evt.Put(ParamRoomToken, codec.NewString(token))
	p.broadcastEvent(r, EventGameStart, evt)
	return nil
}

func roomEventParams(r *room.Room) *codec.Object {
	return roomSnapshotObject(r.Snapshot())
}

// broadcastEvent fans an event out to every member of r's session,
// taking a snapshot of membership under the room's own lock (via
// Members) and releasing it before performing the independent
// per-session enqueues, per spec §5's room→session lock order.
func (p *Processor) broadcastEvent(r *room.Room, action int16, params *codec.Object) {
	for _, member := range r.Members() {
		targetSessionID := member.Player.ID
		msg := codec.Message{Controller: ControllerSystem, Action: action, Params: params}
		if err := p.send(targetSessionID, msg); err != nil {
			p.log.Warn("fan-out enqueue failed", "room_id", r.ID(), "session_id", targetSessionID, "err", err)
		}
	}
}

func (p *Processor) send(sessionID string, msg codec.Message) error {
	raw := codec.EncodeMessage(msg)
	frame := codec.EncodeBlueBoxFrame(raw)
	return p.sessions.Enqueue(sessionID, frame)
}

func (p *Processor) sendError(sessionID string, action int16, code int16, message string) error {
	obj := codec.NewObject()
	obj.Put(ParamErrorCode, codec.NewShort(code))
	obj.Put(ParamErrorMsg, codec.NewString(message))
	return p.send(sessionID, codec.Message{Controller: ControllerSystem, Action: action, Params: obj})
}
