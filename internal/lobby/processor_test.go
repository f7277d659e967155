package lobby

import (
	"testing"
	"time"

	"github.com/race/lobbyserver/internal/codec"
	"github.com/race/lobbyserver/internal/identity"
	"github.com/race/lobbyserver/internal/logger"
	"github.com/race/lobbyserver/internal/room"
	"github.com/race/lobbyserver/internal/session"
	"github.com/race/lobbyserver/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newHarness(t *testing.T) (*Processor, *session.Registry, *room.Registry, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sessions := session.NewRegistry(clock, logger.Nop())
	rooms := room.NewRegistry(clock, logger.Nop())
	p := NewProcessor(sessions, rooms, clock, logger.Nop())
	return p, sessions, rooms, clock
}

func newConnectedSession(t *testing.T, sessions *session.Registry) *session.Session {
	t.Helper()
	sess, err := sessions.Create("127.0.0.1")
	require.NoError(t, err)
	return sess
}

// drainOne pops the single oldest queued frame for sessionID, requiring
// one to be present, and decodes it back into a Message.
func drainOne(t *testing.T, sessions *session.Registry, sessionID string) codec.Message {
	t.Helper()
	frame, ok, err := sessions.Poll(sessionID)
	require.NoError(t, err)
	require.True(t, ok, "expected a queued frame")
	return decodeFrame(t, frame)
}

// drainAll pops every queued frame for sessionID in FIFO order.
func drainAll(t *testing.T, sessions *session.Registry, sessionID string) []codec.Message {
	t.Helper()
	var out []codec.Message
	for {
		frame, ok, err := sessions.Poll(sessionID)
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, decodeFrame(t, frame))
	}
}

func decodeFrame(t *testing.T, frameB64 string) codec.Message {
	t.Helper()
	raw, err := codec.DecodeBlueBoxFrame(frameB64, 1<<20)
	require.NoError(t, err)
	msg, err := codec.DecodeMessage(raw)
	require.NoError(t, err)
	return msg
}

func loginMsg(username string) codec.Message {
	params := codec.NewObject()
	params.Put(ParamUsername, codec.NewString(username))
	return codec.Message{Controller: ControllerSystem, Action: ActionLogin, Params: params}
}

func twoSeatSettings(name string) settings.Settings {
	st := settings.Defaults(name)
	st.HumanHQInvalid = make([]bool, 2)
	return st
}

func createRoomMsg(st settings.Settings, password string) codec.Message {
	params := codec.NewObject()
	params.Put(ParamSettings, settings.ToTuple(st))
	if password != "" {
		params.Put(ParamPassword, codec.NewString(password))
	}
	return codec.Message{Controller: ControllerSystem, Action: ActionCreateRoom, Params: params}
}

func joinRoomMsg(roomID int64, password string) codec.Message {
	params := codec.NewObject()
	params.Put(ParamRoomID, codec.NewInt(int32(roomID)))
	if password != "" {
		params.Put(ParamPassword, codec.NewString(password))
	}
	return codec.Message{Controller: ControllerSystem, Action: ActionJoinRoom, Params: params}
}

func setReadyMsg(ready bool) codec.Message {
	params := codec.NewObject()
	params.Put(ParamReady, codec.NewBool(ready))
	return codec.Message{Controller: ControllerSystem, Action: ActionSetUserVars, Params: params}
}

func publicMsg(text string) codec.Message {
	params := codec.NewObject()
	params.Put(ParamMessage, codec.NewString(text))
	return codec.Message{Controller: ControllerSystem, Action: ActionPublicMsg, Params: params}
}

func startGameMsg() codec.Message {
	params := codec.NewObject()
	params.Put(ParamCmd, codec.NewString(CmdStartGame))
	return codec.Message{Controller: ControllerExtension, Action: 50, Params: params}
}

func errorCodeOf(t *testing.T, msg codec.Message) int16 {
	t.Helper()
	v, ok := msg.Params.Get(ParamErrorCode)
	require.True(t, ok, "expected error-code param")
	code, err := v.Short()
	require.NoError(t, err)
	return code
}

func TestHandle_UnknownSession(t *testing.T) {
	p, _, _, _ := newHarness(t)
	err := p.Handle("SESS_DOESNOTEXIST", codec.Message{Controller: ControllerSystem, Action: ActionPingPong, Params: codec.NewObject()})
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestHandle_UnknownController(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	sess := newConnectedSession(t, sessions)

	err := p.Handle(sess.ID(), codec.Message{Controller: 99, Action: 1, Params: codec.NewObject()})
	require.NoError(t, err)

	resp := drainOne(t, sessions, sess.ID())
	assert.Equal(t, ErrCodeInvalidData, errorCodeOf(t, resp))
}

func TestHandshake_ReturnsSessionToken(t *testing.T) {
	p, sessions, _, clock := newHarness(t)
	sess := newConnectedSession(t, sessions)

	require.NoError(t, p.Handle(sess.ID(), codec.Message{Controller: ControllerSystem, Action: ActionHandshake, Params: codec.NewObject()}))

	resp := drainOne(t, sessions, sess.ID())
	assert.Equal(t, ActionHandshake, resp.Action)
	tokVal, ok := resp.Params.Get(ParamSessionTok)
	require.True(t, ok)
	tok, err := tokVal.String()
	require.NoError(t, err)
	assert.Equal(t, sess.ID(), tok)

	stVal, ok := resp.Params.Get(ParamServerTime)
	require.True(t, ok)
	st, err := stVal.Long()
	require.NoError(t, err)
	assert.Equal(t, clock.Now().UnixMilli(), st)
}

func TestLogin_Success(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	sess := newConnectedSession(t, sessions)

	require.NoError(t, p.Handle(sess.ID(), loginMsg("alice")))

	resp := drainOne(t, sessions, sess.ID())
	assert.Equal(t, ActionLogin, resp.Action)

	player, ok := sess.Player()
	require.True(t, ok)
	assert.Equal(t, "alice", player.DisplayName)
	assert.Equal(t, sess.ID(), player.ID)
}

func TestLogin_EmptyUsernameRejected(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	sess := newConnectedSession(t, sessions)

	require.NoError(t, p.Handle(sess.ID(), loginMsg("")))

	resp := drainOne(t, sessions, sess.ID())
	assert.Equal(t, ErrCodeLoginBadUsername, errorCodeOf(t, resp))
	_, ok := sess.Player()
	assert.False(t, ok)
}

func TestLogin_AlreadyLoggedInRejected(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	sess := newConnectedSession(t, sessions)

	require.NoError(t, p.Handle(sess.ID(), loginMsg("alice")))
	drainOne(t, sessions, sess.ID())

	require.NoError(t, p.Handle(sess.ID(), loginMsg("alice-again")))
	resp := drainOne(t, sessions, sess.ID())
	assert.Equal(t, ErrCodeGeneric, errorCodeOf(t, resp))
}

func TestCreateRoom_RequiresLogin(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	sess := newConnectedSession(t, sessions)

	require.NoError(t, p.Handle(sess.ID(), createRoomMsg(twoSeatSettings("r1"), "")))
	resp := drainOne(t, sessions, sess.ID())
	assert.Equal(t, ErrCodeGeneric, errorCodeOf(t, resp))
}

func TestCreateRoom_Success(t *testing.T) {
	p, sessions, rooms, _ := newHarness(t)
	sess := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(sess.ID(), loginMsg("alice")))
	drainOne(t, sessions, sess.ID())

	require.NoError(t, p.Handle(sess.ID(), createRoomMsg(twoSeatSettings("r1"), "")))

	resp := drainOne(t, sessions, sess.ID())
	assert.Equal(t, ActionCreateRoom, resp.Action)
	idVal, ok := resp.Params.Get(ParamRoomID)
	require.True(t, ok)
	roomID, err := idVal.Int()
	require.NoError(t, err)

	_, err = rooms.Get(int64(roomID))
	require.NoError(t, err)

	boundID, hasRoom := sess.RoomID()
	require.True(t, hasRoom)
	assert.Equal(t, int64(roomID), boundID)
}

func TestCreateRoom_InvalidSettingsRejected(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	sess := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(sess.ID(), loginMsg("alice")))
	drainOne(t, sessions, sess.ID())

	st := twoSeatSettings("r1")
	st.HumanHQInvalid = make([]bool, 1) // below the [2,10] floor

	require.NoError(t, p.Handle(sess.ID(), createRoomMsg(st, "")))
	resp := drainOne(t, sessions, sess.ID())
	assert.Equal(t, ErrCodeInvalidData, errorCodeOf(t, resp))
}

func TestCreateRoom_DuplicateActiveRoomRejected(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	sess := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(sess.ID(), loginMsg("alice")))
	drainOne(t, sessions, sess.ID())

	require.NoError(t, p.Handle(sess.ID(), createRoomMsg(twoSeatSettings("r1"), "")))
	drainOne(t, sessions, sess.ID())
	assert.Equal(t, EventRoomAdd, drainOne(t, sessions, sess.ID()).Action)

	require.NoError(t, p.Handle(sess.ID(), createRoomMsg(twoSeatSettings("r2"), "")))
	resp := drainOne(t, sessions, sess.ID())
	assert.Equal(t, ErrCodeInvalidData, errorCodeOf(t, resp))
}

// loginAndCreateRoom logs a fresh session in and has it create a
// two-seat room, returning the new room's id. The create response and
// the room-add event it fans out to the creator are both drained.
func loginAndCreateRoom(t *testing.T, p *Processor, sessions *session.Registry, username, password string) (*session.Session, int64) {
	t.Helper()
	sess := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(sess.ID(), loginMsg(username)))
	drainOne(t, sessions, sess.ID())

	require.NoError(t, p.Handle(sess.ID(), createRoomMsg(twoSeatSettings("r"), password)))
	resp := drainOne(t, sessions, sess.ID())
	idVal, _ := resp.Params.Get(ParamRoomID)
	roomID, err := idVal.Int()
	require.NoError(t, err)
	assert.Equal(t, EventRoomAdd, drainOne(t, sessions, sess.ID()).Action)
	return sess, int64(roomID)
}

func TestJoinRoom_SuccessFansOutToOwner(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	owner, roomID := loginAndCreateRoom(t, p, sessions, "alice", "")

	joiner := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(joiner.ID(), loginMsg("bob")))
	drainOne(t, sessions, joiner.ID())

	require.NoError(t, p.Handle(joiner.ID(), joinRoomMsg(roomID, "")))

	joinerResp := drainOne(t, sessions, joiner.ID())
	assert.Equal(t, ActionJoinRoom, joinerResp.Action)

	ownerEvts := drainAll(t, sessions, owner.ID())
	require.Len(t, ownerEvts, 1)
	assert.Equal(t, EventUserJoinRoom, ownerEvts[0].Action)
}

func TestJoinRoom_Full(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	_, roomID := loginAndCreateRoom(t, p, sessions, "alice", "")

	bob := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(bob.ID(), loginMsg("bob")))
	drainOne(t, sessions, bob.ID())
	require.NoError(t, p.Handle(bob.ID(), joinRoomMsg(roomID, "")))
	drainOne(t, sessions, bob.ID())

	carol := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(carol.ID(), loginMsg("carol")))
	drainOne(t, sessions, carol.ID())
	require.NoError(t, p.Handle(carol.ID(), joinRoomMsg(roomID, "")))

	resp := drainOne(t, sessions, carol.ID())
	assert.Equal(t, ErrCodeJoinRoomFull, errorCodeOf(t, resp))
}

func TestJoinRoom_PasswordMismatch(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	_, roomID := loginAndCreateRoom(t, p, sessions, "alice", "secret")

	bob := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(bob.ID(), loginMsg("bob")))
	drainOne(t, sessions, bob.ID())
	require.NoError(t, p.Handle(bob.ID(), joinRoomMsg(roomID, "wrong")))

	resp := drainOne(t, sessions, bob.ID())
	assert.Equal(t, ErrCodeJoinPwdMismatch, errorCodeOf(t, resp))
}

func TestJoinRoom_NotFound(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	sess := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(sess.ID(), loginMsg("alice")))
	drainOne(t, sessions, sess.ID())

	require.NoError(t, p.Handle(sess.ID(), joinRoomMsg(9999, "")))
	resp := drainOne(t, sessions, sess.ID())
	assert.Equal(t, ErrCodeJoinRoomNotFound, errorCodeOf(t, resp))
}

func TestLeaveRoom_TransfersOwnershipAndFansOut(t *testing.T) {
	p, sessions, rooms, _ := newHarness(t)
	owner, roomID := loginAndCreateRoom(t, p, sessions, "alice", "")

	bob := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(bob.ID(), loginMsg("bob")))
	drainOne(t, sessions, bob.ID())
	require.NoError(t, p.Handle(bob.ID(), joinRoomMsg(roomID, "")))
	drainOne(t, sessions, bob.ID())
	drainOne(t, sessions, owner.ID()) // EventUserJoinRoom

	require.NoError(t, p.Handle(owner.ID(), codec.Message{Controller: ControllerSystem, Action: ActionLeaveRoom, Params: codec.NewObject()}))
	ownerResp := drainOne(t, sessions, owner.ID())
	assert.Equal(t, ActionLeaveRoom, ownerResp.Action)

	bobEvts := drainAll(t, sessions, bob.ID())
	require.Len(t, bobEvts, 1)
	assert.Equal(t, EventUserLeaveRoom, bobEvts[0].Action)

	r, err := rooms.Get(roomID)
	require.NoError(t, err)
	snap := r.Snapshot()
	assert.True(t, snap.Owner.Equal(mustPlayer(t, sessions, bob.ID())))
}

func mustPlayer(t *testing.T, sessions *session.Registry, sessionID string) identity.PlayerID {
	t.Helper()
	sess, err := sessions.Get(sessionID)
	require.NoError(t, err)
	p, ok := sess.Player()
	require.True(t, ok)
	return p
}

func TestLeaveRoom_LastMemberRemovesRoom(t *testing.T) {
	p, sessions, rooms, _ := newHarness(t)
	owner, roomID := loginAndCreateRoom(t, p, sessions, "alice", "")

	require.NoError(t, p.Handle(owner.ID(), codec.Message{Controller: ControllerSystem, Action: ActionLeaveRoom, Params: codec.NewObject()}))
	drainOne(t, sessions, owner.ID())

	_, err := rooms.Get(roomID)
	assert.Error(t, err)
}

func TestSetUserVars_BroadcastsReadyState(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	owner, roomID := loginAndCreateRoom(t, p, sessions, "alice", "")

	bob := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(bob.ID(), loginMsg("bob")))
	drainOne(t, sessions, bob.ID())
	require.NoError(t, p.Handle(bob.ID(), joinRoomMsg(roomID, "")))
	drainOne(t, sessions, bob.ID())
	drainOne(t, sessions, owner.ID())

	require.NoError(t, p.Handle(bob.ID(), setReadyMsg(true)))
	bobResp := drainOne(t, sessions, bob.ID())
	assert.Equal(t, EventUserVariablesUpdate, bobResp.Action)

	ownerEvts := drainAll(t, sessions, owner.ID())
	require.Len(t, ownerEvts, 1)
	assert.Equal(t, EventUserVariablesUpdate, ownerEvts[0].Action)
}

func TestPublicMsg_BroadcastsToAllMembersIncludingSender(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	owner, roomID := loginAndCreateRoom(t, p, sessions, "alice", "")

	bob := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(bob.ID(), loginMsg("bob")))
	drainOne(t, sessions, bob.ID())
	require.NoError(t, p.Handle(bob.ID(), joinRoomMsg(roomID, "")))
	drainOne(t, sessions, bob.ID())
	drainOne(t, sessions, owner.ID())

	require.NoError(t, p.Handle(bob.ID(), publicMsg("hello room")))

	bobEvts := drainAll(t, sessions, bob.ID())
	require.Len(t, bobEvts, 1)
	assert.Equal(t, EventPublicMsg, bobEvts[0].Action)
	textVal, ok := bobEvts[0].Params.Get(ParamMessage)
	require.True(t, ok)
	text, err := textVal.String()
	require.NoError(t, err)
	assert.Equal(t, "hello room", text)

	ownerEvts := drainAll(t, sessions, owner.ID())
	require.Len(t, ownerEvts, 1)
	assert.Equal(t, EventPublicMsg, ownerEvts[0].Action)
}

func TestPublicMsg_RequiresRoom(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	sess := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(sess.ID(), loginMsg("alice")))
	drainOne(t, sessions, sess.ID())

	require.NoError(t, p.Handle(sess.ID(), publicMsg("hi")))
	resp := drainOne(t, sessions, sess.ID())
	assert.Equal(t, ErrCodeInvalidData, errorCodeOf(t, resp))
}

func TestSetRoomVars_NotOwnerRejected(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	_, roomID := loginAndCreateRoom(t, p, sessions, "alice", "")

	bob := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(bob.ID(), loginMsg("bob")))
	drainOne(t, sessions, bob.ID())
	require.NoError(t, p.Handle(bob.ID(), joinRoomMsg(roomID, "")))
	drainOne(t, sessions, bob.ID())

	params := codec.NewObject()
	params.Put(ParamSettings, settings.ToTuple(twoSeatSettings("renamed")))
	msg := codec.Message{Controller: ControllerSystem, Action: ActionSetRoomVars, Params: params}

	require.NoError(t, p.Handle(bob.ID(), msg))
	resp := drainOne(t, sessions, bob.ID())
	assert.Equal(t, ErrCodeNotOwner, errorCodeOf(t, resp))
}

func TestSetRoomVars_OwnerSuccess(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	owner, roomID := loginAndCreateRoom(t, p, sessions, "alice", "")
	_ = roomID

	params := codec.NewObject()
	params.Put(ParamSettings, settings.ToTuple(twoSeatSettings("renamed")))
	msg := codec.Message{Controller: ControllerSystem, Action: ActionSetRoomVars, Params: params}

	require.NoError(t, p.Handle(owner.ID(), msg))
	resp := drainOne(t, sessions, owner.ID())
	assert.Equal(t, EventRoomVariablesUpdate, resp.Action)
}

func TestStartGame_NotReadyRejected(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	owner, roomID := loginAndCreateRoom(t, p, sessions, "alice", "")

	bob := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(bob.ID(), loginMsg("bob")))
	drainOne(t, sessions, bob.ID())
	require.NoError(t, p.Handle(bob.ID(), joinRoomMsg(roomID, "")))
	drainOne(t, sessions, bob.ID())
	drainOne(t, sessions, owner.ID())

	require.NoError(t, p.Handle(owner.ID(), startGameMsg()))
	resp := drainOne(t, sessions, owner.ID())
	assert.Equal(t, ErrCodeNotReady, errorCodeOf(t, resp))
}

func TestStartGame_NotOwnerRejected(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	_, roomID := loginAndCreateRoom(t, p, sessions, "alice", "")

	bob := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(bob.ID(), loginMsg("bob")))
	drainOne(t, sessions, bob.ID())
	require.NoError(t, p.Handle(bob.ID(), joinRoomMsg(roomID, "")))
	drainOne(t, sessions, bob.ID())

	require.NoError(t, p.Handle(bob.ID(), startGameMsg()))
	resp := drainOne(t, sessions, bob.ID())
	assert.Equal(t, ErrCodeNotOwner, errorCodeOf(t, resp))
}

func TestStartGame_SuccessBroadcastsTokenToAllMembers(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	owner, roomID := loginAndCreateRoom(t, p, sessions, "alice", "")

	bob := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(bob.ID(), loginMsg("bob")))
	drainOne(t, sessions, bob.ID())
	require.NoError(t, p.Handle(bob.ID(), joinRoomMsg(roomID, "")))
	drainOne(t, sessions, bob.ID())
	drainOne(t, sessions, owner.ID())

	require.NoError(t, p.Handle(bob.ID(), setReadyMsg(true)))
	drainOne(t, sessions, bob.ID())
	drainOne(t, sessions, owner.ID())

	require.NoError(t, p.Handle(owner.ID(), startGameMsg()))

	ownerEvts := drainAll(t, sessions, owner.ID())
	require.Len(t, ownerEvts, 1)
	assert.Equal(t, EventGameStart, ownerEvts[0].Action)
	tokVal, ok := ownerEvts[0].Params.Get(ParamRoomToken)
	require.True(t, ok)
	tok, err := tokVal.String()
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	bobEvts := drainAll(t, sessions, bob.ID())
	require.Len(t, bobEvts, 1)
	assert.Equal(t, EventGameStart, bobEvts[0].Action)
}

func TestLogout_LeavesRoomAndRemovesSession(t *testing.T) {
	p, sessions, rooms, _ := newHarness(t)
	owner, roomID := loginAndCreateRoom(t, p, sessions, "alice", "")

	require.NoError(t, p.Handle(owner.ID(), codec.Message{Controller: ControllerSystem, Action: ActionLogout, Params: codec.NewObject()}))

	_, err := sessions.Get(owner.ID())
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = rooms.Get(roomID)
	assert.Error(t, err)
}

func TestPing_RoundTrip(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	sess := newConnectedSession(t, sessions)

	require.NoError(t, p.Handle(sess.ID(), codec.Message{Controller: ControllerSystem, Action: ActionPingPong, Params: codec.NewObject()}))
	resp := drainOne(t, sessions, sess.ID())
	assert.Equal(t, ActionPingPong, resp.Action)
}

func TestGetRoomList_ReturnsJoinableRooms(t *testing.T) {
	p, sessions, _, _ := newHarness(t)
	_, roomID := loginAndCreateRoom(t, p, sessions, "alice", "")

	viewer := newConnectedSession(t, sessions)
	require.NoError(t, p.Handle(viewer.ID(), loginMsg("viewer")))
	drainOne(t, sessions, viewer.ID())

	require.NoError(t, p.Handle(viewer.ID(), codec.Message{Controller: ControllerSystem, Action: ActionGetRoomList, Params: codec.NewObject()}))
	resp := drainOne(t, sessions, viewer.ID())

	listVal, ok := resp.Params.Get(ParamRooms)
	require.True(t, ok)
	rooms, err := listVal.SFSArray()
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	roomObj, err := rooms[0].SFSObject()
	require.NoError(t, err)
	idVal, ok := roomObj.Get(ParamRoomID)
	require.True(t, ok)
	id, err := idVal.Int()
	require.NoError(t, err)
	assert.Equal(t, int32(roomID), id)
}
