// Package lobby implements the message processor (spec §3, §4.6): it
// dispatches decoded top-level requests to the session and room
// registries and synthesizes the response/event frames those mutations
// produce.
package lobby

// Controller ids, pinned from the SFS2X 1.7.x client library's
// well-known SystemRequest controller split.
const (
	ControllerSystem    int16 = 0
	ControllerExtension int16 = 1
)

// System action ids (client → server), pinned from the same library.
const (
	ActionHandshake    int16 = 0
	ActionLogin        int16 = 1
	ActionLogout       int16 = 2
	ActionGetRoomList  int16 = 3
	ActionJoinRoom     int16 = 4
	ActionCreateRoom   int16 = 7
	ActionLeaveRoom    int16 = 9
	ActionSetRoomVars  int16 = 13
	ActionPublicMsg    int16 = 15
	ActionPingPong     int16 = 19
	ActionSetUserVars  int16 = 23
)

// Event action ids (server → client), a disjoint range reserved for
// this server's synthesized room events.
const (
	EventRoomAdd             int16 = 101
	EventRoomRemove          int16 = 102
	EventUserJoinRoom        int16 = 103
	EventUserLeaveRoom       int16 = 104
	EventUserVariablesUpdate int16 = 105
	EventRoomVariablesUpdate int16 = 106
	EventGameStart           int16 = 107
	EventPublicMsg           int16 = 108
)

// SFS2X error-response codes, carried in error-response frames (spec §7).
const (
	ErrCodeGeneric          int16 = 0
	ErrCodeLoginBadUsername int16 = 4
	ErrCodeJoinRoomFull     int16 = 10
	ErrCodeJoinPwdMismatch  int16 = 11
	ErrCodeJoinRoomNotFound int16 = 12
	ErrCodeInvalidData      int16 = 13
	ErrCodeNotOwner         int16 = 14
	ErrCodeNotReady         int16 = 15
)

// Extension command names, carried in the "cmd" parameter of a
// controller-1 message.
const (
	CmdStartGame = "startGame"
)

// Parameter keys used inside a message's "p" SFS_OBJECT. None of these
// are enumerated by the client library's reflection tooling, so they
// are chosen here for legibility; an unmodified client only cares
// about the top-level "c"/"a"/"p"/"r" framing (spec §4.1), not these
// inner names.
const (
	ParamUsername   = "name"
	ParamCmd        = "cmd"
	ParamSettings   = "s"
	ParamPassword   = "pw"
	ParamRoomID     = "id"
	ParamReady      = "f"
	ParamGroup      = "g"
	ParamSessionTok = "tok"
	ParamCompThresh = "ct"
	ParamEncThresh  = "et"
	ParamServerTime = "st"
	ParamUser       = "u"
	ParamRooms      = "rl"
	ParamRoomToken  = "rt"
	ParamErrorCode  = "ec"
	ParamErrorMsg   = "em"
	ParamMessage    = "m"
)

// DefaultGroup is the room group used when a request omits one.
const DefaultGroup = "lobbies"
