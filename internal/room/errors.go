package room

import "errors"

// Sentinel error kinds surfaced to the message processor (spec §7), each
// translated to a distinct SFS2X error-response code at the wire layer.
var (
	ErrRoomNotFound        = errors.New("room: not found")
	ErrRoomFull            = errors.New("room: full")
	ErrRoomPasswordMismatch = errors.New("room: password mismatch")
	ErrRoomStarted         = errors.New("room: already started")
	ErrNotOwner            = errors.New("room: requester is not owner")
	ErrNotReady            = errors.New("room: not every member is ready")
	ErrNotMember           = errors.New("room: user is not a member")
	ErrInvalidSettings     = errors.New("room: invalid settings")
	ErrOwnerHasActiveRoom  = errors.New("room: owner already has a non-started room")
)
