package api

import (
	"errors"
	"fmt"
)

type ErrCode string

const (
	RoomNotFound     ErrCode = "RoomNotFound"
	NotInRoom        ErrCode = "NotInRoom"
	MalformedPayload ErrCode = "MalformedPayload"
	UnknownEvent     ErrCode = "UnknownEvent"
	PeerRelayFailure ErrCode = "PeerRelayFailure"
	InternalError    ErrCode = "InternalError"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotInRoom    = errors.New("not in a room")
	ErrMalformed    = errors.New("malformed payload")
	ErrUnknownEvent = errors.New("unknown event")
	ErrPeerGone     = errors.New("no such peer")
)

type ErrorPayload struct {
	Code    ErrCode `json:"code"`
	Event   Event   `json:"event,omitempty"`
	Message string  `json:"message"`
}

// CodeOf maps an error onto its wire code.
func CodeOf(err error) ErrCode {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return RoomNotFound
	case errors.Is(err, ErrNotInRoom):
		return NotInRoom
	case errors.Is(err, ErrMalformed):
		return MalformedPayload
	case errors.Is(err, ErrUnknownEvent):
		return UnknownEvent
	case errors.Is(err, ErrPeerGone):
		return PeerRelayFailure
	default:
		return InternalError
	}
}

// ErrorPacket makes an error reply for the failed request.
func ErrorPacket(in In, err error) Out {
	return Out{Id: in.Id, T: Error, Payload: []any{ErrorPayload{Code: CodeOf(err), Event: in.T, Message: err.Error()}}}
}

func malformed(reason any) error { return fmt.Errorf("%w: %v", ErrMalformed, reason) }
