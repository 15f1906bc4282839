package api

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Request is one of the closed set of member requests.
type Request interface {
	Event() Event
}

type (
	CreateRequest struct{ Name string }
	JoinRequest   struct {
		RoomID string
		Name   string
	}
	LeaveRequest      struct{}
	SyncUsersRequest  struct{}
	SyncCodeRequest   struct{}
	UpdateCodeRequest struct {
		Op EditOp
		// the op exactly as it came, relayed untouched
		Raw json.RawMessage
	}
	UpdateCursorRequest struct{ Cursor Cursor }
	SyncLangRequest     struct{}
	UpdateLangRequest   struct{ LangID string }
	SyncNoteRequest     struct{}
	UpdateNoteRequest   struct{ Note string }
	ExecRequest         struct{ IsExecuting bool }
	UpdateTermRequest   struct{ Result json.RawMessage }
	StreamReadyRequest  struct{}
	SignalRequest       struct {
		Signal json.RawMessage
		// optional, all other members get the signal without it
		Target string
	}
	CameraOffRequest    struct{}
	MicStateRequest     struct{ On bool }
	SpeakerStateRequest struct{ On bool }
)

func (CreateRequest) Event() Event       { return Create }
func (JoinRequest) Event() Event         { return Join }
func (LeaveRequest) Event() Event        { return Leave }
func (SyncUsersRequest) Event() Event    { return SyncUsers }
func (SyncCodeRequest) Event() Event     { return SyncCode }
func (UpdateCodeRequest) Event() Event   { return UpdateCode }
func (UpdateCursorRequest) Event() Event { return UpdateCursor }
func (SyncLangRequest) Event() Event     { return SyncLang }
func (UpdateLangRequest) Event() Event   { return UpdateLang }
func (SyncNoteRequest) Event() Event     { return SyncNote }
func (UpdateNoteRequest) Event() Event   { return UpdateNote }
func (ExecRequest) Event() Event         { return Exec }
func (UpdateTermRequest) Event() Event   { return UpdateTerm }
func (StreamReadyRequest) Event() Event  { return StreamReady }
func (SignalRequest) Event() Event       { return Signal }
func (CameraOffRequest) Event() Event    { return CameraOff }
func (MicStateRequest) Event() Event     { return MicState }
func (SpeakerStateRequest) Event() Event { return SpeakerState }

// Decode unwraps the packet into its typed request.
// Nothing is accepted partially: any shape mismatch is ErrMalformed.
func Decode(in In) (Request, error) {
	args, err := in.args()
	if err != nil {
		return nil, err
	}
	switch in.T {
	case Create:
		var rq CreateRequest
		err = unpack(args, 1, &rq.Name)
		return rq, err
	case Join:
		var rq JoinRequest
		err = unpack(args, 2, &rq.RoomID, &rq.Name)
		return rq, err
	case Leave:
		return LeaveRequest{}, nil
	case SyncUsers:
		return SyncUsersRequest{}, nil
	case SyncCode:
		return SyncCodeRequest{}, nil
	case UpdateCode:
		var rq UpdateCodeRequest
		rq.Raw = tuple(in.Payload, args)
		if err = strictUnmarshal(rq.Raw, &rq.Op); err != nil {
			return nil, err
		}
		return rq, nil
	case UpdateCursor:
		var rq UpdateCursorRequest
		if err = strictUnmarshal(tuple(in.Payload, args), &rq.Cursor); err != nil {
			return nil, err
		}
		return rq, nil
	case SyncLang:
		return SyncLangRequest{}, nil
	case UpdateLang:
		var rq UpdateLangRequest
		if err = unpack(args, 1, &rq.LangID); err == nil && rq.LangID == "" {
			err = malformed("empty language")
		}
		return rq, err
	case SyncNote:
		return SyncNoteRequest{}, nil
	case UpdateNote:
		var rq UpdateNoteRequest
		err = unpack(args, 1, &rq.Note)
		return rq, err
	case Exec:
		var rq ExecRequest
		err = unpack(args, 1, &rq.IsExecuting)
		return rq, err
	case UpdateTerm:
		if len(args) < 1 || !IsObject(args[0]) {
			return nil, malformed("execution result should be an object")
		}
		return UpdateTermRequest{Result: args[0]}, nil
	case StreamReady:
		return StreamReadyRequest{}, nil
	case Signal:
		if len(args) < 1 || isNull(args[0]) || !json.Valid(args[0]) {
			return nil, malformed("no signal")
		}
		rq := SignalRequest{Signal: args[0]}
		if len(args) > 1 && !isNull(args[1]) {
			if err = strictUnmarshal(args[1], &rq.Target); err != nil {
				return nil, err
			}
		}
		return rq, nil
	case CameraOff:
		return CameraOffRequest{}, nil
	case MicState:
		var rq MicStateRequest
		err = unpack(args, 1, &rq.On)
		return rq, err
	case SpeakerState:
		var rq SpeakerStateRequest
		err = unpack(args, 1, &rq.On)
		return rq, err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, in.T)
	}
}

// unpack decodes the first n required arguments into dst.
func unpack(args []json.RawMessage, n int, dst ...any) error {
	if len(args) < n {
		return malformed(fmt.Sprintf("expected %v arguments, got %v", n, len(args)))
	}
	for i, d := range dst {
		if i >= len(args) {
			break
		}
		if err := strictUnmarshal(args[i], d); err != nil {
			return err
		}
	}
	return nil
}

// tuple picks the array argument of a single-tuple event.
// Clients may send the tuple either wrapped, p=[[…]], or bare, p=[…].
func tuple(payload json.RawMessage, args []json.RawMessage) json.RawMessage {
	if len(args) > 0 {
		if first := bytes.TrimSpace(args[0]); len(first) > 0 && first[0] == '[' {
			return first
		}
	}
	return bytes.TrimSpace(payload)
}

func strictUnmarshal(data json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(data)) == 0 || isNull(data) {
		return malformed("null value")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return malformed(err)
	}
	return nil
}
