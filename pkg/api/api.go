// Package api defines the messages exchanged between room members and the coordinator.
//
// Each message (request, reply and event) is a JSON-encoded "packet" of the following structure:
//
//	 t - (required) one of the predefined event names;
//	id - (optional) a request id, any JSON value, echoed back in the reply;
//	 p - (optional) the event arguments array.
//
// Replies reuse the event name of their request, failures come back
// as the error event with the id of the failed request.
//
// Example:
//
//	→ {"t":"join","id":7,"p":["k3Xq9TzA0b","Bob"]}
//	← {"t":"join","id":7,"p":[{"userID":"…","snapshot":{"code":"","languageID":"python",…}}]}
package api

import (
	"bytes"

	"github.com/goccy/go-json"
)

type Event string

// Member requests.
const (
	Create       Event = "create"
	Join         Event = "join"
	Leave        Event = "leave"
	SyncUsers    Event = "sync-users"
	SyncCode     Event = "sync-code"
	UpdateCode   Event = "update-code"
	UpdateCursor Event = "update-cursor"
	SyncLang     Event = "sync-lang"
	UpdateLang   Event = "update-lang"
	SyncNote     Event = "sync-md"
	UpdateNote   Event = "update-md"
	Exec         Event = "exec"
	UpdateTerm   Event = "update-term"
	StreamReady  Event = "stream-ready"
	Signal       Event = "signal"
	CameraOff    Event = "camera-off"
	MicState     Event = "mic-state"
	SpeakerState Event = "speaker-state"
)

// Coordinator notifications.
const (
	UserJoined Event = "user-joined"
	UserLeft   Event = "user-left"
	UserReady  Event = "user-ready"
	Error      Event = "error"
)

func (e Event) String() string { return string(e) }

type In struct {
	Id      json.RawMessage `json:"id,omitempty"`
	T       Event           `json:"t"`
	Payload json.RawMessage `json:"p,omitempty"`
}

type Out struct {
	Id      json.RawMessage `json:"id,omitempty"`
	T       Event           `json:"t"`
	Payload []any           `json:"p,omitempty"`
}

// HasId tells if the sender waits for a reply.
func (i In) HasId() bool { return len(i.Id) > 0 && !isNull(i.Id) }

// Reply makes a response packet for the request.
func Reply(in In, args ...any) Out { return Out{Id: in.Id, T: in.T, Payload: args} }

// Notify makes an untracked packet.
func Notify(e Event, args ...any) Out { return Out{T: e, Payload: args} }

func Encode(out Out) ([]byte, error) { return json.Marshal(out) }

func Parse(data []byte) (in In, err error) {
	if err = json.Unmarshal(data, &in); err != nil {
		return in, malformed(err)
	}
	if in.T == "" {
		return in, malformed("no event name")
	}
	return in, nil
}

// args splits the payload into the argument list.
// A payload that is not an array is a single argument.
func (i In) args() ([]json.RawMessage, error) {
	p := bytes.TrimSpace(i.Payload)
	if len(p) == 0 || isNull(p) {
		return nil, nil
	}
	if p[0] != '[' {
		return []json.RawMessage{p}, nil
	}
	var args []json.RawMessage
	if err := json.Unmarshal(p, &args); err != nil {
		return nil, malformed(err)
	}
	return args, nil
}

func isNull(b []byte) bool { return bytes.Equal(bytes.TrimSpace(b), []byte("null")) }
