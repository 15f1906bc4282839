package api

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/pion/webrtc/v3"
)

// EditOp replaces the text between two 1-based (line, column) positions.
// On the wire it is [text, startLine, startColumn, endLine, endColumn].
type EditOp struct {
	Text        string
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

func (op EditOp) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{op.Text, op.StartLine, op.StartColumn, op.EndLine, op.EndColumn})
}

func (op *EditOp) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return malformed(err)
	}
	if len(raw) != 5 {
		return malformed(fmt.Sprintf("edit op needs 5 values, got %v", len(raw)))
	}
	var v EditOp
	if err := strictUnmarshal(raw[0], &v.Text); err != nil {
		return err
	}
	for i, dst := range []*int{&v.StartLine, &v.StartColumn, &v.EndLine, &v.EndColumn} {
		if err := strictUnmarshal(raw[i+1], dst); err != nil {
			return err
		}
		if *dst < 1 {
			return malformed(fmt.Sprintf("edit op position %v is less than 1", *dst))
		}
	}
	if v.StartLine > v.EndLine || (v.StartLine == v.EndLine && v.StartColumn > v.EndColumn) {
		return malformed("edit op range ends before it starts")
	}
	*op = v
	return nil
}

// Cursor is either [line, column] or
// [line, column, startLine, startColumn, endLine, endColumn] with a selection.
type Cursor []int

func (c *Cursor) UnmarshalJSON(data []byte) error {
	var v []int
	if err := json.Unmarshal(data, &v); err != nil {
		return malformed(err)
	}
	if len(v) != 2 && len(v) != 6 {
		return malformed(fmt.Sprintf("cursor needs 2 or 6 values, got %v", len(v)))
	}
	for _, x := range v {
		if x < 1 {
			return malformed(fmt.Sprintf("cursor position %v is less than 1", x))
		}
	}
	*c = v
	return nil
}

func (c Cursor) HasSelection() bool { return len(c) == 6 }

type (
	// Member is a public summary of a room member.
	Member struct {
		UserID    string `json:"id"`
		Name      string `json:"name"`
		Cursor    Cursor `json:"cursor,omitempty"`
		MicOn     bool   `json:"micOn"`
		CameraOn  bool   `json:"cameraOn"`
		SpeakerOn bool   `json:"speakerOn"`
	}
	// Snapshot is the full state of a room shared fields.
	Snapshot struct {
		Code        string          `json:"code"`
		LanguageID  string          `json:"languageID"`
		Note        string          `json:"note"`
		IsExecuting bool            `json:"isExecuting"`
		Members     []Member        `json:"members"`
		Terminal    json.RawMessage `json:"terminal,omitempty"`
	}
	CodeState struct {
		Code       string `json:"code"`
		LanguageID string `json:"languageID"`
	}
	CreateResponse struct {
		RoomID string             `json:"roomID"`
		UserID string             `json:"userID"`
		Ice    []webrtc.ICEServer `json:"ice,omitempty"`
	}
	// JoinResponse is the reply to join. The snapshot members
	// include the joiner itself, same as in sync-users.
	JoinResponse struct {
		UserID   string             `json:"userID"`
		Snapshot Snapshot           `json:"snapshot"`
		Ice      []webrtc.ICEServer `json:"ice,omitempty"`
	}
	// SignalEnvelope is a relayed WebRTC signal tagged with its sender.
	SignalEnvelope struct {
		UserID string          `json:"userID"`
		Signal json.RawMessage `json:"signal"`
	}
)

// IsObject tells if the raw value is a JSON object.
func IsObject(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '{' && json.Valid(b)
}
