// Package room keeps the shared state of collaborative rooms in memory.
//
// A room lives as long as it has members. Every read or change of
// its state goes through Store.WithRoom which gives exclusive access
// to one room at a time, different rooms don't block each other.
package room

import (
	"sync"

	"github.com/goccy/go-json"

	"github.com/kasca/coordinator/pkg/api"
)

// Sink is a member outbound queue.
// Send must never block, it reports false when the message was dropped.
type Sink interface {
	Send(data []byte) bool
}

type Member struct {
	UserID    string
	Name      string
	Cursor    api.Cursor
	MicOn     bool
	CameraOn  bool
	SpeakerOn bool

	sink Sink
}

func NewMember(userID, name string, sink Sink) *Member {
	return &Member{UserID: userID, Name: name, sink: sink}
}

func (m *Member) Summary() api.Member {
	return api.Member{
		UserID:    m.UserID,
		Name:      m.Name,
		Cursor:    m.Cursor,
		MicOn:     m.MicOn,
		CameraOn:  m.CameraOn,
		SpeakerOn: m.SpeakerOn,
	}
}

type Room struct {
	ID          string
	Code        string
	LanguageID  string
	Note        string
	IsExecuting bool
	// the latest execution result
	Terminal json.RawMessage

	mu      sync.Mutex
	members []*Member // in join order
	closed  bool
}

func (r *Room) Len() int { return len(r.members) }

func (r *Room) Add(m *Member) { r.members = append(r.members, m) }

// Remove takes the member with the given id out of the room.
func (r *Room) Remove(userID string) *Member {
	for i, m := range r.members {
		if m.UserID == userID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return m
		}
	}
	return nil
}

func (r *Room) Member(userID string) *Member {
	for _, m := range r.members {
		if m.UserID == userID {
			return m
		}
	}
	return nil
}

func (r *Room) Members() []api.Member {
	list := make([]api.Member, 0, len(r.members))
	for _, m := range r.members {
		list = append(list, m.Summary())
	}
	return list
}

func (r *Room) Snapshot() api.Snapshot {
	return api.Snapshot{
		Code:        r.Code,
		LanguageID:  r.LanguageID,
		Note:        r.Note,
		IsExecuting: r.IsExecuting,
		Members:     r.Members(),
		Terminal:    r.Terminal,
	}
}

// Broadcast sends the packet to every member except the one with the
// given user id (empty means everyone). The packet is encoded once.
// It returns the ids of members whose queue refused the message.
func (r *Room) Broadcast(out api.Out, except string) ([]string, error) {
	data, err := api.Encode(out)
	if err != nil {
		return nil, err
	}
	var dropped []string
	for _, m := range r.members {
		if m.UserID == except {
			continue
		}
		if !m.sink.Send(data) {
			dropped = append(dropped, m.UserID)
		}
	}
	return dropped, nil
}

// SendTo sends the packet to a single member.
func (r *Room) SendTo(userID string, out api.Out) error {
	m := r.Member(userID)
	if m == nil {
		return api.ErrPeerGone
	}
	data, err := api.Encode(out)
	if err != nil {
		return err
	}
	if !m.sink.Send(data) {
		return api.ErrPeerGone
	}
	return nil
}
