package coordinator

import (
	"github.com/kasca/coordinator/pkg/api"
	"github.com/kasca/coordinator/pkg/room"
)

// The shared markdown note of a room.

func (h *Hub) syncNote(u *User, in api.In) error {
	return h.inRoom(u, func(r *room.Room, _ Binding) error {
		u.Reply(in, r.Note)
		return nil
	})
}

func (h *Hub) updateNote(u *User, rq api.UpdateNoteRequest) error {
	return h.inRoom(u, func(r *room.Room, b Binding) error {
		r.Note = rq.Note
		return relay(r, b.UserID, api.UpdateNote, rq.Note)
	})
}
