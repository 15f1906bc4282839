package coordinator

import (
	"github.com/kasca/coordinator/pkg/api"
	"github.com/kasca/coordinator/pkg/room"
)

// exec toggles the running state of the room code.
// Everyone gets it back, the sender too.
func (h *Hub) exec(u *User, rq api.ExecRequest) error {
	return h.inRoom(u, func(r *room.Room, _ Binding) error {
		r.IsExecuting = rq.IsExecuting
		return relay(r, "", api.Exec, rq.IsExecuting)
	})
}

func (h *Hub) updateTerm(u *User, rq api.UpdateTermRequest) error {
	return h.inRoom(u, func(r *room.Room, b Binding) error {
		r.Terminal = rq.Result
		return relay(r, b.UserID, api.UpdateTerm, rq.Result)
	})
}
