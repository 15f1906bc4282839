package coordinator

import (
	"github.com/kasca/coordinator/pkg/api"
	"github.com/kasca/coordinator/pkg/room"
)

func (h *Hub) syncCode(u *User, in api.In) error {
	return h.inRoom(u, func(r *room.Room, _ Binding) error {
		u.Reply(in, api.CodeState{Code: r.Code, LanguageID: r.LanguageID})
		return nil
	})
}

// updateCode applies the edit to the room code and passes it on as is.
// Concurrent edits of the same span are not reconciled, the last
// applied wins on the server while clients may diverge.
func (h *Hub) updateCode(u *User, rq api.UpdateCodeRequest) error {
	return h.inRoom(u, func(r *room.Room, b Binding) error {
		r.Code = room.ApplyEdit(r.Code, rq.Op)
		return relay(r, b.UserID, api.UpdateCode, rq.Raw)
	})
}

func (h *Hub) updateCursor(u *User, rq api.UpdateCursorRequest) error {
	return h.inRoom(u, func(r *room.Room, b Binding) error {
		r.Member(b.UserID).Cursor = rq.Cursor
		return relay(r, b.UserID, api.UpdateCursor, b.UserID, rq.Cursor)
	})
}

func (h *Hub) syncLang(u *User, in api.In) error {
	return h.inRoom(u, func(r *room.Room, _ Binding) error {
		u.Reply(in, r.LanguageID)
		return nil
	})
}

func (h *Hub) updateLang(u *User, rq api.UpdateLangRequest) error {
	return h.inRoom(u, func(r *room.Room, b Binding) error {
		r.LanguageID = rq.LangID
		return relay(r, b.UserID, api.UpdateLang, rq.LangID)
	})
}
