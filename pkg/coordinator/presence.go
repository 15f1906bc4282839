package coordinator

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gofrs/uuid"

	"github.com/kasca/coordinator/pkg/api"
	"github.com/kasca/coordinator/pkg/logger"
	"github.com/kasca/coordinator/pkg/monitoring"
	"github.com/kasca/coordinator/pkg/room"
)

const defaultNameMaxLength = 255

func newUserID() string { return uuid.Must(uuid.NewV4()).String() }

func (h *Hub) checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", api.ErrMalformed)
	}
	max := h.conf.Coordinator.Room.NameMaxLength
	if max <= 0 {
		max = defaultNameMaxLength
	}
	if utf8.RuneCountInString(name) > max {
		return fmt.Errorf("%w: the name is longer than %v", api.ErrMalformed, max)
	}
	return nil
}

// create makes a new room with the user in it.
// A user already in a room leaves it first.
func (h *Hub) create(u *User, in api.In, rq api.CreateRequest) error {
	if err := h.checkName(rq.Name); err != nil {
		return err
	}
	h.leave(u)

	userID := newUserID()
	r, err := h.rooms.Create(room.NewMember(userID, rq.Name, u))
	if err != nil {
		return err
	}
	h.users.Bind(u, Binding{RoomID: r.ID, UserID: userID})
	monitoring.Rooms.Inc()
	monitoring.Members.Inc()
	u.log.Info().Str(logger.RoomField, r.ID).Str(logger.UserField, userID).Msg("Room created")

	u.Reply(in, api.CreateResponse{RoomID: r.ID, UserID: userID, Ice: h.ice})
	return nil
}

// join adds the user into an existing room.
// The reply is queued before any later room event, so the snapshot
// in it is never older than what the user receives next.
func (h *Hub) join(u *User, in api.In, rq api.JoinRequest) error {
	if err := h.checkName(rq.Name); err != nil {
		return err
	}
	if b, ok := h.users.Lookup(u); ok && b.RoomID == rq.RoomID {
		// already there
		return h.inRoom(u, func(r *room.Room, b Binding) error {
			u.Reply(in, api.JoinResponse{UserID: b.UserID, Snapshot: r.Snapshot(), Ice: h.ice})
			return nil
		})
	}
	// a failed join keeps the user where it was
	if h.rooms.Get(rq.RoomID) == nil {
		return api.ErrRoomNotFound
	}
	h.leave(u)

	userID := newUserID()
	err := h.rooms.WithRoom(rq.RoomID, func(r *room.Room) error {
		r.Add(room.NewMember(userID, rq.Name, u))
		h.users.Bind(u, Binding{RoomID: r.ID, UserID: userID})
		monitoring.Members.Inc()
		u.Reply(in, api.JoinResponse{UserID: userID, Snapshot: r.Snapshot(), Ice: h.ice})
		return relay(r, userID, api.UserJoined, userID, rq.Name)
	})
	if err != nil {
		return err
	}
	u.log.Info().Str(logger.RoomField, rq.RoomID).Str(logger.UserField, userID).Msg("Joined")
	return nil
}

// leave takes the user out of its room, does nothing outside of rooms.
func (h *Hub) leave(u *User) {
	if b, ok := h.users.Unbind(u); ok {
		h.removeMember(u, b)
	}
}

func (h *Hub) removeMember(u *User, b Binding) {
	err := h.rooms.WithRoom(b.RoomID, func(r *room.Room) error {
		if r.Remove(b.UserID) == nil {
			return nil
		}
		monitoring.Members.Dec()
		return relay(r, b.UserID, api.UserLeft, b.UserID)
	})
	if err != nil && !errors.Is(err, api.ErrRoomNotFound) {
		u.log.Error().Err(err).Str(logger.RoomField, b.RoomID).Msg("Leave")
		return
	}
	u.log.Info().Str(logger.RoomField, b.RoomID).Str(logger.UserField, b.UserID).Msg("Left")
}

func (h *Hub) syncUsers(u *User, in api.In) error {
	return h.inRoom(u, func(r *room.Room, _ Binding) error {
		u.Reply(in, r.Members())
		return nil
	})
}
