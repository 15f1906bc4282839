package coordinator

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog"

	"github.com/kasca/coordinator/pkg/api"
	"github.com/kasca/coordinator/pkg/config"
	"github.com/kasca/coordinator/pkg/logger"
	"github.com/kasca/coordinator/pkg/monitoring"
	"github.com/kasca/coordinator/pkg/network/websocket"
	"github.com/kasca/coordinator/pkg/room"
)

var errInternal = errors.New("internal error")

type Hub struct {
	conf     config.CoordinatorConfig
	rooms    *room.Store
	users    *Registry
	origins  *Origins
	upgrader *websocket.Upgrader
	ice      []webrtc.ICEServer
	log      *logger.Logger
}

func NewHub(conf config.CoordinatorConfig, origins *Origins, log *logger.Logger) *Hub {
	h := &Hub{
		conf:    conf,
		users:   NewRegistry(),
		origins: origins,
		ice:     conf.Webrtc.ICEServers(),
		log:     log,
	}
	c := conf.Coordinator.Connection
	h.upgrader = websocket.NewUpgrader(origins.Allowed, websocket.Options{
		MaxMessageSize: c.MaxMessageSize,
		SendQueue:      c.SendQueue,
	})
	opts := []room.Option{room.OnClose(func(id string) {
		monitoring.Rooms.Dec()
		h.log.Info().Str(logger.RoomField, id).Msg("Room closed")
	})}
	if lang := conf.Coordinator.Room.DefaultLanguage; lang != "" {
		opts = append(opts, room.WithLanguage(lang))
	}
	if n := conf.Coordinator.Room.IdLength; n > 0 {
		opts = append(opts, room.WithIdLength(n))
	}
	h.rooms = room.NewStore(opts...)
	return h
}

// handleWebsocketUserConnection serves a browser connection until it's closed.
func (h *Hub) handleWebsocketUserConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r)
	if err != nil {
		h.log.Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("Websocket connection rejected")
		return
	}
	usr := NewUser(conn, h.conf.Coordinator.Connection, h.log)
	h.users.Add(usr)
	monitoring.Connections.Inc()
	usr.log.Debug().Str("addr", r.RemoteAddr).Msg("Connect")

	kind := websocket.Abrupt
	defer func() { h.disconnect(usr, kind) }()

	conn.OnMessage = func(data []byte) { h.handle(usr, data) }
	kind = conn.Serve()
}

// disconnect cleans everything up after a closed connection.
// It leaves the room the same way the leave request does.
func (h *Hub) disconnect(u *User, kind websocket.CloseKind) {
	if b, ok := h.users.Remove(u); ok {
		h.removeMember(u, b)
	}
	monitoring.Connections.Dec()
	monitoring.Disconnects.WithLabelValues(string(kind)).Inc()
	u.log.Debug().Str("kind", string(kind)).Msg("Disconnect")
}

// handle processes one inbound message of the user.
// Messages of a user are handled one by one in the order they came.
func (h *Hub) handle(u *User, data []byte) {
	var in api.In
	defer func() {
		if r := recover(); r != nil {
			u.log.Error().Str(logger.EventField, string(in.T)).Msgf("Recovered in a handler: %v", r)
			h.fail(u, in, errInternal)
		}
	}()

	if !u.allow() {
		return
	}
	in, err := api.Parse(data)
	if err != nil {
		h.fail(u, in, err)
		return
	}
	rq, err := api.Decode(in)
	if err != nil {
		h.fail(u, in, err)
		return
	}
	monitoring.Events.WithLabelValues(string(in.T)).Inc()
	if h.log.GetLevel() < logger.InfoLevel {
		u.log.Debug().Str(logger.EventField, string(in.T)).Msg("←")
	}

	u.replied = false
	if err = h.dispatch(u, in, rq); err != nil {
		h.fail(u, in, err)
		return
	}
	// requests with ids wait for something
	if !u.replied && in.HasId() {
		u.Reply(in)
	}
}

// dispatch routes the request to its handler.
func (h *Hub) dispatch(u *User, in api.In, rq api.Request) error {
	switch rq := rq.(type) {
	case api.CreateRequest:
		return h.create(u, in, rq)
	case api.JoinRequest:
		return h.join(u, in, rq)
	case api.LeaveRequest:
		h.leave(u)
		return nil
	case api.SyncUsersRequest:
		return h.syncUsers(u, in)
	case api.SyncCodeRequest:
		return h.syncCode(u, in)
	case api.UpdateCodeRequest:
		return h.updateCode(u, rq)
	case api.UpdateCursorRequest:
		return h.updateCursor(u, rq)
	case api.SyncLangRequest:
		return h.syncLang(u, in)
	case api.UpdateLangRequest:
		return h.updateLang(u, rq)
	case api.SyncNoteRequest:
		return h.syncNote(u, in)
	case api.UpdateNoteRequest:
		return h.updateNote(u, rq)
	case api.ExecRequest:
		return h.exec(u, rq)
	case api.UpdateTermRequest:
		return h.updateTerm(u, rq)
	case api.StreamReadyRequest:
		return h.streamReady(u)
	case api.SignalRequest:
		return h.signal(u, rq)
	case api.CameraOffRequest:
		return h.cameraOff(u)
	case api.MicStateRequest:
		return h.micState(u, rq)
	case api.SpeakerStateRequest:
		return h.speakerState(u, rq)
	default:
		return fmt.Errorf("%w: %v", api.ErrUnknownEvent, rq.Event())
	}
}

// fail sends the error back to the user.
// Errors never reach other members.
func (h *Hub) fail(u *User, in api.In, err error) {
	code := api.CodeOf(err)
	monitoring.Errors.WithLabelValues(string(code)).Inc()
	var ev *zerolog.Event
	switch code {
	case api.PeerRelayFailure:
		u.log.Debug().Err(err).Str(logger.EventField, string(in.T)).Msg("Dropped")
		return
	case api.MalformedPayload, api.UnknownEvent:
		ev = u.log.Warn()
	case api.InternalError:
		ev = u.log.Error()
	default:
		ev = u.log.Debug()
	}
	ev.Err(err).Str(logger.EventField, string(in.T)).Msg("Request failed")
	u.Notify(api.ErrorPacket(in, err))
}

// inRoom runs fn inside of the room of the user.
func (h *Hub) inRoom(u *User, fn func(r *room.Room, b Binding) error) error {
	b, ok := h.users.Lookup(u)
	if !ok {
		return api.ErrNotInRoom
	}
	err := h.rooms.WithRoom(b.RoomID, func(r *room.Room) error {
		if r.Member(b.UserID) == nil {
			return api.ErrNotInRoom
		}
		return fn(r, b)
	})
	if errors.Is(err, api.ErrRoomNotFound) {
		return api.ErrNotInRoom
	}
	return err
}

// relay sends the packet to everyone in the room except the sender.
func relay(r *room.Room, from string, e api.Event, args ...any) error {
	_, err := r.Broadcast(api.Notify(e, args...), from)
	return err
}
