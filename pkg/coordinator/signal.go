package coordinator

import (
	"github.com/goccy/go-json"
	"github.com/pion/webrtc/v3"

	"github.com/kasca/coordinator/pkg/api"
	"github.com/kasca/coordinator/pkg/logger"
	"github.com/kasca/coordinator/pkg/monitoring"
	"github.com/kasca/coordinator/pkg/room"
)

// Signal kinds for logs and metrics.
const (
	signalCandidate   = "candidate"
	signalRenegotiate = "renegotiate"
	signalOther       = "other"
)

type signalShape struct {
	Type        string                   `json:"type"`
	Candidate   *webrtc.ICECandidateInit `json:"candidate"`
	Renegotiate bool                     `json:"renegotiate"`
}

// signalKind tells what a browser WebRTC signal carries.
// The signal itself is never changed.
func signalKind(signal json.RawMessage) string {
	var s signalShape
	if err := json.Unmarshal(signal, &s); err != nil {
		return signalOther
	}
	switch t := webrtc.NewSDPType(s.Type); t {
	case webrtc.SDPTypeOffer, webrtc.SDPTypeAnswer, webrtc.SDPTypePranswer, webrtc.SDPTypeRollback:
		return t.String()
	}
	switch {
	case s.Candidate != nil && s.Candidate.Candidate != "":
		return signalCandidate
	case s.Renegotiate:
		return signalRenegotiate
	}
	return signalOther
}

func (h *Hub) streamReady(u *User) error {
	return h.inRoom(u, func(r *room.Room, b Binding) error {
		return relay(r, b.UserID, api.UserReady, b.UserID)
	})
}

// signal passes a WebRTC signal to the target member or to everyone else.
// A missing target yields ErrPeerGone which is not reported back.
func (h *Hub) signal(u *User, rq api.SignalRequest) error {
	return h.inRoom(u, func(r *room.Room, b Binding) error {
		kind := signalKind(rq.Signal)
		monitoring.Signals.WithLabelValues(kind).Inc()
		if h.log.GetLevel() < logger.InfoLevel {
			u.log.Debug().Str(logger.UserField, b.UserID).Str("to", rq.Target).Msgf("Signal %v", kind)
		}
		out := api.Notify(api.Signal, api.SignalEnvelope{UserID: b.UserID, Signal: rq.Signal})
		if rq.Target != "" {
			if rq.Target == b.UserID {
				return api.ErrPeerGone
			}
			return r.SendTo(rq.Target, out)
		}
		_, err := r.Broadcast(out, b.UserID)
		return err
	})
}

func (h *Hub) cameraOff(u *User) error {
	return h.inRoom(u, func(r *room.Room, b Binding) error {
		r.Member(b.UserID).CameraOn = false
		return relay(r, b.UserID, api.CameraOff, b.UserID)
	})
}

func (h *Hub) micState(u *User, rq api.MicStateRequest) error {
	return h.inRoom(u, func(r *room.Room, b Binding) error {
		r.Member(b.UserID).MicOn = rq.On
		return relay(r, b.UserID, api.MicState, b.UserID, rq.On)
	})
}

func (h *Hub) speakerState(u *User, rq api.SpeakerStateRequest) error {
	return h.inRoom(u, func(r *room.Room, b Binding) error {
		r.Member(b.UserID).SpeakerOn = rq.On
		return relay(r, b.UserID, api.SpeakerState, b.UserID, rq.On)
	})
}
