package coordinator

import (
	"golang.org/x/time/rate"

	"github.com/kasca/coordinator/pkg/api"
	"github.com/kasca/coordinator/pkg/com"
	"github.com/kasca/coordinator/pkg/config"
	"github.com/kasca/coordinator/pkg/logger"
	"github.com/kasca/coordinator/pkg/monitoring"
	"github.com/kasca/coordinator/pkg/network/websocket"
)

// Conn is the transport side of a user.
type Conn interface {
	Write(data []byte) bool
	Kick(code int, reason string)
	Done() <-chan struct{}
}

// User is a websocket connection of a browser.
type User struct {
	id   com.Uid
	conn Conn
	log  *logger.Logger

	limiter       *rate.Limiter
	violations    int
	maxViolations int

	// set when the current request has been answered
	replied bool
}

func NewUser(conn Conn, conf config.Connection, log *logger.Logger) *User {
	id := com.NewUid()
	u := User{
		id:            id,
		conn:          conn,
		log:           log.Extend(log.With().Str(logger.ConnectionField, id.Short())),
		maxViolations: conf.MaxViolations,
	}
	if conf.Rate > 0 {
		burst := conf.Burst
		if burst < 1 {
			burst = 1
		}
		u.limiter = rate.NewLimiter(rate.Limit(conf.Rate), burst)
	}
	return &u
}

func (u *User) Id() com.Uid { return u.id }

// Send puts the message into the outbound queue.
// A user that can't keep up with the room gets disconnected.
func (u *User) Send(data []byte) bool {
	if u.conn.Write(data) {
		return true
	}
	select {
	case <-u.conn.Done():
	default:
		monitoring.Dropped.Inc()
		u.log.Warn().Msg("Slow consumer, disconnecting")
		u.conn.Kick(websocket.CloseSlowConsumer, "slow consumer")
	}
	return false
}

func (u *User) Notify(out api.Out) {
	data, err := api.Encode(out)
	if err != nil {
		u.log.Error().Err(err).Msgf("couldn't encode %v", out.T)
		return
	}
	u.Send(data)
}

// Reply answers the request.
func (u *User) Reply(in api.In, args ...any) {
	u.replied = true
	u.Notify(api.Reply(in, args...))
}

// allow checks the inbound rate limit.
// It reports false for messages that should be dropped.
func (u *User) allow() bool {
	if u.limiter == nil || u.limiter.Allow() {
		return true
	}
	monitoring.RateLimited.Inc()
	u.violations++
	if u.maxViolations > 0 && u.violations >= u.maxViolations {
		u.log.Warn().Msgf("Too many messages, disconnecting after %v drops", u.violations)
		u.conn.Kick(websocket.ClosePolicyViolation, "rate limit")
	}
	return false
}

// Disconnect closes the connection from the server side.
func (u *User) Disconnect() { u.conn.Kick(websocket.CloseGoingAway, "shutdown") }

func (u *User) String() string { return u.id.String() }
