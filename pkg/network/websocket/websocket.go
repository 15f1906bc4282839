// Package websocket wraps gorilla websocket connections with a pair of
// pumps: one goroutine reads, another one writes from a bounded queue.
package websocket

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultMaxMessageSize = 1 << 20
	defaultSendQueue      = 512
	pongTime              = 60 * time.Second
	pingTime              = pongTime * 9 / 10
	writeWait             = 10 * time.Second
)

// CloseKind tells how a connection has ended.
type CloseKind string

const (
	// Normal is a close handshake with 1000 or 1001 code.
	Normal CloseKind = "normal"
	// Abrupt is everything else from the remote side.
	Abrupt CloseKind = "abrupt"
	// Kicked is a close initiated by the server.
	Kicked CloseKind = "kicked"
)

type Options struct {
	MaxMessageSize int64
	SendQueue      int
	PingTime       time.Duration
	PongTime       time.Duration
	WriteWait      time.Duration
}

func (o *Options) defaults() {
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = defaultMaxMessageSize
	}
	if o.SendQueue <= 0 {
		o.SendQueue = defaultSendQueue
	}
	if o.PongTime <= 0 {
		o.PongTime = pongTime
	}
	if o.PingTime <= 0 || o.PingTime >= o.PongTime {
		o.PingTime = o.PongTime * 9 / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = writeWait
	}
}

type WS struct {
	conn deadlinedConn
	opts Options
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
	closeCode int
	closeText string
	kicked    bool

	OnMessage func(message []byte)
}

var ErrUpgrade = errors.New("websocket upgrade failed")

type Upgrader struct {
	websocket.Upgrader
	opts Options
}

// NewUpgrader makes an upgrader that lets in only the requests
// from origins approved by the check function.
func NewUpgrader(check func(origin string) bool, opts Options) *Upgrader {
	opts.defaults()
	u := Upgrader{
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			WriteBufferPool: &sync.Pool{},
		},
		opts: opts,
	}
	u.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// non-browser clients
		if origin == "" || check == nil {
			return true
		}
		return check(origin)
	}
	return &u
}

// Upgrade switches the request to the websocket protocol.
// The reply is already written on errors.
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (*WS, error) {
	conn, err := u.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, errors.Join(ErrUpgrade, err)
	}
	return newSocket(conn, u.opts), nil
}

func newSocket(conn *websocket.Conn, opts Options) *WS {
	return &WS{
		conn: deadlinedConn{sock: conn, wt: opts.WriteWait},
		opts: opts,
		send: make(chan []byte, opts.SendQueue),
		done: make(chan struct{}),
	}
}

// Serve pumps the connection until it's closed by either side.
// Blocking, OnMessage callbacks are called from the same goroutine.
func (ws *WS) Serve() CloseKind {
	writerDone := make(chan struct{})
	go func() {
		ws.writer()
		close(writerDone)
	}()
	kind := ws.reader()
	ws.Close()
	<-writerDone
	return kind
}

// reader pumps messages from the websocket connection to the OnMessage callback.
// Serializes all websocket reads.
func (ws *WS) reader() CloseKind {
	ws.conn.setup(func(conn *websocket.Conn) {
		conn.SetReadLimit(ws.opts.MaxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(ws.opts.PongTime))
		conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(ws.opts.PongTime)) })
	})
	for {
		message, err := ws.conn.read()
		if err != nil {
			return ws.kind(err)
		}
		if ws.OnMessage != nil {
			ws.OnMessage(message)
		}
	}
}

// writer pumps messages from the send queue to the websocket connection.
// Serializes all websocket writes.
func (ws *WS) writer() {
	ticker := time.NewTicker(ws.opts.PingTime)
	defer func() {
		ticker.Stop()
		_ = ws.conn.close()
	}()
	for {
		select {
		case message := <-ws.send:
			if err := ws.conn.write(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.conn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ws.done:
			_ = ws.conn.write(websocket.CloseMessage, websocket.FormatCloseMessage(ws.closeCode, ws.closeText))
			return
		}
	}
}

func (ws *WS) kind(err error) CloseKind {
	select {
	case <-ws.done:
		if ws.kicked {
			return Kicked
		}
	default:
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return Normal
	}
	return Abrupt
}

// Write puts the message into the send queue without waiting.
// It reports false when the queue is full or the connection is closed.
func (ws *WS) Write(data []byte) bool {
	select {
	case <-ws.done:
		return false
	default:
	}
	select {
	case ws.send <- data:
		return true
	default:
		return false
	}
}

// Close ends the connection with the normal close code.
func (ws *WS) Close() { ws.close(websocket.CloseNormalClosure, "", false) }

// Kick ends the connection from the server side with the given code.
func (ws *WS) Kick(code int, reason string) { ws.close(code, reason, true) }

func (ws *WS) close(code int, text string, kicked bool) {
	ws.closeOnce.Do(func() {
		ws.closeCode, ws.closeText, ws.kicked = code, text, kicked
		close(ws.done)
	})
}

// Done is closed when the connection starts closing.
func (ws *WS) Done() <-chan struct{} { return ws.done }

func (ws *WS) RemoteAddr() string { return ws.conn.sock.RemoteAddr().String() }
