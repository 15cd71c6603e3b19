// Package engine is the client side of the relay protocol: one connection,
// one join handshake, one subscriber list, plus the local echo channel.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/dinedecide/internal/domain"
	"github.com/DoyleJ11/dinedecide/internal/echo"
	"github.com/DoyleJ11/dinedecide/internal/protocol"
)

var ErrClosed = errors.New("engine closed")

const writeWait = 5 * time.Second

type Options struct {
	URL              string
	ReconnectBackoff time.Duration
	DialTimeout      time.Duration
}

type Engine struct {
	opts   Options
	dialer *websocket.Dialer
	bus    *echo.Bus
	log    *zap.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	connecting bool
	closed     bool
	timer      *time.Timer
	timerGen   uint64
	groupID    string
	user       domain.Member

	lmu       sync.RWMutex
	listeners map[uint64]func(protocol.Message)
	nextID    uint64

	unsubEcho func()
}

func New(opts Options, bus *echo.Bus, log *zap.Logger) *Engine {
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = 2 * time.Second
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}

	e := &Engine{
		opts:      opts,
		dialer:    &websocket.Dialer{HandshakeTimeout: opts.DialTimeout},
		bus:       bus,
		log:       log.Named("engine"),
		listeners: make(map[uint64]func(protocol.Message)),
	}
	e.unsubEcho = bus.Subscribe(e.notify)
	return e
}

// Connect makes one dial attempt. On failure the engine stays usable in
// local-echo-only mode and a retry is scheduled; the error is informational.
func (e *Engine) Connect(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.conn != nil || e.connecting {
		e.mu.Unlock()
		return nil
	}
	e.connecting = true
	e.mu.Unlock()

	dctx, cancel := context.WithTimeout(ctx, e.opts.DialTimeout)
	conn, _, err := e.dialer.DialContext(dctx, e.opts.URL, nil)
	cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.connecting = false

	if err != nil {
		e.log.Warn("relay unreachable, local echo only", zap.String("url", e.opts.URL), zap.Error(err))
		e.scheduleReconnectLocked()
		return err
	}
	if e.closed {
		conn.Close()
		return ErrClosed
	}

	e.cancelTimerLocked()
	e.conn = conn
	e.log.Info("relay connected", zap.String("url", e.opts.URL))
	e.sendHandshakeLocked()

	go e.readLoop(conn)
	return nil
}

// JoinGroup records the active (group, user) pair and sends the handshake if
// connected. The relay treats membership as a set, so repeats are harmless.
func (e *Engine) JoinGroup(groupID string, user domain.Member) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.groupID = groupID
	e.user = user
	e.sendHandshakeLocked()
}

// Send dispatches to the relay (best effort) and then to the local echo
// channel unconditionally.
func (e *Engine) Send(groupID, senderID string, payload protocol.Payload) error {
	msg := protocol.Message{GroupID: groupID, SenderID: senderID, Payload: payload}
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.conn != nil {
		if frame, err := protocol.P2PFrame(data); err == nil {
			_ = e.writeLocked(frame)
		}
	}
	e.mu.Unlock()

	e.bus.Post(msg)
	return nil
}

// Subscribe registers fn for every inbound message from either transport.
// There is no deduplication.
func (e *Engine) Subscribe(fn func(protocol.Message)) (unsubscribe func()) {
	e.lmu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.lmu.Unlock()

	return func() {
		e.lmu.Lock()
		delete(e.listeners, id)
		e.lmu.Unlock()
	}
}

func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn != nil
}

// Close tears down the connection and flushes any pending reconnect.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.cancelTimerLocked()

	var err error
	if e.conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		err = multierr.Append(err, e.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)))
		err = multierr.Append(err, e.conn.Close())
		e.conn = nil
	}
	e.mu.Unlock()

	e.unsubEcho()
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

func (e *Engine) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			e.dropConn(conn, err)
			return
		}

		frame, err := protocol.ParseFrame(data)
		if err != nil {
			e.log.Warn("dropping malformed relay frame", zap.Error(err))
			continue
		}

		switch frame.Type {
		case protocol.FrameP2P:
			msg, err := protocol.Decode(frame.Data)
			if err != nil {
				e.log.Warn("dropping malformed peer message", zap.Error(err))
				continue
			}
			e.notify(msg)
		case protocol.FrameJoined:
			e.log.Debug("relay acknowledged join", zap.String("group", frame.GroupID))
		}
	}
}

func (e *Engine) dropConn(conn *websocket.Conn, cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn != conn {
		return
	}
	e.conn = nil
	conn.Close()
	if !e.closed {
		e.log.Warn("relay connection lost", zap.Error(cause))
	}
	e.scheduleReconnectLocked()
}

// scheduleReconnectLocked keeps at most one reconnect pending. A timer that
// already fired but lost the race for e.mu sees a stale generation and exits.
func (e *Engine) scheduleReconnectLocked() {
	if e.closed {
		return
	}
	e.cancelTimerLocked()
	gen := e.timerGen
	e.timer = time.AfterFunc(e.opts.ReconnectBackoff, func() {
		e.mu.Lock()
		if e.timerGen != gen || e.closed {
			e.mu.Unlock()
			return
		}
		e.timer = nil
		e.mu.Unlock()

		_ = e.Connect(context.Background())
	})
}

func (e *Engine) cancelTimerLocked() {
	e.timerGen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) sendHandshakeLocked() {
	if e.conn == nil || e.groupID == "" || e.user.ID == "" {
		return
	}
	frame, err := protocol.JoinGroupFrame(e.groupID, e.user)
	if err != nil {
		e.log.Warn("encoding join handshake", zap.Error(err))
		return
	}
	_ = e.writeLocked(frame)
}

func (e *Engine) writeLocked(frame []byte) error {
	_ = e.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := e.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		e.log.Debug("relay write failed", zap.Error(err))
		return err
	}
	return nil
}

func (e *Engine) notify(msg protocol.Message) {
	e.lmu.RLock()
	fns := make([]func(protocol.Message), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.lmu.RUnlock()

	for _, fn := range fns {
		fn(msg)
	}
}
