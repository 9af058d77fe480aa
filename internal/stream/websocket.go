package stream

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig holds websocket timing limits.
type WSConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

// DefaultWSConfig returns the standard write and pong timeouts.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 512,
	}
}

func (c WSConfig) withDefaults() WSConfig {
	d := DefaultWSConfig()
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	return c
}

// pingPeriod must be less than PongWait.
func (c WSConfig) pingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}

// WSTransport adapts a gorilla websocket connection. Pings run on their own
// goroutine; all writes share one mutex.
type WSTransport struct {
	conn *websocket.Conn
	cfg  WSConfig

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewWSTransport takes ownership of conn and starts its ping loop.
func NewWSTransport(conn *websocket.Conn, cfg WSConfig) *WSTransport {
	cfg = cfg.withDefaults()
	t := &WSTransport{conn: conn, cfg: cfg, done: make(chan struct{})}

	conn.SetReadLimit(cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})
	go t.ping()
	return t
}

// Send writes msg as a JSON text frame.
func (t *WSTransport) Send(ctx context.Context, msg any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Now().Add(t.cfg.WriteWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.conn.SetWriteDeadline(deadline)
	return t.conn.WriteJSON(msg)
}

// Receive drains inbound frames until the connection ends. Clients have
// nothing to say on these streams, so frames are discarded.
func (t *WSTransport) Receive() error {
	for {
		if _, _, err := t.conn.ReadMessage(); err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) && !websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
				websocket.CloseAbnormalClosure,
			) {
				return nil
			}
			return err
		}
	}
}

// Close sends a close frame, best effort, and closes the connection.
func (t *WSTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(t.cfg.WriteWait))
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

// RemoteAddr returns the peer address.
func (t *WSTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

func (t *WSTransport) ping() {
	ticker := time.NewTicker(t.cfg.pingPeriod())
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.writeMu.Lock()
			t.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteWait))
			err := t.conn.WriteMessage(websocket.PingMessage, nil)
			t.writeMu.Unlock()
			if err != nil {
				// The reader sees the broken connection and ends the session.
				t.conn.Close()
				return
			}
		}
	}
}

func isClosedConn(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
