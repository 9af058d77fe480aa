// Package stream runs push sessions: one producer per connection, torn
// down when either side goes away.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mission-control/internal/logging"
)

// ErrShutdown is returned by Serve once the manager has been shut down.
var ErrShutdown = errors.New("stream manager shut down")

// Producer generates the messages pushed to one connection.
type Producer interface {
	Name() string
	Interval() time.Duration
	PushOnConnect() bool
	Next(ctx context.Context) (any, error)
}

// Transport is the connection a session pushes to.
type Transport interface {
	// Send writes one message. It must not be called concurrently.
	Send(ctx context.Context, msg any) error
	// Receive blocks until the peer goes away. An orderly close returns nil.
	Receive() error
	Close() error
	RemoteAddr() string
}

// Manager tracks live sessions.
type Manager struct {
	log *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	closed   bool
	wg       sync.WaitGroup
}

// NewManager creates a manager. A nil logger discards output.
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	return &Manager{log: log, sessions: make(map[uuid.UUID]*Session)}
}

// Serve pushes messages from p to t until the peer closes, a send fails or
// ctx is cancelled. It returns only after the producer goroutine has
// stopped and the transport is closed, so nothing is produced for this
// connection afterwards. Orderly endings return nil.
func (m *Manager) Serve(ctx context.Context, t Transport, p Producer) error {
	if p.Interval() <= 0 {
		t.Close()
		return fmt.Errorf("stream %s: interval must be positive", p.Name())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := newSession(p.Name(), t.RemoteAddr(), cancel)
	if !m.register(s) {
		t.Close()
		return ErrShutdown
	}
	defer m.unregister(s)

	log := m.log.With("session", s.ID.String(), "stream", s.Stream, "remote", s.Remote)
	log.Info("session opened")

	peer := make(chan error, 1)
	go func() { peer <- t.Receive() }()

	pushed := make(chan error, 1)
	s.advance(Active)
	go func() { pushed <- m.push(logging.NewContext(ctx, log), s, t, p) }()

	var (
		cause      error
		peerDone   bool
		pushedDone bool
		reason     string
	)
	select {
	case cause = <-peer:
		peerDone = true
		reason = "peer closed"
	case cause = <-pushed:
		pushedDone = true
		reason = "push failed"
	case <-ctx.Done():
		reason = "cancelled"
	}

	s.advance(Disconnecting)
	cancel()
	if !pushedDone {
		if err := <-pushed; cause == nil {
			cause = err
		}
	}
	closeErr := t.Close()
	if !peerDone {
		// Unblocked by Close; whatever it reports is our own doing.
		<-peer
	}
	s.advance(Terminated)

	if cause != nil {
		log.Error("session ended", "reason", reason, "sent", s.Sent(), "err", cause)
		return fmt.Errorf("stream %s: %w", s.Stream, cause)
	}
	if closeErr != nil && !isClosedConn(closeErr) {
		log.Debug("transport close", "err", closeErr)
	}
	log.Info("session closed", "reason", reason, "sent", s.Sent())
	return nil
}

// push runs the producer loop. Cancellation is an orderly stop.
func (m *Manager) push(ctx context.Context, s *Session, t Transport, p Producer) error {
	if p.PushOnConnect() {
		if err := m.send(ctx, s, t, p); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.send(ctx, s, t, p); err != nil {
				return err
			}
		}
	}
}

func (m *Manager) send(ctx context.Context, s *Session, t Transport, p Producer) error {
	if ctx.Err() != nil {
		return nil
	}
	msg, err := p.Next(ctx)
	if err != nil {
		return fmt.Errorf("produce: %w", err)
	}
	if err := t.Send(ctx, msg); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("send: %w", err)
	}
	s.sent.Add(1)
	return nil
}

func (m *Manager) register(s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.sessions[s.ID] = s
	m.wg.Add(1)
	return true
}

func (m *Manager) unregister(s *Session) {
	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()
	m.wg.Done()
}

// Active lists live sessions, oldest first.
func (m *Manager) Active() []Info {
	m.mu.Lock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.info())
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b Info) int {
		if c := a.Started.Compare(b.Started); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown cancels every session and waits until all have terminated or
// ctx is done. Later Serve calls fail with ErrShutdown.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	for _, s := range m.sessions {
		s.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %d sessions: %w", m.Len(), ctx.Err())
	}
}
