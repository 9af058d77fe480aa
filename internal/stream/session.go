package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of a session.
type State int32

const (
	Connecting State = iota
	Active
	Disconnecting
	Terminated
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Active:
		return "active"
	case Disconnecting:
		return "disconnecting"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session is one live connection and the producer feeding it.
type Session struct {
	ID      uuid.UUID
	Stream  string
	Remote  string
	Started time.Time

	state  atomic.Int32
	sent   atomic.Int64
	cancel context.CancelFunc

	// mu guards transitions so a late Active cannot overwrite Disconnecting.
	mu sync.Mutex
}

func newSession(stream, remote string, cancel context.CancelFunc) *Session {
	s := &Session{
		ID:      uuid.New(),
		Stream:  stream,
		Remote:  remote,
		Started: time.Now(),
		cancel:  cancel,
	}
	s.state.Store(int32(Connecting))
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Sent returns the number of messages pushed so far.
func (s *Session) Sent() int64 {
	return s.sent.Load()
}

// advance moves the session forward. Backward transitions are ignored.
func (s *Session) advance(to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if to <= s.State() {
		return false
	}
	s.state.Store(int32(to))
	return true
}

// Info is a point-in-time view of a session.
type Info struct {
	ID      string    `json:"id"`
	Stream  string    `json:"stream"`
	Remote  string    `json:"remote"`
	State   State     `json:"state"`
	Sent    int64     `json:"sent"`
	Started time.Time `json:"started"`
}

func (s *Session) info() Info {
	return Info{
		ID:      s.ID.String(),
		Stream:  s.Stream,
		Remote:  s.Remote,
		State:   s.State(),
		Sent:    s.Sent(),
		Started: s.Started,
	}
}
