// Package store holds the in-memory fire and drone reading logs shared by
// producers and queries.
package store

import (
	"errors"
	"fmt"
	"sync"

	"mission-control/internal/telemetry"
)

var (
	// ErrUnknownKind is returned when a reading kind has no log.
	ErrUnknownKind = errors.New("unknown reading kind")
	// ErrInvalidReading is returned for readings missing an entity id or timestamp.
	ErrInvalidReading = errors.New("invalid reading")
)

// Appender is the write side of the store used by producers.
type Appender interface {
	Append(kind telemetry.Kind, r telemetry.Reading) error
}

// Snapshotter is the read side of the store used by queries.
type Snapshotter interface {
	Snapshot(kind telemetry.Kind) []telemetry.Reading
}

// Store is an append-only, process-lifetime log of readings per kind.
// Insertion order is arrival order. It is safe for concurrent use; the
// lock is held only for the duration of a single append or copy.
type Store struct {
	mu     sync.RWMutex
	fires  []telemetry.Reading
	drones []telemetry.Reading
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Append adds r to the end of the log for kind. The store keeps its own
// copy of the reading, so later changes to r's metrics are not visible.
func (s *Store) Append(kind telemetry.Kind, r telemetry.Reading) error {
	if !kind.Valid() {
		return fmt.Errorf("append %q: %w", kind, ErrUnknownKind)
	}
	if r.EntityID == "" || r.Timestamp == 0 {
		return fmt.Errorf("append %s: %w", kind, ErrInvalidReading)
	}
	r = r.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if kind == telemetry.KindFire {
		s.fires = append(s.fires, r)
	} else {
		s.drones = append(s.drones, r)
	}
	return nil
}

// Seed appends historical readings in order, stopping at the first invalid one.
func (s *Store) Seed(fires, drones []telemetry.Reading) error {
	for _, r := range fires {
		if err := s.Append(telemetry.KindFire, r); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	for _, r := range drones {
		if err := s.Append(telemetry.KindDrone, r); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}

// Snapshot returns a copy of the log for kind as of the call. Appends
// racing with the call may or may not be included. Unknown kinds yield
// an empty slice. Metrics maps are copied too, so callers may modify the
// result freely.
func (s *Store) Snapshot(kind telemetry.Kind) []telemetry.Reading {
	s.mu.RLock()
	src := s.log(kind)
	out := make([]telemetry.Reading, len(src))
	copy(out, src)
	s.mu.RUnlock()

	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

// Len returns the number of readings logged for kind.
func (s *Store) Len(kind telemetry.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.log(kind))
}

func (s *Store) log(kind telemetry.Kind) []telemetry.Reading {
	switch kind {
	case telemetry.KindFire:
		return s.fires
	case telemetry.KindDrone:
		return s.drones
	}
	return nil
}
