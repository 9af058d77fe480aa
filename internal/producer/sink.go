package producer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"mission-control/internal/store"
	"mission-control/internal/telemetry"
)

// Sink receives every reading a producer generates.
type Sink interface {
	Write(kind telemetry.Kind, r telemetry.Reading) error
}

// StoreSink appends readings to the record store.
type StoreSink struct {
	store store.Appender
}

// NewStoreSink wraps an appender.
func NewStoreSink(a store.Appender) *StoreSink {
	return &StoreSink{store: a}
}

// Write appends r to the store.
func (s *StoreSink) Write(kind telemetry.Kind, r telemetry.Reading) error {
	return s.store.Append(kind, r)
}

// JSONStdoutSink prints readings as JSON lines, one per reading.
type JSONStdoutSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewJSONStdoutSink creates a sink writing to w, or os.Stdout when w is nil.
func NewJSONStdoutSink(w io.Writer) *JSONStdoutSink {
	if w == nil {
		w = os.Stdout
	}
	return &JSONStdoutSink{out: w}
}

type echoLine struct {
	Kind    telemetry.Kind    `json:"kind"`
	Reading telemetry.Reading `json:"reading"`
}

// Write outputs one reading.
func (s *JSONStdoutSink) Write(kind telemetry.Kind, r telemetry.Reading) error {
	data, err := json.Marshal(echoLine{Kind: kind, Reading: r})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}

// MultiSink fans a reading out to several sinks. Every sink is tried even
// when an earlier one fails.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a MultiSink, skipping nil entries.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Write sends r to all sinks and joins their errors.
func (m *MultiSink) Write(kind telemetry.Kind, r telemetry.Reading) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(kind, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
