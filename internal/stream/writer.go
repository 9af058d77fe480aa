package stream

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// WriterTransport writes each message as a JSON line. It stands in for a
// peer in headless runs: after limit messages it reports an orderly close.
// A limit of zero never closes on its own.
type WriterTransport struct {
	name  string
	limit int

	mu   *sync.Mutex
	enc  *json.Encoder
	sent int

	done      chan struct{}
	closeOnce sync.Once
}

// NewWriterTransport creates a transport named name writing to w. mu
// serializes writes when several transports share w; nil means unshared.
func NewWriterTransport(name string, w io.Writer, mu *sync.Mutex, limit int) *WriterTransport {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &WriterTransport{
		name:  name,
		limit: limit,
		mu:    mu,
		enc:   json.NewEncoder(w),
		done:  make(chan struct{}),
	}
}

// Send encodes msg. Messages sent after close are dropped.
func (t *WriterTransport) Send(ctx context.Context, msg any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-t.done:
		return nil
	default:
	}
	t.mu.Lock()
	err := t.enc.Encode(msg)
	t.mu.Unlock()
	if err != nil {
		return err
	}
	t.sent++
	if t.limit > 0 && t.sent >= t.limit {
		t.Close()
	}
	return nil
}

// Receive blocks until the limit is reached or the transport is closed.
func (t *WriterTransport) Receive() error {
	<-t.done
	return nil
}

// Close releases Receive.
func (t *WriterTransport) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return nil
}

// RemoteAddr returns the transport name.
func (t *WriterTransport) RemoteAddr() string {
	return t.name
}
