package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu      sync.Mutex
	sent    []any
	sendErr error

	peer      chan error
	closed    chan struct{}
	closeOnce sync.Once
	closes    atomic.Int32
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{peer: make(chan error, 1), closed: make(chan struct{})}
}

func (f *fakeTransport) Send(_ context.Context, msg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) Receive() error {
	select {
	case err := <-f.peer:
		return err
	case <-f.closed:
		return errors.New("use of closed connection")
	}
}

func (f *fakeTransport) Close() error {
	f.closes.Add(1)
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) RemoteAddr() string { return "fake:1" }

func (f *fakeTransport) messages() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.sent...)
}

type countingProducer struct {
	name      string
	interval  time.Duration
	immediate bool
	calls     atomic.Int64
}

func (p *countingProducer) Name() string            { return p.name }
func (p *countingProducer) Interval() time.Duration { return p.interval }
func (p *countingProducer) PushOnConnect() bool     { return p.immediate }
func (p *countingProducer) Next(context.Context) (any, error) {
	return p.calls.Add(1), nil
}

func serveAsync(m *Manager, ctx context.Context, t Transport, p Producer) <-chan error {
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx, t, p) }()
	return done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
		return nil
	}
}

func TestServePushesInTickOrderUntilPeerCloses(t *testing.T) {
	m := NewManager(nil)
	tr := newFakeTransport()
	p := &countingProducer{name: "fire", interval: 5 * time.Millisecond, immediate: true}

	done := serveAsync(m, context.Background(), tr, p)
	require.Eventually(t, func() bool { return len(tr.messages()) >= 4 }, time.Second, time.Millisecond)
	require.Len(t, m.Active(), 1)
	assert.Equal(t, Active, m.Active()[0].State)

	tr.peer <- nil
	require.NoError(t, wait(t, done))

	after := p.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, p.calls.Load(), "producer ran after Serve returned")
	assert.Zero(t, m.Len())

	msgs := tr.messages()
	for i, msg := range msgs {
		assert.Equal(t, int64(i+1), msg)
	}
	assert.GreaterOrEqual(t, tr.closes.Load(), int32(1))
}

func TestServeWithoutImmediatePushWaitsOneInterval(t *testing.T) {
	m := NewManager(nil)
	tr := newFakeTransport()
	p := &countingProducer{name: "notifications", interval: 200 * time.Millisecond}

	done := serveAsync(m, context.Background(), tr, p)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, tr.messages())
	require.Eventually(t, func() bool { return len(tr.messages()) == 1 }, time.Second, 5*time.Millisecond)

	tr.peer <- nil
	require.NoError(t, wait(t, done))
}

func TestServeCancelledContextIsOrderly(t *testing.T) {
	m := NewManager(nil)
	tr := newFakeTransport()
	p := &countingProducer{name: "drone", interval: time.Millisecond, immediate: true}
	ctx, cancel := context.WithCancel(context.Background())

	done := serveAsync(m, ctx, tr, p)
	require.Eventually(t, func() bool { return p.calls.Load() > 0 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, wait(t, done))

	after := p.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, p.calls.Load())
}

func TestServeSendFailureEndsSession(t *testing.T) {
	m := NewManager(nil)
	tr := newFakeTransport()
	tr.sendErr = errors.New("broken pipe")
	p := &countingProducer{name: "fire", interval: time.Millisecond, immediate: true}

	err := wait(t, serveAsync(m, context.Background(), tr, p))
	require.Error(t, err)
	assert.ErrorContains(t, err, "broken pipe")
	assert.Equal(t, int64(1), p.calls.Load())
	assert.Zero(t, m.Len())
}

func TestServeUnexpectedPeerErrorIsReturned(t *testing.T) {
	m := NewManager(nil)
	tr := newFakeTransport()
	p := &countingProducer{name: "fire", interval: time.Hour}

	done := serveAsync(m, context.Background(), tr, p)
	tr.peer <- errors.New("read timeout")
	assert.ErrorContains(t, wait(t, done), "read timeout")
}

func TestServeCancellationDoesNotCrossSessions(t *testing.T) {
	m := NewManager(nil)
	a, b := newFakeTransport(), newFakeTransport()
	pa := &countingProducer{name: "fire", interval: 2 * time.Millisecond, immediate: true}
	pb := &countingProducer{name: "fire", interval: 2 * time.Millisecond, immediate: true}

	doneA := serveAsync(m, context.Background(), a, pa)
	doneB := serveAsync(m, context.Background(), b, pb)
	require.Eventually(t, func() bool { return m.Len() == 2 }, time.Second, time.Millisecond)

	a.peer <- nil
	require.NoError(t, wait(t, doneA))

	before := pb.calls.Load()
	require.Eventually(t, func() bool { return pb.calls.Load() > before+2 }, time.Second, time.Millisecond)
	require.Len(t, m.Active(), 1)

	b.peer <- nil
	require.NoError(t, wait(t, doneB))
}

func TestServeRejectsZeroInterval(t *testing.T) {
	m := NewManager(nil)
	tr := newFakeTransport()
	err := m.Serve(context.Background(), tr, &countingProducer{name: "fire"})
	require.Error(t, err)
	assert.Equal(t, int32(1), tr.closes.Load())
}

func TestShutdownJoinsAllSessions(t *testing.T) {
	m := NewManager(nil)
	var dones []<-chan error
	var producers []*countingProducer
	for i := 0; i < 5; i++ {
		p := &countingProducer{name: "fire", interval: time.Millisecond, immediate: true}
		producers = append(producers, p)
		dones = append(dones, serveAsync(m, context.Background(), newFakeTransport(), p))
	}
	require.Eventually(t, func() bool { return m.Len() == 5 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	assert.Zero(t, m.Len())
	for _, d := range dones {
		assert.NoError(t, wait(t, d))
	}

	counts := make([]int64, len(producers))
	for i, p := range producers {
		counts[i] = p.calls.Load()
	}
	time.Sleep(20 * time.Millisecond)
	for i, p := range producers {
		assert.Equal(t, counts[i], p.calls.Load())
	}

	tr := newFakeTransport()
	err := m.Serve(context.Background(), tr, &countingProducer{name: "fire", interval: time.Millisecond})
	assert.ErrorIs(t, err, ErrShutdown)
	assert.Equal(t, int32(1), tr.closes.Load())
}

func TestSessionStateOnlyMovesForward(t *testing.T) {
	s := newSession("fire", "x", func() {})
	assert.Equal(t, Connecting, s.State())
	assert.True(t, s.advance(Disconnecting))
	assert.False(t, s.advance(Active))
	assert.Equal(t, Disconnecting, s.State())
	assert.True(t, s.advance(Terminated))
	assert.Equal(t, "terminated", s.State().String())
}
