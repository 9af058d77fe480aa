// Package producer builds the synthetic per-connection data sources.
package producer

import (
	"context"
	"time"

	"mission-control/internal/logging"
	"mission-control/internal/telemetry"
)

// Cadence describes when a producer emits.
type Cadence struct {
	Every time.Duration
	// Immediate sends the first message on connect instead of after Every.
	Immediate bool
}

// Interval returns the tick interval.
func (c Cadence) Interval() time.Duration { return c.Every }

// PushOnConnect reports whether the first message goes out on connect.
func (c Cadence) PushOnConnect() bool { return c.Immediate }

type readingSource interface {
	Next() telemetry.Reading
}

// ReadingProducer emits fire or drone readings. Each reading is written to
// the sink before it is returned for pushing.
type ReadingProducer struct {
	Cadence
	kind telemetry.Kind
	gen  readingSource
	sink Sink
}

// NewReadingProducer creates a producer for kind backed by gen.
func NewReadingProducer(kind telemetry.Kind, gen readingSource, sink Sink, c Cadence) *ReadingProducer {
	return &ReadingProducer{Cadence: c, kind: kind, gen: gen, sink: sink}
}

// Name returns the stream name.
func (p *ReadingProducer) Name() string { return string(p.kind) }

// Next generates a reading, records it and returns the stream envelope.
// A sink failure is logged and does not stop the push.
func (p *ReadingProducer) Next(ctx context.Context) (any, error) {
	r := p.gen.Next()
	if p.sink != nil {
		if err := p.sink.Write(p.kind, r); err != nil {
			logging.FromContext(ctx).Warn("record reading failed",
				"kind", p.kind, "entity_id", r.EntityID, "err", err)
		}
	}
	return telemetry.Envelope{Type: p.kind, Payload: r}, nil
}

// NotificationProducer emits notifications. They are pushed only, never stored.
type NotificationProducer struct {
	Cadence
	feed *telemetry.NotificationFeed
}

// NewNotificationProducer creates a producer backed by feed.
func NewNotificationProducer(feed *telemetry.NotificationFeed, c Cadence) *NotificationProducer {
	return &NotificationProducer{Cadence: c, feed: feed}
}

// Name returns the stream name.
func (p *NotificationProducer) Name() string { return "notifications" }

// Next returns the next notification.
func (p *NotificationProducer) Next(context.Context) (any, error) {
	return p.feed.Next(), nil
}
