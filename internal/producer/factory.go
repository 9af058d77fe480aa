package producer

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"mission-control/internal/config"
	"mission-control/internal/telemetry"
)

// Factory builds a fresh producer per connection. Producer state never
// carries over between connections; only the notification sequence and
// the drone numbering are shared.
type Factory struct {
	cfg    config.Producers
	sink   Sink
	seq    *telemetry.Sequence
	drones atomic.Int64
	now    telemetry.Clock
	seed   func() int64
}

// NewFactory creates a factory writing readings to sink.
func NewFactory(cfg config.Producers, sink Sink, seq *telemetry.Sequence, now telemetry.Clock) *Factory {
	var n atomic.Int64
	return &Factory{
		cfg:  cfg,
		sink: sink,
		seq:  seq,
		now:  now,
		seed: func() int64 { return time.Now().UnixNano() + n.Add(1) },
	}
}

// Fire returns a new fire growth producer starting at the configured intensity.
func (f *Factory) Fire() *ReadingProducer {
	c := f.cfg.Fire
	gen := telemetry.NewFireGrowth(telemetry.FireGrowthConfig{
		EntityID:          c.EntityID,
		Position:          telemetry.Position{Lat: c.Lat, Lng: c.Lng},
		StartIntensity:    c.StartIntensity,
		Step:              c.Step,
		MaxIntensity:      c.MaxIntensity,
		CriticalThreshold: c.CriticalThreshold,
	}, f.now)
	return NewReadingProducer(telemetry.KindFire, gen, f.sink, Cadence{Every: c.Interval, Immediate: c.PushOnConnect})
}

// Drone returns a new drone sortie producer with its own drone id.
func (f *Factory) Drone() *ReadingProducer {
	c := f.cfg.Drone
	gen := telemetry.NewDroneSortie(telemetry.DroneSortieConfig{
		EntityID:     fmt.Sprintf("D-L%d", f.drones.Add(1)),
		Base:         telemetry.Position{Lat: c.Lat, Lng: c.Lng},
		BatteryDrain: c.BatteryDrain,
		WaterDrain:   c.WaterDrain,
		SpeedMPS:     c.SpeedMPS,
		Interval:     c.Interval,
	}, rand.New(rand.NewSource(f.seed())), f.now)
	return NewReadingProducer(telemetry.KindDrone, gen, f.sink, Cadence{Every: c.Interval, Immediate: c.PushOnConnect})
}

// Notifications returns a new notification producer.
func (f *Factory) Notifications() *NotificationProducer {
	c := f.cfg.Notifications
	feed := telemetry.NewNotificationFeed(f.seq, rand.New(rand.NewSource(f.seed())), f.now)
	return NewNotificationProducer(feed, Cadence{Every: c.Interval, Immediate: c.PushOnConnect})
}
