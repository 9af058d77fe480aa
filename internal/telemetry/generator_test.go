package telemetry

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func testFireConfig() FireGrowthConfig {
	return FireGrowthConfig{
		EntityID:          "F-TEST",
		Position:          Position{Lat: 34.12, Lng: -118.40},
		StartIntensity:    30,
		Step:              5,
		MaxIntensity:      100,
		CriticalThreshold: 80,
	}
}

func TestFireGrowthReachesCriticalAtThreshold(t *testing.T) {
	gen := NewFireGrowth(testFireConfig(), fixedClock(time.UnixMilli(1_000)))

	for tick := 1; tick <= 20; tick++ {
		r := gen.Next()
		intensity := r.Metrics[MetricIntensity]
		want := 30 + 5*float64(tick)
		if want > 100 {
			want = 100
		}
		if intensity != want {
			t.Fatalf("tick %d: intensity=%v, want %v", tick, intensity, want)
		}
		if intensity < 80 && r.Status != StatusActive {
			t.Fatalf("tick %d: status=%s at intensity %v, want Active", tick, r.Status, intensity)
		}
		if intensity >= 80 && r.Status != StatusCritical {
			t.Fatalf("tick %d: status=%s at intensity %v, want Critical", tick, r.Status, intensity)
		}
		if tick == 10 && (intensity != 80 || r.Status != StatusCritical) {
			t.Fatalf("tick 10 should first reach Critical at 80, got %v %s", intensity, r.Status)
		}
	}
	if gen.Intensity() != 100 {
		t.Errorf("expected intensity capped at 100, got %v", gen.Intensity())
	}
}

func TestFireGrowthReading(t *testing.T) {
	gen := NewFireGrowth(testFireConfig(), fixedClock(time.UnixMilli(42)))
	r := gen.Next()

	if r.EntityID != "F-TEST" {
		t.Errorf("expected F-TEST, got %s", r.EntityID)
	}
	if r.Position.Lat != 34.12 || r.Position.Lng != -118.40 {
		t.Errorf("unexpected position %+v", r.Position)
	}
	if r.Timestamp != 42 {
		t.Errorf("expected timestamp 42, got %d", r.Timestamp)
	}
	// 50 + floor(35/2)
	if r.Metrics[MetricSize] != 67 {
		t.Errorf("expected size 67, got %v", r.Metrics[MetricSize])
	}
}

func TestFireGrowthStateIsPerInstance(t *testing.T) {
	a := NewFireGrowth(testFireConfig(), nil)
	a.Next()
	a.Next()
	b := NewFireGrowth(testFireConfig(), nil)
	if got := b.Next().Metrics[MetricIntensity]; got != 35 {
		t.Errorf("new instance should restart from 30, got %v", got)
	}
}

func TestFireSizeMonotonic(t *testing.T) {
	prev := fireSize(0)
	for i := 1.0; i <= 100; i++ {
		s := fireSize(i)
		if s < prev {
			t.Fatalf("size decreased at intensity %v: %v < %v", i, s, prev)
		}
		prev = s
	}
}

func TestDroneSortieDrainsAndDegrades(t *testing.T) {
	gen := NewDroneSortie(DroneSortieConfig{
		EntityID:     "D-TEST",
		Base:         Position{Lat: 34.07, Lng: -118.43},
		BatteryDrain: 10,
		WaterDrain:   5,
		SpeedMPS:     10,
		Interval:     time.Second,
	}, rand.New(rand.NewSource(1)), fixedClock(time.UnixMilli(7)))

	first := gen.Next()
	if first.Metrics[MetricBattery] != 90 || first.Metrics[MetricWater] != 95 {
		t.Fatalf("unexpected first reading metrics: %+v", first.Metrics)
	}
	if first.Status != StatusActive {
		t.Errorf("expected Active, got %s", first.Status)
	}

	var last Reading
	for i := 0; i < 20; i++ {
		last = gen.Next()
	}
	if last.Metrics[MetricBattery] != 0 {
		t.Errorf("battery should bottom out at 0, got %v", last.Metrics[MetricBattery])
	}
	if last.Status != StatusCritical {
		t.Errorf("expected Critical, got %s", last.Status)
	}
}

func TestDroneStatus(t *testing.T) {
	cases := []struct {
		battery, water float64
		want           Status
	}{
		{100, 100, StatusActive},
		{30, 100, StatusLowBattery},
		{80, 20, StatusLowWater},
		{5, 80, StatusCritical},
		{80, 4, StatusCritical},
	}
	for _, c := range cases {
		if got := droneStatus(c.battery, c.water); got != c.want {
			t.Errorf("droneStatus(%v,%v)=%s, want %s", c.battery, c.water, got, c.want)
		}
	}
}

func TestSequenceStartsAfterSeed(t *testing.T) {
	seq := NewSequence(100)
	if got := seq.Next(); got != 101 {
		t.Fatalf("expected 101, got %d", got)
	}
	if got := seq.Next(); got != 102 {
		t.Fatalf("expected 102, got %d", got)
	}
}

func TestNotificationFeed(t *testing.T) {
	seq := NewSequence(100)
	feed := NewNotificationFeed(seq, rand.New(rand.NewSource(3)), fixedClock(time.UnixMilli(99)))
	other := NewNotificationFeed(seq, rand.New(rand.NewSource(4)), nil)

	var last int64
	for i := 0; i < 10; i++ {
		f := feed
		if i%2 == 1 {
			f = other
		}
		n := f.Next()
		if n.ID <= last {
			t.Fatalf("ids must increase across feeds: %d after %d", n.ID, last)
		}
		last = n.ID
		if n.Acknowledged {
			t.Errorf("live notifications must be unacknowledged")
		}
		if n.Message != automatedMessage || n.Source == "" || n.Title == "" {
			t.Errorf("incomplete notification: %+v", n)
		}
		valid := false
		for _, s := range Severities {
			valid = valid || n.Severity == s
		}
		if !valid {
			t.Errorf("unknown severity %q", n.Severity)
		}
	}
	if n := feed.Next(); n.Timestamp != 99 {
		t.Errorf("expected pinned timestamp, got %d", n.Timestamp)
	}
}

func TestReadingJSONFlat(t *testing.T) {
	r := Reading{
		EntityID:  "F-1",
		Position:  Position{Lat: 1.5, Lng: -2.5},
		Metrics:   map[string]float64{MetricIntensity: 60, MetricSize: 45},
		Status:    StatusActive,
		Timestamp: 1234,
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if flat["id"] != "F-1" || flat["intensity"] != 60.0 || flat["lng"] != -2.5 || flat["timestamp"] != 1234.0 {
		t.Fatalf("unexpected wire form: %s", data)
	}

	var back Reading
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.EntityID != r.EntityID || back.Metrics[MetricSize] != 45 || back.Timestamp != 1234 {
		t.Fatalf("unexpected decoded reading: %+v", back)
	}
}

func TestReadingJSONRejectsReservedMetric(t *testing.T) {
	r := Reading{EntityID: "x", Metrics: map[string]float64{"status": 1}}
	if _, err := json.Marshal(r); err == nil {
		t.Fatal("expected error for metric shadowing a reading field")
	}
}

func TestReadingCloneIsolatesMetrics(t *testing.T) {
	r := Reading{EntityID: "x", Metrics: map[string]float64{MetricBattery: 50}}
	c := r.Clone()
	r.Metrics[MetricBattery] = 10
	if c.Metrics[MetricBattery] != 50 {
		t.Fatalf("clone shares metrics map")
	}
}

func TestSeedWithinLastDay(t *testing.T) {
	now := time.UnixMilli(10 * day)
	for _, r := range append(SeedFires(now), SeedDrones(now)...) {
		if r.Timestamp < now.UnixMilli()-day || r.Timestamp > now.UnixMilli() {
			t.Errorf("seed reading %s outside last day: %d", r.EntityID, r.Timestamp)
		}
	}
	if got := len(SeedFires(now)); got != 12 {
		t.Errorf("expected 12 seeded fires, got %d", got)
	}
	if got := len(SeedDrones(now)); got != 18 {
		t.Errorf("expected 18 seeded drones, got %d", got)
	}
	if got := len(SeedNotifications(now)); got != 4 {
		t.Errorf("expected 4 seeded notifications, got %d", got)
	}
}
