package telemetry

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"
)

// Clock returns the current time. Generators take one so tests can pin it.
type Clock func() time.Time

func nowOr(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// FireGrowthConfig parameterizes a growing fire.
type FireGrowthConfig struct {
	EntityID          string
	Position          Position
	StartIntensity    float64
	Step              float64
	MaxIntensity      float64
	CriticalThreshold float64
}

// FireGrowth simulates a single fire whose intensity rises each tick.
// State lives for one generator instance only.
type FireGrowth struct {
	cfg       FireGrowthConfig
	intensity float64
	now       Clock
}

// NewFireGrowth creates a fire generator starting at cfg.StartIntensity.
func NewFireGrowth(cfg FireGrowthConfig, now Clock) *FireGrowth {
	return &FireGrowth{cfg: cfg, intensity: cfg.StartIntensity, now: nowOr(now)}
}

// Intensity returns the current tracked intensity.
func (g *FireGrowth) Intensity() float64 {
	return g.intensity
}

// Next advances intensity by one step, saturating at the maximum, and
// returns the resulting reading.
func (g *FireGrowth) Next() Reading {
	g.intensity = math.Min(g.intensity+g.cfg.Step, g.cfg.MaxIntensity)

	status := StatusActive
	if g.intensity >= g.cfg.CriticalThreshold {
		status = StatusCritical
	}

	return Reading{
		EntityID: g.cfg.EntityID,
		Position: g.cfg.Position,
		Metrics: map[string]float64{
			MetricIntensity: g.intensity,
			MetricSize:      fireSize(g.intensity),
		},
		Status:    status,
		Timestamp: g.now().UnixMilli(),
	}
}

// fireSize grows monotonically with intensity.
func fireSize(intensity float64) float64 {
	return 50 + math.Floor(intensity/2)
}

// DroneSortieConfig parameterizes a drone flying around its base.
type DroneSortieConfig struct {
	EntityID     string
	Base         Position
	BatteryDrain float64 // percent per tick
	WaterDrain   float64 // percent per tick
	SpeedMPS     float64
	Interval     time.Duration
}

// DroneSortie simulates one water-bombing drone. Battery and water drain
// every tick and the drone wanders around its base.
type DroneSortie struct {
	cfg      DroneSortieConfig
	position Position
	battery  float64
	water    float64
	rand     *rand.Rand
	now      Clock
}

// NewDroneSortie creates a fully charged, fully loaded drone at its base.
func NewDroneSortie(cfg DroneSortieConfig, rnd *rand.Rand, now Clock) *DroneSortie {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &DroneSortie{cfg: cfg, position: cfg.Base, battery: 100, water: 100, rand: rnd, now: nowOr(now)}
}

// Next moves the drone, drains its resources and returns a reading.
func (g *DroneSortie) Next() Reading {
	g.position = g.walk(g.position)
	g.battery = math.Max(0, g.battery-g.cfg.BatteryDrain)
	g.water = math.Max(0, g.water-g.cfg.WaterDrain)

	return Reading{
		EntityID: g.cfg.EntityID,
		Position: g.position,
		Metrics: map[string]float64{
			MetricBattery: math.Round(g.battery),
			MetricWater:   math.Round(g.water),
		},
		Status:    droneStatus(g.battery, g.water),
		Timestamp: g.now().UnixMilli(),
	}
}

func droneStatus(battery, water float64) Status {
	switch {
	case battery <= 5 || water <= 5:
		return StatusCritical
	case battery <= 30:
		return StatusLowBattery
	case water <= 20:
		return StatusLowWater
	default:
		return StatusActive
	}
}

// walk moves the drone in a pseudo-random direction for one interval.
func (g *DroneSortie) walk(pos Position) Position {
	heading := g.rand.Float64() * 2 * math.Pi
	dist := g.cfg.SpeedMPS * g.cfg.Interval.Seconds() * g.rand.Float64()

	deltaLat := (dist * math.Cos(heading)) / 111000
	deltaLng := (dist * math.Sin(heading)) / (111000 * math.Cos(pos.Lat*math.Pi/180))
	return Position{Lat: pos.Lat + deltaLat, Lng: pos.Lng + deltaLng}
}

// Sequence hands out process-wide, strictly increasing notification ids.
type Sequence struct {
	n atomic.Int64
}

// NewSequence creates a sequence whose first Next returns start+1.
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.n.Store(start)
	return s
}

// Next returns the next id.
func (s *Sequence) Next() int64 {
	return s.n.Add(1)
}

type notificationTemplate struct {
	title  string
	source string
}

var notificationTemplates = []notificationTemplate{
	{"Drone {id} battery at {level}%", "Drone Management System"},
	{"Fire intensity change in Sector {sector}", "Fire Detection System"},
	{"Wind speed alert: {speed} mph", "Weather Monitoring System"},
	{"New deployment to zone {zone}", "Drone Management System"},
}

var (
	sectors = []string{"A-3", "B-7", "C-2", "D-5"}
	zones   = []string{"North", "South", "East", "West"}
)

const automatedMessage = "Automated notification from monitoring system."

// NotificationFeed synthesizes random monitoring notifications.
type NotificationFeed struct {
	seq  *Sequence
	rand *rand.Rand
	now  Clock
}

// NewNotificationFeed creates a feed drawing ids from seq.
func NewNotificationFeed(seq *Sequence, rnd *rand.Rand, now Clock) *NotificationFeed {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &NotificationFeed{seq: seq, rand: rnd, now: nowOr(now)}
}

// Next returns a new unacknowledged notification.
func (f *NotificationFeed) Next() Notification {
	tpl := notificationTemplates[f.rand.Intn(len(notificationTemplates))]
	title := strings.NewReplacer(
		"{id}", fmt.Sprintf("D-%d", f.rand.Intn(20)+1),
		"{level}", fmt.Sprint(f.rand.Intn(91)+5),
		"{sector}", sectors[f.rand.Intn(len(sectors))],
		"{speed}", fmt.Sprint(f.rand.Intn(21)+10),
		"{zone}", zones[f.rand.Intn(len(zones))],
	).Replace(tpl.title)

	return Notification{
		ID:        f.seq.Next(),
		Severity:  Severities[f.rand.Intn(len(Severities))],
		Title:     title,
		Message:   automatedMessage,
		Timestamp: f.now().UnixMilli(),
		Source:    tpl.source,
	}
}
