// Telemetry records for fires, drones and notifications
package telemetry

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Kind identifies which entity log a reading belongs to.
type Kind string

const (
	KindFire  Kind = "fire"
	KindDrone Kind = "drone"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindFire || k == KindDrone
}

// Status is the operational state reported with a reading.
type Status string

// Reading status constants.
const (
	StatusActive     Status = "Active"
	StatusCritical   Status = "Critical"
	StatusContained  Status = "Contained"
	StatusLowBattery Status = "Low Battery"
	StatusLowWater   Status = "Low Water"
)

// Metric names carried in Reading.Metrics.
const (
	MetricIntensity = "intensity"
	MetricSize      = "size"
	MetricBattery   = "battery"
	MetricWater     = "water"
)

// Position holds latitude and longitude.
type Position struct {
	Lat float64
	Lng float64
}

// Reading is one timestamped snapshot of a fire or drone.
// A reading is never modified after it has been appended to a store.
type Reading struct {
	EntityID  string
	Position  Position
	Metrics   map[string]float64
	Status    Status
	Timestamp int64 // ms since epoch
}

// Clone returns a copy that shares no mutable state with r.
func (r Reading) Clone() Reading {
	r.Metrics = maps.Clone(r.Metrics)
	return r
}

// Time returns the reading timestamp as a time.Time.
func (r Reading) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// reserved keys of the flat wire form; metrics may not use them.
var reservedKeys = map[string]bool{"id": true, "lat": true, "lng": true, "status": true, "timestamp": true}

// MarshalJSON encodes the flat form consumed by the dashboard:
// {"id","lat","lng",<metrics>,"status","timestamp"}.
func (r Reading) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Metrics)+5)
	for k, v := range r.Metrics {
		if reservedKeys[k] {
			return nil, fmt.Errorf("metric %q collides with a reading field", k)
		}
		out[k] = v
	}
	out["id"] = r.EntityID
	out["lat"] = r.Position.Lat
	out["lng"] = r.Position.Lng
	out["status"] = r.Status
	out["timestamp"] = r.Timestamp
	return json.Marshal(out)
}

// UnmarshalJSON decodes the flat form. Every numeric key that is not a
// reading field becomes a metric.
func (r *Reading) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Reading
	for k, v := range raw {
		var err error
		switch k {
		case "id":
			err = json.Unmarshal(v, &out.EntityID)
		case "lat":
			err = json.Unmarshal(v, &out.Position.Lat)
		case "lng":
			err = json.Unmarshal(v, &out.Position.Lng)
		case "status":
			err = json.Unmarshal(v, &out.Status)
		case "timestamp":
			err = json.Unmarshal(v, &out.Timestamp)
		default:
			var f float64
			if json.Unmarshal(v, &f) != nil {
				continue
			}
			if out.Metrics == nil {
				out.Metrics = make(map[string]float64)
			}
			out.Metrics[k] = f
		}
		if err != nil {
			return fmt.Errorf("decode reading field %q: %w", k, err)
		}
	}
	*r = out
	return nil
}

// Severity ranks a notification.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists every severity, most urgent first.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// Notification is an operator-facing alert. Notifications are pushed to
// clients but never stored alongside readings.
type Notification struct {
	ID           int64    `json:"id"`
	Severity     Severity `json:"severity"`
	Title        string   `json:"title"`
	Message      string   `json:"message"`
	Timestamp    int64    `json:"timestamp"`
	Source       string   `json:"source"`
	Acknowledged bool     `json:"acknowledged"`
}

// Envelope wraps a reading for the fire and drone streams.
type Envelope struct {
	Type    Kind    `json:"type"`
	Payload Reading `json:"payload"`
}
