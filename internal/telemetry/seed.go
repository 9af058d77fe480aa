package telemetry

import "time"

const day = int64(24 * time.Hour / time.Millisecond)

type seedRow struct {
	id       string
	lat, lng float64
	a, b     float64
	status   Status
	ago      float64 // fraction of a day before now
}

var fireSeed = []seedRow{
	{"F-1", 34.0899, -118.4639, 60, 45, StatusActive, 1},
	{"F-1", 34.0899, -118.4639, 75, 60, StatusActive, 0.5},
	{"F-1", 34.0899, -118.4639, 85, 75, StatusActive, 0.1},
	{"F-2", 34.0599, -118.4239, 45, 30, StatusActive, 0.8},
	{"F-2", 34.0599, -118.4239, 55, 38, StatusActive, 0.4},
	{"F-2", 34.0599, -118.4239, 65, 45, StatusActive, 0.1},
	{"F-3", 34.0799, -118.4039, 70, 80, StatusActive, 0.7},
	{"F-3", 34.0799, -118.4039, 85, 100, StatusCritical, 0.3},
	{"F-3", 34.0799, -118.4039, 90, 120, StatusCritical, 0.05},
	{"F-4", 34.0499, -118.4539, 65, 40, StatusActive, 0.6},
	{"F-4", 34.0499, -118.4539, 50, 35, StatusContained, 0.2},
	{"F-4", 34.0499, -118.4539, 40, 30, StatusContained, 0},
}

var droneSeed = []seedRow{
	{"D-1", 34.0850, -118.4550, 100, 95, StatusActive, 1},
	{"D-1", 34.0870, -118.4530, 90, 75, StatusActive, 0.5},
	{"D-1", 34.0850, -118.4550, 85, 60, StatusActive, 0.1},
	{"D-2", 34.0650, -118.4350, 95, 100, StatusActive, 0.8},
	{"D-2", 34.0640, -118.4360, 65, 95, StatusActive, 0.4},
	{"D-2", 34.0650, -118.4350, 45, 90, StatusActive, 0.1},
	{"D-3", 34.0750, -118.4150, 88, 92, StatusActive, 0.7},
	{"D-3", 34.0760, -118.4140, 90, 90, StatusActive, 0.3},
	{"D-3", 34.0750, -118.4150, 92, 88, StatusActive, 0.05},
	{"D-4", 34.0550, -118.4450, 80, 85, StatusActive, 0.6},
	{"D-4", 34.0560, -118.4440, 45, 65, StatusActive, 0.3},
	{"D-4", 34.0550, -118.4450, 25, 55, StatusLowBattery, 0.1},
	{"D-5", 34.0700, -118.4300, 100, 80, StatusActive, 0.5},
	{"D-5", 34.0710, -118.4290, 82, 40, StatusActive, 0.25},
	{"D-5", 34.0700, -118.4300, 68, 15, StatusLowWater, 0.05},
	{"D-6", 34.0820, -118.4420, 75, 70, StatusActive, 0.4},
	{"D-6", 34.0825, -118.4425, 35, 30, StatusLowBattery, 0.15},
	{"D-6", 34.0820, -118.4420, 5, 8, StatusCritical, 0.02},
}

func seedReadings(rows []seedRow, now time.Time, keyA, keyB string) []Reading {
	nowMs := now.UnixMilli()
	out := make([]Reading, 0, len(rows))
	for _, r := range rows {
		out = append(out, Reading{
			EntityID:  r.id,
			Position:  Position{Lat: r.lat, Lng: r.lng},
			Metrics:   map[string]float64{keyA: r.a, keyB: r.b},
			Status:    r.status,
			Timestamp: nowMs - int64(float64(day)*r.ago),
		})
	}
	return out
}

// SeedFires returns the demo fire history, timestamped relative to now.
func SeedFires(now time.Time) []Reading {
	return seedReadings(fireSeed, now, MetricIntensity, MetricSize)
}

// SeedDrones returns the demo drone history, timestamped relative to now.
func SeedDrones(now time.Time) []Reading {
	return seedReadings(droneSeed, now, MetricBattery, MetricWater)
}

// SeedNotifications returns the acknowledged notifications shown on startup.
func SeedNotifications(now time.Time) []Notification {
	nowMs := now.UnixMilli()
	ago := func(f float64) int64 { return nowMs - int64(float64(day)*f) }
	return []Notification{
		{
			ID:           1,
			Severity:     SeverityCritical,
			Title:        "Fire rapidly expanding in Sector C-2",
			Message:      "Wind speeds have increased to 22 mph. Fire F-2 has grown 40% in the last 15 minutes.",
			Timestamp:    ago(0.9),
			Source:       "Fire Detection System",
			Acknowledged: true,
		},
		{
			ID:           2,
			Severity:     SeverityHigh,
			Title:        "New fire detected in Sector A-7",
			Message:      "Thermal cameras detected heat signature. Size: ~5 acres.",
			Timestamp:    ago(0.7),
			Source:       "Fire Detection System",
			Acknowledged: true,
		},
		{
			ID:           3,
			Severity:     SeverityMedium,
			Title:        "Weather alert: Wind direction shifting",
			Message:      "Expected shift in 30 minutes. May affect fire spread.",
			Timestamp:    ago(0.5),
			Source:       "Weather Monitoring System",
			Acknowledged: true,
		},
		{
			ID:           4,
			Severity:     SeverityLow,
			Title:        "Drone D-12 deployed successfully",
			Message:      "Reached target and began water operations.",
			Timestamp:    ago(0.3),
			Source:       "Drone Management System",
			Acknowledged: true,
		},
	}
}
