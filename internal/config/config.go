// YAML config loader with CUE validation and env overrides
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Server configures the HTTP and WebSocket listener.
type Server struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	WriteWait       time.Duration `yaml:"write_wait"`
	PongWait        time.Duration `yaml:"pong_wait"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Fire configures the per-connection fire growth producer.
type Fire struct {
	EntityID          string        `yaml:"entity_id"`
	Lat               float64       `yaml:"lat"`
	Lng               float64       `yaml:"lng"`
	Interval          time.Duration `yaml:"interval"`
	PushOnConnect     bool          `yaml:"push_on_connect"`
	StartIntensity    float64       `yaml:"start_intensity"`
	Step              float64       `yaml:"step"`
	MaxIntensity      float64       `yaml:"max_intensity"`
	CriticalThreshold float64       `yaml:"critical_threshold"`
}

// Drone configures the per-connection drone sortie producer.
type Drone struct {
	Lat           float64       `yaml:"lat"`
	Lng           float64       `yaml:"lng"`
	Interval      time.Duration `yaml:"interval"`
	PushOnConnect bool          `yaml:"push_on_connect"`
	BatteryDrain  float64       `yaml:"battery_drain"`
	WaterDrain    float64       `yaml:"water_drain"`
	SpeedMPS      float64       `yaml:"speed_mps"`
}

// Notifications configures the per-connection notification producer.
type Notifications struct {
	Interval      time.Duration `yaml:"interval"`
	PushOnConnect bool          `yaml:"push_on_connect"`
	// FirstID is the counter value before the first live notification.
	FirstID int64 `yaml:"first_id"`
}

// Producers groups the synthetic producer settings.
type Producers struct {
	Fire          Fire          `yaml:"fire"`
	Drone         Drone         `yaml:"drone"`
	Notifications Notifications `yaml:"notifications"`
}

// Store configures the record store.
type Store struct {
	Seed bool `yaml:"seed"`
}

// Query configures the query engine defaults.
type Query struct {
	Window          time.Duration `yaml:"window"`
	DefaultPageSize int           `yaml:"default_page_size"`
	MaxPageSize     int           `yaml:"max_page_size"`
}

// Config is the root configuration.
type Config struct {
	Server    Server    `yaml:"server"`
	Log       Log       `yaml:"log"`
	Producers Producers `yaml:"producers"`
	Store     Store     `yaml:"store"`
	Query     Query     `yaml:"query"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8000",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
			WriteWait:       10 * time.Second,
			PongWait:        60 * time.Second,
		},
		Log: Log{Level: "info", Format: "text"},
		Producers: Producers{
			Fire: Fire{
				EntityID:          "F-TEST",
				Lat:               34.12,
				Lng:               -118.40,
				Interval:          20 * time.Second,
				PushOnConnect:     true,
				StartIntensity:    30,
				Step:              5,
				MaxIntensity:      100,
				CriticalThreshold: 80,
			},
			Drone: Drone{
				Lat:           34.07,
				Lng:           -118.43,
				Interval:      10 * time.Second,
				PushOnConnect: true,
				BatteryDrain:  1.5,
				WaterDrain:    2.5,
				SpeedMPS:      12,
			},
			Notifications: Notifications{
				Interval: 15 * time.Second,
				FirstID:  100,
			},
		},
		Store: Store{Seed: true},
		Query: Query{
			Window:          24 * time.Hour,
			DefaultPageSize: 50,
			MaxPageSize:     500,
		},
	}
}

// Load reads a YAML config over the defaults. When schemaPath is set the
// file is validated against the CUE schema first. Env overrides are
// applied last.
func Load(path, schemaPath string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if schemaPath != "" {
			if err := ValidateWithCue(path, schemaPath); err != nil {
				return nil, err
			}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides selected settings from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("MISSION_CONTROL_ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"FIRE_TICK_INTERVAL", &c.Producers.Fire.Interval},
		{"DRONE_TICK_INTERVAL", &c.Producers.Drone.Interval},
		{"NOTIFICATION_TICK_INTERVAL", &c.Producers.Notifications.Interval},
	}
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

// Validate checks cross-field constraints the schema cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	for name, d := range map[string]time.Duration{
		"producers.fire.interval":          c.Producers.Fire.Interval,
		"producers.drone.interval":         c.Producers.Drone.Interval,
		"producers.notifications.interval": c.Producers.Notifications.Interval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	f := c.Producers.Fire
	if f.StartIntensity > f.MaxIntensity {
		errs = append(errs, errors.New("producers.fire.start_intensity exceeds max_intensity"))
	}
	if f.Step <= 0 {
		errs = append(errs, errors.New("producers.fire.step must be positive"))
	}
	q := c.Query
	if q.DefaultPageSize <= 0 || q.MaxPageSize < q.DefaultPageSize {
		errs = append(errs, errors.New("query page sizes must satisfy 0 < default_page_size <= max_page_size"))
	}
	if q.Window <= 0 {
		errs = append(errs, errors.New("query.window must be positive"))
	}
	return errors.Join(errs...)
}
