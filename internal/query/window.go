package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Entity selects which reading lists a query returns.
type Entity string

const (
	EntityFires  Entity = "fires"
	EntityDrones Entity = "drones"
	EntityBoth   Entity = "both"
)

// ParseEntity maps a request value to an Entity, defaulting to both.
func ParseEntity(s string) Entity {
	switch Entity(strings.ToLower(strings.TrimSpace(s))) {
	case EntityFires, "fire":
		return EntityFires
	case EntityDrones, "drone":
		return EntityDrones
	}
	return EntityBoth
}

// Window is the time range, entity filter and paging of one query.
// Start and End are inclusive ms timestamps.
type Window struct {
	Start    int64
	End      int64
	Entity   Entity
	Page     int
	PageSize int
}

// Options holds the defaults used when a request leaves fields out.
type Options struct {
	Span            time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultOptions returns a 24h span and 50-row pages capped at 500.
func DefaultOptions() Options {
	return Options{Span: 24 * time.Hour, DefaultPageSize: 50, MaxPageSize: 500}
}

// ParseWindow builds a Window from query parameters start, end, entity,
// page and page_size. Missing or malformed values fall back to defaults;
// parsing never fails.
func ParseWindow(v url.Values, now time.Time, opts Options) Window {
	nowMs := now.UnixMilli()
	w := Window{
		Start:    parseInt(v.Get("start"), nowMs-opts.Span.Milliseconds()),
		End:      parseInt(v.Get("end"), nowMs),
		Entity:   ParseEntity(v.Get("entity")),
		Page:     int(parseInt(v.Get("page"), 0)),
		PageSize: int(parseInt(v.Get("page_size"), int64(opts.DefaultPageSize))),
	}
	return w.normalize(opts)
}

// normalize clamps paging so slicing can never go negative or unbounded.
func (w Window) normalize(opts Options) Window {
	if w.Page < 0 {
		w.Page = 0
	}
	if w.PageSize <= 0 {
		w.PageSize = opts.DefaultPageSize
	}
	if w.PageSize <= 0 {
		w.PageSize = DefaultOptions().DefaultPageSize
	}
	if opts.MaxPageSize > 0 && w.PageSize > opts.MaxPageSize {
		w.PageSize = opts.MaxPageSize
	}
	if w.Entity == "" {
		w.Entity = EntityBoth
	}
	return w
}

// parseInt accepts integers and integral floats such as "1700000000000.0".
func parseInt(s string, def int64) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f > 9e18 || f < -9e18 {
		return def
	}
	return int64(f)
}
