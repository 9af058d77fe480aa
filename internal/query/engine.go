// Package query answers time-windowed, paginated questions over the
// record store.
package query

import (
	"net/url"
	"slices"
	"time"

	"mission-control/internal/store"
	"mission-control/internal/telemetry"
)

// Totals counts time-filtered readings per kind, independent of paging.
type Totals struct {
	Fires  int `json:"fires"`
	Drones int `json:"drones"`
}

// Result is one page of readings, newest first.
type Result struct {
	Fires  []telemetry.Reading `json:"fires"`
	Drones []telemetry.Reading `json:"drones"`
	Totals Totals              `json:"totals"`
}

// Engine evaluates windows against store snapshots. It holds no state of
// its own and is safe for concurrent use.
type Engine struct {
	src  store.Snapshotter
	opts Options
	now  func() time.Time
}

// NewEngine creates an engine reading from src. A nil now uses time.Now.
func NewEngine(src store.Snapshotter, opts Options, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{src: src, opts: opts, now: now}
}

// Options returns the defaults used by the engine.
func (e *Engine) Options() Options {
	return e.opts
}

// Parse resolves request parameters against the engine clock and defaults.
func (e *Engine) Parse(v url.Values) Window {
	return ParseWindow(v, e.now(), e.opts)
}

// Query filters each log to [Start, End], sorts newest first keeping
// arrival order among equal timestamps, and slices out the requested
// page. The kind excluded by Entity comes back empty but is still counted.
func (e *Engine) Query(w Window) Result {
	w = w.normalize(e.opts)

	fires := inWindow(e.src.Snapshot(telemetry.KindFire), w.Start, w.End)
	drones := inWindow(e.src.Snapshot(telemetry.KindDrone), w.Start, w.End)

	res := Result{
		Fires:  []telemetry.Reading{},
		Drones: []telemetry.Reading{},
		Totals: Totals{Fires: len(fires), Drones: len(drones)},
	}
	if w.Entity != EntityDrones {
		res.Fires = page(newestFirst(fires), w.Page, w.PageSize)
	}
	if w.Entity != EntityFires {
		res.Drones = page(newestFirst(drones), w.Page, w.PageSize)
	}
	return res
}

// Recent returns every reading of both kinds from the trailing span,
// newest first and unpaginated.
func (e *Engine) Recent() Result {
	end := e.now().UnixMilli()
	start := end - e.opts.Span.Milliseconds()

	fires := newestFirst(inWindow(e.src.Snapshot(telemetry.KindFire), start, end))
	drones := newestFirst(inWindow(e.src.Snapshot(telemetry.KindDrone), start, end))
	return Result{
		Fires:  fires,
		Drones: drones,
		Totals: Totals{Fires: len(fires), Drones: len(drones)},
	}
}

func inWindow(rows []telemetry.Reading, start, end int64) []telemetry.Reading {
	out := make([]telemetry.Reading, 0, len(rows))
	for _, r := range rows {
		if r.Timestamp >= start && r.Timestamp <= end {
			out = append(out, r)
		}
	}
	return out
}

// newestFirst sorts in place; the stable sort keeps store order for ties.
func newestFirst(rows []telemetry.Reading) []telemetry.Reading {
	slices.SortStableFunc(rows, func(a, b telemetry.Reading) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		}
		return 0
	})
	return rows
}

func page(rows []telemetry.Reading, n, size int) []telemetry.Reading {
	start := n * size
	if n < 0 || size <= 0 || start/size != n || start >= len(rows) {
		return []telemetry.Reading{}
	}
	end := min(start+size, len(rows))
	return rows[start:end]
}
