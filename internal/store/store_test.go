package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mission-control/internal/telemetry"
)

func reading(id string, ts int64) telemetry.Reading {
	return telemetry.Reading{
		EntityID:  id,
		Metrics:   map[string]float64{telemetry.MetricIntensity: 1},
		Status:    telemetry.StatusActive,
		Timestamp: ts,
	}
}

func TestStore_AppendPreservesArrivalOrder(t *testing.T) {
	s := New()
	require.NoError(t, s.Append(telemetry.KindFire, reading("F-1", 30)))
	require.NoError(t, s.Append(telemetry.KindFire, reading("F-2", 10)))
	require.NoError(t, s.Append(telemetry.KindDrone, reading("D-1", 20)))

	fires := s.Snapshot(telemetry.KindFire)
	require.Len(t, fires, 2)
	assert.Equal(t, "F-1", fires[0].EntityID)
	assert.Equal(t, "F-2", fires[1].EntityID)
	assert.Equal(t, 1, s.Len(telemetry.KindDrone))
}

func TestStore_AppendRejectsBadInput(t *testing.T) {
	s := New()

	err := s.Append(telemetry.Kind("smoke"), reading("S-1", 1))
	assert.ErrorIs(t, err, ErrUnknownKind)

	err = s.Append(telemetry.KindFire, reading("", 1))
	assert.ErrorIs(t, err, ErrInvalidReading)

	err = s.Append(telemetry.KindFire, reading("F-1", 0))
	assert.ErrorIs(t, err, ErrInvalidReading)

	assert.Zero(t, s.Len(telemetry.KindFire))
}

func TestStore_SnapshotIsIndependentCopy(t *testing.T) {
	s := New()
	require.NoError(t, s.Append(telemetry.KindFire, reading("F-1", 1)))

	snap := s.Snapshot(telemetry.KindFire)
	require.NoError(t, s.Append(telemetry.KindFire, reading("F-2", 2)))
	snap[0].EntityID = "mutated"

	assert.Len(t, snap, 1, "snapshot must not grow with later appends")
	assert.Equal(t, "F-1", s.Snapshot(telemetry.KindFire)[0].EntityID)
}

func TestStore_AppendCopiesMetrics(t *testing.T) {
	s := New()
	r := reading("F-1", 1)
	require.NoError(t, s.Append(telemetry.KindFire, r))

	r.Metrics[telemetry.MetricIntensity] = 99
	assert.Equal(t, 1.0, s.Snapshot(telemetry.KindFire)[0].Metrics[telemetry.MetricIntensity])
}

func TestStore_SnapshotUnknownKind(t *testing.T) {
	s := New()
	snap := s.Snapshot(telemetry.Kind("smoke"))
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
}

func TestStore_Seed(t *testing.T) {
	s := New()
	now := time.Now()
	require.NoError(t, s.Seed(telemetry.SeedFires(now), telemetry.SeedDrones(now)))
	assert.Equal(t, 12, s.Len(telemetry.KindFire))
	assert.Equal(t, 18, s.Len(telemetry.KindDrone))

	err := s.Seed([]telemetry.Reading{reading("", 1)}, nil)
	assert.ErrorIs(t, err, ErrInvalidReading)
}

func TestStore_ConcurrentAppendAndSnapshot(t *testing.T) {
	const producers = 8
	const perProducer = 500

	s := New()
	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Readers run for the whole duration of the appends.
	var readers sync.WaitGroup
	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				for _, r := range s.Snapshot(telemetry.KindFire) {
					if r.EntityID == "" || r.Timestamp == 0 {
						t.Errorf("observed partial reading: %+v", r)
						return
					}
				}
			}
		}()
	}

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			kind := telemetry.KindFire
			for i := 0; i < perProducer; i++ {
				id := fmt.Sprintf("P%d-%d", p, i)
				if err := s.Append(kind, reading(id, int64(i+1))); err != nil {
					t.Errorf("append: %v", err)
					return
				}
			}
		}(p)
	}
	wg.Wait()
	close(stop)
	readers.Wait()

	snap := s.Snapshot(telemetry.KindFire)
	require.Len(t, snap, producers*perProducer)

	seen := make(map[string]bool, len(snap))
	for _, r := range snap {
		require.False(t, seen[r.EntityID], "duplicate reading %s", r.EntityID)
		seen[r.EntityID] = true
	}
}
