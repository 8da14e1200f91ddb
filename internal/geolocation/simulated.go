package geolocation

import (
	"context"
	"math/rand"
	"sync"

	"driverhub/internal/domain/geo"
)

// Simulated is a Provider that random-walks from a starting point, standing
// in for device GPS the way the original demo backend does. Each read drifts
// the position by an independent uniform offset per axis.
type Simulated struct {
	mu      sync.Mutex
	current geo.LatLng
	stepDeg float64
	rng     *rand.Rand
}

// NewSimulated creates a simulated provider starting at start, drifting up to
// ±stepDeg degrees per axis per read.
func NewSimulated(start geo.LatLng, stepDeg float64, seed int64) *Simulated {
	return &Simulated{
		current: start,
		stepDeg: stepDeg,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// CurrentPosition returns the next point of the walk.
func (sim *Simulated) CurrentPosition(ctx context.Context) (geo.LatLng, error) {
	if err := ctx.Err(); err != nil {
		return geo.LatLng{}, ErrTimeout
	}
	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.current.Lat += (sim.rng.Float64() - 0.5) * 2 * sim.stepDeg
	sim.current.Lng += (sim.rng.Float64() - 0.5) * 2 * sim.stepDeg
	return sim.current, nil
}

// Static is a Provider pinned to a fixed position.
type Static struct {
	Position geo.LatLng
}

// CurrentPosition returns the fixed position.
func (s Static) CurrentPosition(ctx context.Context) (geo.LatLng, error) {
	if err := ctx.Err(); err != nil {
		return geo.LatLng{}, ErrTimeout
	}
	return s.Position, nil
}
