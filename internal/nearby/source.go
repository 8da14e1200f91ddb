package nearby

import (
	"context"
	"math/rand"
	"sync"

	"driverhub/internal/domain/geo"
)

// RandomSource is the simulated backend for ghost positions: it scatters a
// fixed number of points uniformly within a radius of the center.
type RandomSource struct {
	Count     int
	RadiusDeg float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource builds a source producing count points within radiusDeg
// degrees of the requested center.
func NewRandomSource(count int, radiusDeg float64, seed int64) *RandomSource {
	return &RandomSource{
		Count:     count,
		RadiusDeg: radiusDeg,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// NearbyDrivers returns freshly scattered positions near center.
func (src *RandomSource) NearbyDrivers(ctx context.Context, center geo.LatLng) ([]geo.LatLng, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src.mu.Lock()
	defer src.mu.Unlock()

	out := make([]geo.LatLng, 0, src.Count)
	for i := 0; i < src.Count; i++ {
		out = append(out, geo.LatLng{
			Lat: center.Lat + (src.rng.Float64()-0.5)*2*src.RadiusDeg,
			Lng: center.Lng + (src.rng.Float64()-0.5)*2*src.RadiusDeg,
		})
	}
	return out, nil
}
