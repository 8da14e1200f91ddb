// Package nearby animates decoy driver markers around a pickup point. The
// ghosts exist purely for pre-acceptance UX realism: they never influence
// matching or trip state and vanish entirely when the simulation stops.
package nearby

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"driverhub/internal/domain/geo"
	"driverhub/internal/general/logger"
	"driverhub/internal/sched"
)

// MaxStepDeg is the largest per-axis drift a ghost makes per tick, in
// degrees. 0.00015 degrees is roughly 15-20 meters.
const MaxStepDeg = 0.00015

// Source supplies the initial ghost positions around a center point.
type Source interface {
	NearbyDrivers(ctx context.Context, center geo.LatLng) ([]geo.LatLng, error)
}

// Ghost is one simulated driver marker.
type Ghost struct {
	ID       string
	Position geo.LatLng
}

// Simulator owns the ghost set and its animation timer.
type Simulator struct {
	log      *logger.Logger
	source   Source
	interval time.Duration

	mu     sync.Mutex
	rng    *rand.Rand
	ghosts []Ghost
	ticker *sched.Interval
	subs   map[int]func([]Ghost)
	next   int
}

// NewSimulator creates a stopped simulator. seed fixes the random walk for
// reproducible runs.
func NewSimulator(log *logger.Logger, source Source, interval time.Duration, seed int64) *Simulator {
	return &Simulator{
		log:      log,
		source:   source,
		interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
		subs:     make(map[int]func([]Ghost)),
	}
}

// Start discards any previous simulation, fetches fresh positions near
// center, and begins animating them. Restarting never carries prior ghost
// state over.
func (sim *Simulator) Start(ctx context.Context, center geo.LatLng) error {
	sim.Stop()

	positions, err := sim.source.NearbyDrivers(ctx, center)
	if err != nil {
		return err
	}

	ghosts := make([]Ghost, 0, len(positions))
	for _, pos := range positions {
		if !pos.Valid() {
			continue
		}
		ghosts = append(ghosts, Ghost{ID: uuid.NewString(), Position: pos})
	}

	sim.mu.Lock()
	sim.ghosts = ghosts
	sim.ticker = sched.NewInterval(sim.interval, sim.step)
	sim.mu.Unlock()

	sim.log.Info(ctx, "nearby_sim_started", "Spawned ghost drivers",
		map[string]any{"count": len(ghosts), "lat": center.Lat, "lng": center.Lng})

	sim.publish()
	return nil
}

// step drifts every ghost by an independent uniform offset per axis. It is a
// pure random walk: no destination, no collision avoidance, no respawn.
func (sim *Simulator) step() {
	sim.mu.Lock()
	for i := range sim.ghosts {
		sim.ghosts[i].Position.Lat += (sim.rng.Float64() - 0.5) * 2 * MaxStepDeg
		sim.ghosts[i].Position.Lng += (sim.rng.Float64() - 0.5) * 2 * MaxStepDeg
	}
	sim.mu.Unlock()

	sim.publish()
}

// Ghosts returns a snapshot of the current ghost set.
func (sim *Simulator) Ghosts() []Ghost {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	out := make([]Ghost, len(sim.ghosts))
	copy(out, sim.ghosts)
	return out
}

// Running reports whether an animation timer is active.
func (sim *Simulator) Running() bool {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.ticker != nil
}

// Subscribe registers a callback invoked with the ghost set after every
// animation step. Returns an unsubscribe func.
func (sim *Simulator) Subscribe(cb func([]Ghost)) func() {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	id := sim.next
	sim.next++
	sim.subs[id] = cb
	return func() {
		sim.mu.Lock()
		defer sim.mu.Unlock()
		delete(sim.subs, id)
	}
}

// Stop halts the animation and destroys all ghosts. Subscribers see one final
// empty set so they can remove their markers.
func (sim *Simulator) Stop() {
	sim.mu.Lock()
	ticker := sim.ticker
	sim.ticker = nil
	hadGhosts := len(sim.ghosts) > 0
	sim.ghosts = nil
	sim.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
	}
	if hadGhosts {
		sim.publish()
	}
}

func (sim *Simulator) publish() {
	sim.mu.Lock()
	set := make([]Ghost, len(sim.ghosts))
	copy(set, sim.ghosts)
	subs := make([]func([]Ghost), 0, len(sim.subs))
	for _, cb := range sim.subs {
		subs = append(subs, cb)
	}
	sim.mu.Unlock()

	for _, cb := range subs {
		cb(set)
	}
}
