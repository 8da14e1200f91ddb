package nearby

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverhub/internal/domain/geo"
	"driverhub/internal/general/logger"
)

func TestRandomSourceScattersWithinRadius(t *testing.T) {
	src := NewRandomSource(8, 0.005, 42)
	center := geo.DefaultCenter

	positions, err := src.NearbyDrivers(context.Background(), center)
	require.NoError(t, err)
	require.Len(t, positions, 8)

	for _, pos := range positions {
		assert.LessOrEqual(t, math.Abs(pos.Lat-center.Lat), 0.005)
		assert.LessOrEqual(t, math.Abs(pos.Lng-center.Lng), 0.005)
	}
}

func TestSimulatorSpawnsAndAnimates(t *testing.T) {
	sim := NewSimulator(logger.New("test"), NewRandomSource(5, 0.005, 1), 10*time.Millisecond, 1)
	defer sim.Stop()

	require.NoError(t, sim.Start(context.Background(), geo.DefaultCenter))
	require.True(t, sim.Running())

	initial := sim.Ghosts()
	require.Len(t, initial, 5)
	byID := make(map[string]geo.LatLng, len(initial))
	for _, g := range initial {
		byID[g.ID] = g.Position
	}

	// wait for a few animation steps
	assert.Eventually(t, func() bool {
		for _, g := range sim.Ghosts() {
			if g.Position != byID[g.ID] {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	// identity is stable across steps and each axis moves in bounded steps
	elapsed := 100 * time.Millisecond
	time.Sleep(elapsed)
	maxTicks := float64(elapsed/(10*time.Millisecond)) + 20 // generous upper bound
	for _, g := range sim.Ghosts() {
		start, ok := byID[g.ID]
		require.True(t, ok, "ghost IDs never change while running")
		assert.LessOrEqual(t, math.Abs(g.Position.Lat-start.Lat), maxTicks*MaxStepDeg)
		assert.LessOrEqual(t, math.Abs(g.Position.Lng-start.Lng), maxTicks*MaxStepDeg)
	}
}

func TestSimulatorStopDestroysGhosts(t *testing.T) {
	sim := NewSimulator(logger.New("test"), NewRandomSource(3, 0.005, 7), 10*time.Millisecond, 7)

	var mu sync.Mutex
	var last []Ghost
	gotEmpty := false
	sim.Subscribe(func(ghosts []Ghost) {
		mu.Lock()
		last = ghosts
		if len(ghosts) == 0 {
			gotEmpty = true
		}
		mu.Unlock()
	})

	require.NoError(t, sim.Start(context.Background(), geo.DefaultCenter))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(last) == 3
	}, time.Second, 5*time.Millisecond)

	sim.Stop()
	assert.False(t, sim.Running())
	assert.Empty(t, sim.Ghosts())

	// subscribers get one final empty set so markers can be removed
	mu.Lock()
	assert.True(t, gotEmpty)
	mu.Unlock()
}

func TestSimulatorRestartSpawnsFreshGhosts(t *testing.T) {
	sim := NewSimulator(logger.New("test"), NewRandomSource(4, 0.005, 9), 10*time.Millisecond, 9)
	defer sim.Stop()
	ctx := context.Background()

	require.NoError(t, sim.Start(ctx, geo.DefaultCenter))
	firstIDs := make(map[string]bool)
	for _, g := range sim.Ghosts() {
		firstIDs[g.ID] = true
	}

	require.NoError(t, sim.Start(ctx, geo.LatLng{Lat: 15.40, Lng: 44.25}))
	ghosts := sim.Ghosts()
	require.Len(t, ghosts, 4)
	for _, g := range ghosts {
		assert.False(t, firstIDs[g.ID], "restart never carries old ghosts over")
	}
}
