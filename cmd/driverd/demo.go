package driverd

import (
	"context"
	"math/rand"
	"time"

	"driverhub/internal/directory"
	"driverhub/internal/domain/geo"
	"driverhub/internal/general/logger"
	"driverhub/internal/location"
	"driverhub/internal/search"
)

const (
	demoHopInterval = 5 * time.Second
	demoHopRangeDeg = 0.01
)

// runDemo stands in for an operator clicking around the map: every few
// seconds the driver teleports to a random nearby point through the position
// override, which broadcasts immediately over the location fanout.
func runDemo(ctx context.Context, log *logger.Logger, dir *directory.Directory,
	tracker *location.Tracker, labeler *search.Labeler,
) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(demoHopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		center := geo.DefaultCenter
		if pos := tracker.Current(); pos != nil {
			center = *pos
		}
		// hop toward the active target when one exists so demo trips progress
		if trip := dir.ActiveTrip(); trip != nil {
			if target := trip.TargetFor(dir.DisplayedStatus()); target != nil {
				center = *target
			}
		}

		hop := geo.LatLng{
			Lat: center.Lat + (rng.Float64()-0.5)*demoHopRangeDeg,
			Lng: center.Lng + (rng.Float64()-0.5)*demoHopRangeDeg,
		}
		if err := tracker.SetPosition(ctx, hop); err != nil {
			log.Debug(ctx, "demo_hop_failed", "Demo teleport rejected",
				map[string]any{"error": err.Error()})
			continue
		}
		labeler.Resolve(hop, func(label string) {
			log.Info(ctx, "demo_hop", "Demo driver relocated", map[string]any{"address": label})
		})
	}
}
