// Package geolocation defines the raw position source the tracker polls and
// the simulated implementations the repository ships in place of real GPS.
package geolocation

import (
	"context"
	"errors"

	"driverhub/internal/domain/geo"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrTimeout          = errors.New("location request timed out")
	ErrUnavailable      = errors.New("location unavailable")
)

// Provider yields the device's current raw position. A failed read is
// transient: callers keep their last good value and retry on the next tick.
type Provider interface {
	CurrentPosition(ctx context.Context) (geo.LatLng, error)
}
