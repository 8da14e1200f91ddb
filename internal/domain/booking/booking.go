package booking

import (
	"errors"
	"strings"
	"time"

	"driverhub/internal/domain/geo"
)

// Booking is a ride request or trip record owned by the booking feed.
// Pickup and Drop may be absent on malformed or draft requests; Distance and
// Duration are numeric strings owned by the booking source and are passed
// through untouched.
type Booking struct {
	ID        string
	Status    Status
	Pickup    *geo.LatLng
	Drop      *geo.LatLng
	Distance  string
	Duration  string
	Service   string
	CreatedAt time.Time
}

var ErrBookingIDRequired = errors.New("booking id is required")

// Validate checks the invariants a booking must hold to be displayed at all.
// Coordinates are optional but, when present, must be well-formed.
func (trip *Booking) Validate() error {
	if strings.TrimSpace(trip.ID) == "" {
		return ErrBookingIDRequired
	}
	if !trip.Status.Valid() {
		return ErrInvalidStatus
	}
	if trip.Pickup != nil {
		if err := trip.Pickup.Validate(); err != nil {
			return err
		}
	}
	if trip.Drop != nil {
		if err := trip.Drop.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ActiveTrip reports whether this booking occupies the active-trip slot.
func (trip *Booking) ActiveTrip() bool {
	return trip.Status.Active()
}

// TargetFor returns the navigation target implied by the given trip status:
// pickup while accepted, drop while in progress, nil otherwise. The status is
// passed in because navigation follows the eagerly-displayed status, which can
// run ahead of the status carried by the booking feed.
func (trip *Booking) TargetFor(status Status) *geo.LatLng {
	switch status {
	case StatusAccepted:
		return trip.Pickup
	case StatusInProgress:
		return trip.Drop
	default:
		return nil
	}
}
