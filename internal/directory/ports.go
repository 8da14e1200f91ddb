package directory

import (
	"context"

	"driverhub/internal/domain/booking"
	"driverhub/internal/domain/geo"
)

// Gateway is the awaitable write path for booking status. It is the single
// serialization point for status mutations; the directory never mutates a
// booking any other way.
type Gateway interface {
	UpdateBookingStatus(ctx context.Context, bookingID string, status booking.Status, driverID string) error
}

// LocationSink receives fire-and-forget driver position broadcasts so
// observers outside this process see operator overrides immediately.
type LocationSink interface {
	PublishDriverLocation(driverID string, position geo.LatLng, online bool, tripStatus booking.Status)
}

// HistoryArchive persists completed trips. Archive failures are logged and
// swallowed; the in-memory history is authoritative for the session.
type HistoryArchive interface {
	Archive(ctx context.Context, driverID string, trip *booking.Booking) error
	Recent(ctx context.Context, driverID string, limit int) ([]booking.Booking, error)
}

// DriverState is the backend's view of the driver as delivered over the
// push stream: online flag plus last stored position (nil when none).
type DriverState struct {
	Online   bool
	Position *geo.LatLng
}
