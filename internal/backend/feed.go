package backend

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"driverhub/internal/directory"
	"driverhub/internal/domain/booking"
	"driverhub/internal/domain/geo"
	"driverhub/internal/general/contracts"
	"driverhub/internal/general/logger"
	"driverhub/internal/general/rabbitmq"
)

// Feed consumes booking snapshot messages and replaces the directory's view.
type Feed struct {
	log      *logger.Logger
	client   *rabbitmq.Client
	dir      *directory.Directory
	driverID string
}

// NewFeed wires a snapshot consumer for one driver.
func NewFeed(log *logger.Logger, client *rabbitmq.Client, dir *directory.Directory, driverID string) *Feed {
	return &Feed{log: log, client: client, dir: dir, driverID: driverID}
}

// Run consumes until ctx is cancelled. Each snapshot replaces the booking set
// wholesale; snapshots are never merged with the previous view.
func (feed *Feed) Run(ctx context.Context) error {
	return feed.client.Consume(ctx, contracts.QueueBookingSnapshots, "driverhub-feed", 1, feed.handle)
}

func (feed *Feed) handle(ctx context.Context, d amqp.Delivery) error {
	snapshot, err := decodeSnapshot(d.Body)
	if err != nil {
		feed.log.Error(ctx, "snapshot_decode_failed", "Dropping undecodable snapshot", err,
			map[string]any{"size": len(d.Body)})
		return err
	}

	// snapshots for other drivers share the queue in multi-driver setups
	if snapshot.DriverID != "" && snapshot.DriverID != feed.driverID {
		return nil
	}

	feed.dir.ReplaceBookings(ctx, toBookings(snapshot.Bookings))
	return nil
}

// decodeSnapshot parses a snapshot message body.
func decodeSnapshot(body []byte) (*contracts.BookingSnapshotMessage, error) {
	var msg contracts.BookingSnapshotMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decode booking snapshot: %w", err)
	}
	return &msg, nil
}

// toBookings maps wire payloads into domain bookings. Entries that fail to
// parse keep their raw status so the directory can log and drop them itself.
func toBookings(payloads []contracts.BookingPayload) []booking.Booking {
	out := make([]booking.Booking, 0, len(payloads))
	for _, p := range payloads {
		status, err := booking.ParseStatus(p.Status)
		if err != nil {
			status = booking.Status(p.Status)
		}

		trip := booking.Booking{
			ID:        p.ID,
			Status:    status,
			Distance:  p.Distance,
			Duration:  p.Duration,
			Service:   p.Service,
			CreatedAt: p.CreatedAt,
		}
		if p.Pickup != nil {
			trip.Pickup = &geo.LatLng{Lat: p.Pickup.Lat, Lng: p.Pickup.Lng}
		}
		if p.Drop != nil {
			trip.Drop = &geo.LatLng{Lat: p.Drop.Lat, Lng: p.Drop.Lng}
		}
		out = append(out, trip)
	}
	return out
}
