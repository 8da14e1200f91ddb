package backend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"driverhub/internal/directory"
	"driverhub/internal/domain/booking"
	"driverhub/internal/domain/geo"
	"driverhub/internal/general/contracts"
	"driverhub/internal/general/logger"
	"driverhub/internal/general/rabbitmq"
)

// LocationPublisher broadcasts driver positions on the location fanout
// exchange. Publishes are fire-and-forget from the caller's point of view;
// broker errors are logged and dropped.
type LocationPublisher struct {
	log    *logger.Logger
	client *rabbitmq.Client
}

// NewLocationPublisher wires a publisher on the shared AMQP client.
func NewLocationPublisher(log *logger.Logger, client *rabbitmq.Client) *LocationPublisher {
	return &LocationPublisher{log: log, client: client}
}

// PublishDriverLocation sends one position broadcast.
func (pub *LocationPublisher) PublishDriverLocation(driverID string, position geo.LatLng, online bool, tripStatus booking.Status) {
	msg := contracts.DriverLocationMessage{
		DriverID:   driverID,
		Location:   contracts.GeoPoint{Lat: position.Lat, Lng: position.Lng},
		Online:     online,
		TripStatus: tripStatus.String(),
		Timestamp:  time.Now().UTC(),
		Envelope: contracts.Envelope{
			CorrelationID: uuid.NewString(),
			Producer:      "driver-runtime",
			SentAt:        time.Now().UTC(),
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		pub.log.Error(context.Background(), "location_encode_failed", "Could not encode location broadcast", err, nil)
		return
	}

	if err := pub.client.PublishMessage(contracts.ExchangeLocationFanout, "", body); err != nil {
		pub.log.Error(context.Background(), "location_publish_failed", "Broker rejected location broadcast", err,
			map[string]any{"driver_id": driverID})
	}
}

var _ directory.LocationSink = (*LocationPublisher)(nil)
