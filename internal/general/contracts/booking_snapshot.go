package contracts

import "time"

// BookingPayload is a single booking record as carried by the snapshot feed.
// Distance and duration are numeric strings owned by the booking source.
type BookingPayload struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"` // pending|accepted|arrived|in_progress|completed
	Pickup    *GeoPoint `json:"pickup,omitempty"`
	Drop      *GeoPoint `json:"drop,omitempty"`
	Distance  string    `json:"distance,omitempty"`
	Duration  string    `json:"duration,omitempty"`
	Service   string    `json:"service,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// BookingSnapshotMessage carries the full current booking set for a driver.
// Every delivery replaces the consumer's local view wholesale; it is never a
// delta. Routing key: "booking.snapshot.{driver_id}" on ExchangeBookingTopic.
type BookingSnapshotMessage struct {
	DriverID string           `json:"driver_id"`
	Bookings []BookingPayload `json:"bookings"`
	Envelope
}
