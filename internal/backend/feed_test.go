package backend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverhub/internal/domain/booking"
	"driverhub/internal/general/contracts"
)

func TestDecodeSnapshot(t *testing.T) {
	body := []byte(`{
		"driver_id": "driver-1",
		"bookings": [
			{
				"id": "b1",
				"status": "pending",
				"pickup": {"lat": 15.35, "lng": 44.19, "address": "Old Town"},
				"drop": {"lat": 15.40, "lng": 44.25},
				"distance": "10",
				"duration": "18",
				"service": "standard",
				"created_at": "2026-08-30T10:00:00Z"
			},
			{"id": "b2", "status": "ACCEPTED"}
		],
		"correlation_id": "corr-1",
		"producer": "booking-backend"
	}`)

	msg, err := decodeSnapshot(body)
	require.NoError(t, err)
	assert.Equal(t, "driver-1", msg.DriverID)
	assert.Equal(t, "corr-1", msg.CorrelationID)
	require.Len(t, msg.Bookings, 2)

	trips := toBookings(msg.Bookings)
	require.Len(t, trips, 2)

	assert.Equal(t, "b1", trips[0].ID)
	assert.Equal(t, booking.StatusPending, trips[0].Status)
	require.NotNil(t, trips[0].Pickup)
	assert.InDelta(t, 15.35, trips[0].Pickup.Lat, 1e-9)
	require.NotNil(t, trips[0].Drop)
	assert.Equal(t, "10", trips[0].Distance)
	assert.Equal(t, "standard", trips[0].Service)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), trips[0].CreatedAt)

	// statuses are normalized case-insensitively
	assert.Equal(t, booking.StatusAccepted, trips[1].Status)
	assert.Nil(t, trips[1].Pickup)
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	_, err := decodeSnapshot([]byte("not json"))
	require.Error(t, err)
}

func TestToBookingsKeepsRawUnknownStatus(t *testing.T) {
	trips := toBookings([]contracts.BookingPayload{
		{ID: "b1", Status: "cancelled"},
	})
	require.Len(t, trips, 1)

	// the directory drops it during validation and logs the raw value
	assert.Equal(t, booking.Status("cancelled"), trips[0].Status)
	assert.Error(t, trips[0].Validate())
}
