package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverhub/internal/domain/geo"
)

func ptLatLng(lat, lng float64) *geo.LatLng {
	return &geo.LatLng{Lat: lat, Lng: lng}
}

func TestBookingValidate(t *testing.T) {
	tests := []struct {
		name    string
		trip    Booking
		wantErr error
	}{
		{
			name: "valid with coordinates",
			trip: Booking{ID: "b1", Status: StatusPending, Pickup: ptLatLng(15.35, 44.19), Drop: ptLatLng(15.40, 44.25)},
		},
		{
			name: "valid without coordinates",
			trip: Booking{ID: "b2", Status: StatusPending},
		},
		{
			name:    "missing id",
			trip:    Booking{Status: StatusPending},
			wantErr: ErrBookingIDRequired,
		},
		{
			name:    "blank id",
			trip:    Booking{ID: "   ", Status: StatusPending},
			wantErr: ErrBookingIDRequired,
		},
		{
			name:    "bad status",
			trip:    Booking{ID: "b3", Status: Status("cancelled")},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "bad pickup latitude",
			trip:    Booking{ID: "b4", Status: StatusPending, Pickup: ptLatLng(95, 44.19)},
			wantErr: geo.ErrInvalidLatitude,
		},
		{
			name:    "bad drop longitude",
			trip:    Booking{ID: "b5", Status: StatusPending, Drop: ptLatLng(15.35, 190)},
			wantErr: geo.ErrInvalidLongitude,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trip.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBookingActiveTrip(t *testing.T) {
	assert.False(t, (&Booking{ID: "b1", Status: StatusPending}).ActiveTrip())
	assert.True(t, (&Booking{ID: "b1", Status: StatusAccepted}).ActiveTrip())
	assert.True(t, (&Booking{ID: "b1", Status: StatusArrived}).ActiveTrip())
	assert.True(t, (&Booking{ID: "b1", Status: StatusInProgress}).ActiveTrip())
	assert.False(t, (&Booking{ID: "b1", Status: StatusCompleted}).ActiveTrip())
}
