package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Status
		wantErr bool
	}{
		{name: "plain", in: "pending", want: StatusPending},
		{name: "uppercase", in: "ACCEPTED", want: StatusAccepted},
		{name: "padded", in: "  in_progress \n", want: StatusInProgress},
		{name: "arrived", in: "arrived", want: StatusArrived},
		{name: "completed", in: "Completed", want: StatusCompleted},
		{name: "unknown", in: "cancelled", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanTransitionTo(t *testing.T) {
	all := []Status{StatusPending, StatusAccepted, StatusArrived, StatusInProgress, StatusCompleted}

	// the lifecycle is strictly linear
	allowed := map[Status]Status{
		StatusPending:    StatusAccepted,
		StatusAccepted:   StatusArrived,
		StatusArrived:    StatusInProgress,
		StatusInProgress: StatusCompleted,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from] == to && from != StatusCompleted
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	// no skipping and no going back
	assert.False(t, StatusPending.CanTransitionTo(StatusInProgress))
	assert.False(t, StatusArrived.CanTransitionTo(StatusAccepted))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusPending))
}

func TestStatusActiveAndTerminal(t *testing.T) {
	assert.False(t, StatusPending.Active())
	assert.True(t, StatusAccepted.Active())
	assert.True(t, StatusArrived.Active())
	assert.True(t, StatusInProgress.Active())
	assert.False(t, StatusCompleted.Active())

	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusInProgress.Terminal())
}

func TestTargetFor(t *testing.T) {
	pickup := ptLatLng(15.35, 44.20)
	drop := ptLatLng(15.40, 44.25)
	trip := Booking{ID: "b1", Status: StatusAccepted, Pickup: pickup, Drop: drop}

	assert.Equal(t, pickup, trip.TargetFor(StatusAccepted))
	assert.Equal(t, drop, trip.TargetFor(StatusInProgress))
	assert.Nil(t, trip.TargetFor(StatusPending))
	assert.Nil(t, trip.TargetFor(StatusArrived))
	assert.Nil(t, trip.TargetFor(StatusCompleted))
}
