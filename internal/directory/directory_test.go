package directory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverhub/internal/domain/booking"
	"driverhub/internal/domain/geo"
	"driverhub/internal/general/logger"
)

type gatewayCall struct {
	bookingID string
	status    booking.Status
}

// fakeGateway records status writes and can fail on demand.
type fakeGateway struct {
	mu     sync.Mutex
	calls  []gatewayCall
	err    error
	onCall func()
}

func (gw *fakeGateway) UpdateBookingStatus(ctx context.Context, bookingID string, status booking.Status, driverID string) error {
	gw.mu.Lock()
	gw.calls = append(gw.calls, gatewayCall{bookingID: bookingID, status: status})
	onCall := gw.onCall
	err := gw.err
	gw.mu.Unlock()
	if onCall != nil {
		onCall()
	}
	return err
}

func (gw *fakeGateway) callCount() int {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	return len(gw.calls)
}

type fakeArchive struct {
	mu       sync.Mutex
	archived []booking.Booking
	stored   []booking.Booking
}

func (ar *fakeArchive) Archive(ctx context.Context, driverID string, trip *booking.Booking) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	ar.archived = append(ar.archived, *trip)
	return nil
}

func (ar *fakeArchive) Recent(ctx context.Context, driverID string, limit int) ([]booking.Booking, error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	return ar.stored, nil
}

func testDirectory(t *testing.T) (*Directory, *fakeGateway) {
	t.Helper()
	gw := &fakeGateway{}
	dir := New(logger.New("test"), "driver-1", gw, nil)
	t.Cleanup(dir.Close)
	return dir, gw
}

func pendingTrip(id string) booking.Booking {
	return booking.Booking{
		ID:     id,
		Status: booking.StatusPending,
		Pickup: &geo.LatLng{Lat: 15.35, Lng: 44.19},
		Drop:   &geo.LatLng{Lat: 15.40, Lng: 44.25},
	}
}

func TestReplaceBookingsIsWholesale(t *testing.T) {
	dir, _ := testDirectory(t)
	ctx := context.Background()

	dir.ReplaceBookings(ctx, []booking.Booking{pendingTrip("b1"), pendingTrip("b2")})
	require.Len(t, dir.PendingRequests(), 2)

	// a later delivery replaces everything; nothing from the old set survives
	dir.ReplaceBookings(ctx, []booking.Booking{pendingTrip("b3")})
	pending := dir.PendingRequests()
	require.Len(t, pending, 1)
	assert.Equal(t, "b3", pending[0].ID)
}

func TestReplaceBookingsDropsMalformed(t *testing.T) {
	dir, _ := testDirectory(t)

	dir.ReplaceBookings(context.Background(), []booking.Booking{
		pendingTrip("b1"),
		{Status: booking.StatusPending}, // no ID
		{ID: "b2", Status: booking.Status("cancelled")},
	})

	pending := dir.PendingRequests()
	require.Len(t, pending, 1)
	assert.Equal(t, "b1", pending[0].ID)
}

func TestTripLifecycle(t *testing.T) {
	gw := &fakeGateway{}
	archive := &fakeArchive{}
	dir := New(logger.New("test"), "driver-1", gw, archive)
	defer dir.Close()
	ctx := context.Background()

	trip := pendingTrip("b1")
	trip.Distance = "10"
	dir.ReplaceBookings(ctx, []booking.Booking{trip})

	require.NoError(t, dir.AttemptTransition(ctx, "b1", booking.StatusAccepted))
	require.NotNil(t, dir.ActiveTrip())
	assert.Equal(t, booking.StatusAccepted, dir.DisplayedStatus())

	require.NoError(t, dir.AttemptTransition(ctx, "b1", booking.StatusArrived))
	require.NoError(t, dir.AttemptTransition(ctx, "b1", booking.StatusInProgress))
	assert.Equal(t, booking.StatusInProgress, dir.DisplayedStatus())

	require.NoError(t, dir.AttemptTransition(ctx, "b1", booking.StatusCompleted))

	// completion clears the active slot and the displayed status
	assert.Nil(t, dir.ActiveTrip())
	assert.Equal(t, booking.Status(""), dir.DisplayedStatus())

	// the finished trip lands at the front of history with its fare
	history := dir.History()
	require.Len(t, history, 1)
	assert.Equal(t, "b1", history[0].ID)
	assert.Equal(t, booking.StatusCompleted, history[0].Status)
	assert.InDelta(t, 7.0, dir.Earnings(), 1e-9)

	require.Len(t, archive.archived, 1)
	assert.Equal(t, "b1", archive.archived[0].ID)

	assert.Equal(t, 4, gw.callCount())
}

func TestCompletedTripsFrontAppend(t *testing.T) {
	dir, _ := testDirectory(t)
	ctx := context.Background()

	for _, id := range []string{"b1", "b2"} {
		dir.ReplaceBookings(ctx, []booking.Booking{pendingTrip(id)})
		require.NoError(t, dir.AttemptTransition(ctx, id, booking.StatusAccepted))
		require.NoError(t, dir.AttemptTransition(ctx, id, booking.StatusArrived))
		require.NoError(t, dir.AttemptTransition(ctx, id, booking.StatusInProgress))
		require.NoError(t, dir.AttemptTransition(ctx, id, booking.StatusCompleted))
	}

	history := dir.History()
	require.Len(t, history, 2)
	assert.Equal(t, "b2", history[0].ID, "most recent completion comes first")
	assert.Equal(t, "b1", history[1].ID)
}

func TestAcceptRejectedWhileTripActive(t *testing.T) {
	dir, gw := testDirectory(t)
	ctx := context.Background()

	dir.ReplaceBookings(ctx, []booking.Booking{pendingTrip("b1"), pendingTrip("b2")})
	require.NoError(t, dir.AttemptTransition(ctx, "b1", booking.StatusAccepted))
	callsAfterAccept := gw.callCount()

	err := dir.AttemptTransition(ctx, "b2", booking.StatusAccepted)
	require.ErrorIs(t, err, ErrActiveTripExists)

	// the rejection is a no-op: nothing persisted, nothing changed
	assert.Equal(t, callsAfterAccept, gw.callCount())
	require.NotNil(t, dir.ActiveTrip())
	assert.Equal(t, "b1", dir.ActiveTrip().ID)
}

func TestIllegalTransitionsRejected(t *testing.T) {
	dir, gw := testDirectory(t)
	ctx := context.Background()

	dir.ReplaceBookings(ctx, []booking.Booking{pendingTrip("b1")})

	tests := []booking.Status{
		booking.StatusArrived,
		booking.StatusInProgress,
		booking.StatusCompleted,
	}
	for _, next := range tests {
		err := dir.AttemptTransition(ctx, "b1", next)
		assert.ErrorIs(t, err, ErrIllegalTransition, "pending -> %s", next)
	}
	assert.Zero(t, gw.callCount())

	err := dir.AttemptTransition(ctx, "nope", booking.StatusAccepted)
	assert.ErrorIs(t, err, ErrUnknownBooking)
}

func TestTransitionRollsBackOnGatewayFailure(t *testing.T) {
	dir, gw := testDirectory(t)
	ctx := context.Background()

	dir.ReplaceBookings(ctx, []booking.Booking{pendingTrip("b1")})
	gw.err = errors.New("backend down")

	err := dir.AttemptTransition(ctx, "b1", booking.StatusAccepted)
	require.Error(t, err)

	// local state must be exactly as before the attempt
	assert.Nil(t, dir.ActiveTrip())
	assert.Equal(t, booking.Status(""), dir.DisplayedStatus())
	pending := dir.PendingRequests()
	require.Len(t, pending, 1)
	assert.Equal(t, booking.StatusPending, pending[0].Status)
}

func TestDisplayedStatusRunsAheadOfGateway(t *testing.T) {
	dir, gw := testDirectory(t)
	ctx := context.Background()

	dir.ReplaceBookings(ctx, []booking.Booking{pendingTrip("b1")})

	var displayedDuringCall booking.Status
	gw.onCall = func() {
		displayedDuringCall = dir.DisplayedStatus()
	}

	require.NoError(t, dir.AttemptTransition(ctx, "b1", booking.StatusAccepted))
	assert.Equal(t, booking.StatusAccepted, displayedDuringCall,
		"displayed status updates before the write round-trips")
}

func TestDeclineIsLocalOnly(t *testing.T) {
	dir, gw := testDirectory(t)
	ctx := context.Background()

	dir.ReplaceBookings(ctx, []booking.Booking{pendingTrip("b1"), pendingTrip("b2")})

	dir.Decline("b1")
	assert.Zero(t, gw.callCount(), "decline never talks to the backend")

	pending := dir.PendingRequests()
	require.Len(t, pending, 1)
	assert.Equal(t, "b2", pending[0].ID)

	// still hidden while the feed keeps carrying it
	dir.ReplaceBookings(ctx, []booking.Booking{pendingTrip("b1"), pendingTrip("b2")})
	require.Len(t, dir.PendingRequests(), 1)

	// once the feed drops it, the decline is forgotten; a re-appearance is a
	// fresh request
	dir.ReplaceBookings(ctx, []booking.Booking{pendingTrip("b2")})
	dir.ReplaceBookings(ctx, []booking.Booking{pendingTrip("b1"), pendingTrip("b2")})
	require.Len(t, dir.PendingRequests(), 2)
}

func TestDeclineIgnoresNonPending(t *testing.T) {
	dir, _ := testDirectory(t)
	ctx := context.Background()

	dir.ReplaceBookings(ctx, []booking.Booking{pendingTrip("b1")})
	require.NoError(t, dir.AttemptTransition(ctx, "b1", booking.StatusAccepted))

	dir.Decline("b1")
	require.NotNil(t, dir.ActiveTrip(), "an accepted trip cannot be declined away")
}

func TestLoadHistoryPrimesEarnings(t *testing.T) {
	gw := &fakeGateway{}
	archive := &fakeArchive{stored: []booking.Booking{
		{ID: "old1", Status: booking.StatusCompleted, Distance: "4"}, // 4.0
		{ID: "old2", Status: booking.StatusCompleted, Distance: "2"}, // 3.0
	}}
	dir := New(logger.New("test"), "driver-1", gw, archive)
	defer dir.Close()

	dir.LoadHistory(context.Background())

	require.Len(t, dir.History(), 2)
	assert.InDelta(t, 7.0, dir.Earnings(), 1e-9)
}

func TestSubscribersStopAfterClose(t *testing.T) {
	gw := &fakeGateway{}
	dir := New(logger.New("test"), "driver-1", gw, nil)

	var notified int
	dir.SubscribeBookings(func([]booking.Booking) { notified++ })

	dir.ReplaceBookings(context.Background(), []booking.Booking{pendingTrip("b1")})
	require.Equal(t, 1, notified)

	dir.Close()
	dir.ReplaceBookings(context.Background(), []booking.Booking{pendingTrip("b2")})
	assert.Equal(t, 1, notified, "no callbacks after Close")

	err := dir.AttemptTransition(context.Background(), "b1", booking.StatusAccepted)
	assert.ErrorIs(t, err, ErrClosed)
}
