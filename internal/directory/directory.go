// Package directory owns the process-wide booking state: the full booking set
// delivered by the real-time feed, the single active trip, the completed-trip
// history, and the eagerly-displayed trip status that navigation follows while
// an authoritative update is still in flight.
package directory

import (
	"context"
	"sync"

	"driverhub/internal/domain/booking"
	"driverhub/internal/general/logger"
)

const historyLimit = 50

// Directory is the only writer of booking status in this process. Everything
// else reads the latest published view through accessors or subscriptions.
type Directory struct {
	log      *logger.Logger
	driverID string
	gateway  Gateway
	archive  HistoryArchive // may be nil: history stays in-memory only

	mu          sync.Mutex
	bookings    []booking.Booking
	history     []booking.Booking // most-recent-first
	declined    map[string]bool   // locally hidden pending requests
	displayed   booking.Status    // "" when no trip is displayed
	driverState DriverState
	closed      bool

	nextSub     int
	bookingSubs map[int]func([]booking.Booking)
	tripSubs    map[int]func(*booking.Booking, booking.Status)
	locSubs     map[int]func(DriverState)
}

// New creates an empty directory for the given driver. archive may be nil.
func New(log *logger.Logger, driverID string, gateway Gateway, archive HistoryArchive) *Directory {
	return &Directory{
		log:         log,
		driverID:    driverID,
		gateway:     gateway,
		archive:     archive,
		declined:    make(map[string]bool),
		bookingSubs: make(map[int]func([]booking.Booking)),
		tripSubs:    make(map[int]func(*booking.Booking, booking.Status)),
		locSubs:     make(map[int]func(DriverState)),
	}
}

// LoadHistory primes the in-memory trip history from the archive, most recent
// first. Missing archive or load failure degrades to an empty history.
func (dir *Directory) LoadHistory(ctx context.Context) {
	if dir.archive == nil {
		return
	}
	trips, err := dir.archive.Recent(ctx, dir.driverID, historyLimit)
	if err != nil {
		dir.log.Error(ctx, "history_load_failed", "Could not load trip history, starting empty", err, nil)
		return
	}
	dir.mu.Lock()
	dir.history = trips
	dir.mu.Unlock()
}

// ----- feed ingestion -----

// ReplaceBookings installs a full booking set delivered by the feed. The
// delivery is authoritative: the local view is replaced wholesale, never
// merged. Records that fail validation are dropped with a log line and the
// rest of the delivery still applies.
func (dir *Directory) ReplaceBookings(ctx context.Context, incoming []booking.Booking) {
	dir.mu.Lock()
	if dir.closed {
		dir.mu.Unlock()
		return
	}

	next := make([]booking.Booking, 0, len(incoming))
	present := make(map[string]bool, len(incoming))
	for i := range incoming {
		trip := incoming[i]
		if err := trip.Validate(); err != nil {
			dir.log.Error(ctx, "booking_dropped", "Dropping malformed booking from feed", err,
				map[string]any{"booking_id": trip.ID})
			continue
		}
		next = append(next, trip)
		present[trip.ID] = true
	}
	dir.bookings = next

	// forget declines for requests the feed no longer carries
	for id := range dir.declined {
		if !present[id] {
			delete(dir.declined, id)
		}
	}

	// the feed is authoritative for the displayed status once it catches up
	if active := activeOf(dir.bookings); active != nil {
		dir.displayed = active.Status
	} else if dir.displayed != "" && !dir.displayed.Active() {
		dir.displayed = ""
	}
	dir.mu.Unlock()

	dir.notifyBookings()
	dir.notifyTrip()
}

// SetDriverState installs the latest backend echo of the driver's own state.
func (dir *Directory) SetDriverState(state DriverState) {
	dir.mu.Lock()
	if dir.closed {
		dir.mu.Unlock()
		return
	}
	dir.driverState = state
	dir.mu.Unlock()

	dir.notifyDriverState()
}

// ----- reads -----

// ActiveTrip returns a copy of the booking occupying the active-trip slot,
// or nil when the driver has no trip underway.
func (dir *Directory) ActiveTrip() *booking.Booking {
	dir.mu.Lock()
	defer dir.mu.Unlock()
	if active := activeOf(dir.bookings); active != nil {
		cp := *active
		return &cp
	}
	return nil
}

// PendingRequests returns the pending bookings not locally declined.
func (dir *Directory) PendingRequests() []booking.Booking {
	dir.mu.Lock()
	defer dir.mu.Unlock()
	var pending []booking.Booking
	for i := range dir.bookings {
		if dir.bookings[i].Status == booking.StatusPending && !dir.declined[dir.bookings[i].ID] {
			pending = append(pending, dir.bookings[i])
		}
	}
	return pending
}

// History returns completed trips, most recent first.
func (dir *Directory) History() []booking.Booking {
	dir.mu.Lock()
	defer dir.mu.Unlock()
	out := make([]booking.Booking, len(dir.history))
	copy(out, dir.history)
	return out
}

// Earnings sums the fares of all completed trips in history.
func (dir *Directory) Earnings() float64 {
	dir.mu.Lock()
	defer dir.mu.Unlock()
	return booking.TotalEarnings(dir.history)
}

// DisplayedStatus returns the trip status the presentation layer should
// follow right now. It can run ahead of the booking feed because transitions
// update it eagerly before the authoritative write round-trips.
func (dir *Directory) DisplayedStatus() booking.Status {
	dir.mu.Lock()
	defer dir.mu.Unlock()
	return dir.displayed
}

// DriverState returns the latest backend echo of the driver's state.
func (dir *Directory) DriverState() DriverState {
	dir.mu.Lock()
	defer dir.mu.Unlock()
	return dir.driverState
}

// ----- transitions -----

// AttemptTransition validates and applies a trip status transition. Legal
// edges only: pending→accepted (and only while no other trip is active),
// accepted→arrived, arrived→in_progress, in_progress→completed. Anything else
// is rejected as a no-op with nothing persisted. The displayed status is
// updated eagerly, then the transition is persisted through the gateway; a
// gateway failure rolls the local view back and surfaces the error.
func (dir *Directory) AttemptTransition(ctx context.Context, bookingID string, next booking.Status) error {
	ctx = dir.log.WithBookingID(ctx, bookingID)

	dir.mu.Lock()
	if dir.closed {
		dir.mu.Unlock()
		return ErrClosed
	}

	idx := indexOf(dir.bookings, bookingID)
	if idx < 0 {
		dir.mu.Unlock()
		return ErrUnknownBooking
	}
	current := dir.bookings[idx].Status

	if next == booking.StatusAccepted && activeOf(dir.bookings) != nil {
		dir.mu.Unlock()
		dir.log.Info(ctx, "accept_rejected", "Accept refused: another trip is already active", nil)
		return ErrActiveTripExists
	}
	if !current.CanTransitionTo(next) {
		dir.mu.Unlock()
		dir.log.Info(ctx, "transition_rejected", "Illegal trip status transition",
			map[string]any{"from": current.String(), "to": next.String()})
		return ErrIllegalTransition
	}

	// eager local application so navigation reacts before the round-trip
	prevDisplayed := dir.displayed
	dir.bookings[idx].Status = next
	if next == booking.StatusCompleted {
		dir.displayed = ""
	} else {
		dir.displayed = next
	}
	dir.mu.Unlock()

	dir.notifyTrip()

	if err := dir.gateway.UpdateBookingStatus(ctx, bookingID, next, dir.driverID); err != nil {
		// roll back: the transition must leave no side effect on failure
		dir.mu.Lock()
		if i := indexOf(dir.bookings, bookingID); i >= 0 {
			dir.bookings[i].Status = current
		}
		dir.displayed = prevDisplayed
		dir.mu.Unlock()
		dir.notifyTrip()
		dir.log.Error(ctx, "transition_persist_failed", "Backend rejected status update, rolled back", err,
			map[string]any{"to": next.String()})
		return err
	}

	dir.log.Info(ctx, "transition_applied", "Trip status transition persisted",
		map[string]any{"from": current.String(), "to": next.String()})

	if next == booking.StatusCompleted {
		dir.completeTrip(ctx, bookingID)
	}

	dir.notifyBookings()
	return nil
}

// completeTrip archives the finished booking and front-appends it to history.
func (dir *Directory) completeTrip(ctx context.Context, bookingID string) {
	dir.mu.Lock()
	idx := indexOf(dir.bookings, bookingID)
	if idx < 0 {
		dir.mu.Unlock()
		return
	}
	finished := dir.bookings[idx]
	finished.Status = booking.StatusCompleted
	dir.history = append([]booking.Booking{finished}, dir.history...)
	if len(dir.history) > historyLimit {
		dir.history = dir.history[:historyLimit]
	}
	dir.mu.Unlock()

	if dir.archive != nil {
		if err := dir.archive.Archive(ctx, dir.driverID, &finished); err != nil {
			dir.log.Error(ctx, "history_archive_failed", "Completed trip kept in memory only", err, nil)
		}
	}

	dir.log.Info(ctx, "trip_completed", "Trip archived to history",
		map[string]any{"fare": finished.Fare()})
}

// Decline hides a pending request locally. Nothing is persisted and no
// transition is broadcast; the request simply disappears from this driver's
// pending list.
func (dir *Directory) Decline(bookingID string) {
	dir.mu.Lock()
	if dir.closed {
		dir.mu.Unlock()
		return
	}
	idx := indexOf(dir.bookings, bookingID)
	if idx < 0 || dir.bookings[idx].Status != booking.StatusPending {
		dir.mu.Unlock()
		return
	}
	dir.declined[bookingID] = true
	dir.mu.Unlock()

	dir.notifyBookings()
}

// ----- subscriptions -----

// SubscribeBookings registers a callback invoked with the full booking set on
// every change. Returns an unsubscribe func.
func (dir *Directory) SubscribeBookings(cb func([]booking.Booking)) func() {
	dir.mu.Lock()
	defer dir.mu.Unlock()
	id := dir.nextSub
	dir.nextSub++
	dir.bookingSubs[id] = cb
	return func() {
		dir.mu.Lock()
		defer dir.mu.Unlock()
		delete(dir.bookingSubs, id)
	}
}

// SubscribeTrip registers a callback invoked with the active trip (nil when
// none) and the displayed status whenever either changes.
func (dir *Directory) SubscribeTrip(cb func(active *booking.Booking, displayed booking.Status)) func() {
	dir.mu.Lock()
	defer dir.mu.Unlock()
	id := dir.nextSub
	dir.nextSub++
	dir.tripSubs[id] = cb
	return func() {
		dir.mu.Lock()
		defer dir.mu.Unlock()
		delete(dir.tripSubs, id)
	}
}

// SubscribeDriverLocation registers a callback for backend driver-state
// echoes. Returns an unsubscribe func.
func (dir *Directory) SubscribeDriverLocation(cb func(DriverState)) func() {
	dir.mu.Lock()
	defer dir.mu.Unlock()
	id := dir.nextSub
	dir.nextSub++
	dir.locSubs[id] = cb
	return func() {
		dir.mu.Lock()
		defer dir.mu.Unlock()
		delete(dir.locSubs, id)
	}
}

// Close tears the directory down. Subsequent feed deliveries and transitions
// are ignored and no subscriber is invoked again.
func (dir *Directory) Close() {
	dir.mu.Lock()
	defer dir.mu.Unlock()
	dir.closed = true
	dir.bookingSubs = make(map[int]func([]booking.Booking))
	dir.tripSubs = make(map[int]func(*booking.Booking, booking.Status))
	dir.locSubs = make(map[int]func(DriverState))
}

// ----- notification plumbing -----

func (dir *Directory) notifyBookings() {
	dir.mu.Lock()
	if dir.closed {
		dir.mu.Unlock()
		return
	}
	set := make([]booking.Booking, len(dir.bookings))
	copy(set, dir.bookings)
	subs := make([]func([]booking.Booking), 0, len(dir.bookingSubs))
	for _, cb := range dir.bookingSubs {
		subs = append(subs, cb)
	}
	dir.mu.Unlock()

	for _, cb := range subs {
		cb(set)
	}
}

func (dir *Directory) notifyTrip() {
	dir.mu.Lock()
	if dir.closed {
		dir.mu.Unlock()
		return
	}
	var active *booking.Booking
	if a := activeOf(dir.bookings); a != nil {
		cp := *a
		active = &cp
	}
	displayed := dir.displayed
	subs := make([]func(*booking.Booking, booking.Status), 0, len(dir.tripSubs))
	for _, cb := range dir.tripSubs {
		subs = append(subs, cb)
	}
	dir.mu.Unlock()

	for _, cb := range subs {
		cb(active, displayed)
	}
}

func (dir *Directory) notifyDriverState() {
	dir.mu.Lock()
	if dir.closed {
		dir.mu.Unlock()
		return
	}
	state := dir.driverState
	subs := make([]func(DriverState), 0, len(dir.locSubs))
	for _, cb := range dir.locSubs {
		subs = append(subs, cb)
	}
	dir.mu.Unlock()

	for _, cb := range subs {
		cb(state)
	}
}

// ----- helpers -----

func activeOf(set []booking.Booking) *booking.Booking {
	for i := range set {
		if set[i].ActiveTrip() {
			return &set[i]
		}
	}
	return nil
}

func indexOf(set []booking.Booking, id string) int {
	for i := range set {
		if set[i].ID == id {
			return i
		}
	}
	return -1
}
