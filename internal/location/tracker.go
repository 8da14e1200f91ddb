// Package location owns the driver's published position. The tracker polls a
// raw geolocation source at a fixed rate, suppresses GPS jitter, and fans the
// smoothed position out to subscribers without ever blocking the source.
package location

import (
	"context"
	"sync"
	"time"

	"driverhub/internal/directory"
	"driverhub/internal/domain/booking"
	"driverhub/internal/domain/geo"
	"driverhub/internal/general/logger"
	"driverhub/internal/geolocation"
	"driverhub/internal/sched"
)

// JitterThresholdDeg is the minimum movement, in Euclidean coordinate
// degrees, before a new raw sample replaces the published position. 1e-5
// degrees is roughly one meter; anything below it is treated as GPS noise so
// markers and routes do not flicker while the vehicle stands still.
const JitterThresholdDeg = 1e-5

// Tracker publishes the driver's smoothed position.
type Tracker struct {
	log      *logger.Logger
	provider geolocation.Provider
	sink     directory.LocationSink
	driverID string
	interval time.Duration
	statusFn func() booking.Status // displayed trip status for sink broadcasts

	mu       sync.Mutex
	current  *geo.LatLng
	advisory string
	online   bool
	subs     map[int]func(geo.LatLng)
	nextSub  int
	ticker   *sched.Interval
	closed   bool
}

// NewTracker wires a tracker. statusFn supplies the trip status attached to
// sink broadcasts; pass nil when no trip context is available.
func NewTracker(log *logger.Logger, provider geolocation.Provider, sink directory.LocationSink,
	driverID string, interval time.Duration, statusFn func() booking.Status,
) *Tracker {
	if statusFn == nil {
		statusFn = func() booking.Status { return "" }
	}
	return &Tracker{
		log:      log,
		provider: provider,
		sink:     sink,
		driverID: driverID,
		interval: interval,
		statusFn: statusFn,
		subs:     make(map[int]func(geo.LatLng)),
	}
}

// Start begins the fixed-rate polling loop.
func (tracker *Tracker) Start() {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if tracker.closed || tracker.ticker != nil {
		return
	}
	tracker.ticker = sched.NewInterval(tracker.interval, func() {
		tracker.tick(context.Background())
	})
}

// tick reads one raw sample and applies the jitter filter. Failures never
// propagate: a bad read means no update this tick.
func (tracker *Tracker) tick(ctx context.Context) {
	readCtx, cancel := context.WithTimeout(ctx, tracker.interval)
	defer cancel()

	raw, err := tracker.provider.CurrentPosition(readCtx)
	if err != nil {
		tracker.mu.Lock()
		tracker.advisory = "Could not get your location; using the last known position"
		tracker.mu.Unlock()
		tracker.log.Debug(ctx, "location_read_failed", "Raw position unavailable this tick",
			map[string]any{"error": err.Error()})
		return
	}
	if verr := raw.Validate(); verr != nil {
		tracker.log.Error(ctx, "location_sample_malformed", "Skipping malformed raw sample", verr,
			map[string]any{"lat": raw.Lat, "lng": raw.Lng})
		return
	}

	tracker.mu.Lock()
	tracker.advisory = ""
	tracker.mu.Unlock()

	tracker.publish(raw, false)
}

// publish installs a new position. Unless override is set, the sample is
// accepted only when it moved at least JitterThresholdDeg away from the
// previous published value; the first sample is accepted unconditionally.
func (tracker *Tracker) publish(pos geo.LatLng, override bool) {
	tracker.mu.Lock()
	if tracker.closed {
		tracker.mu.Unlock()
		return
	}
	if !override && tracker.current != nil && geo.Distance(*tracker.current, pos) < JitterThresholdDeg {
		tracker.mu.Unlock()
		return
	}
	cp := pos
	tracker.current = &cp
	subs := make([]func(geo.LatLng), 0, len(tracker.subs))
	for _, cb := range tracker.subs {
		subs = append(subs, cb)
	}
	tracker.mu.Unlock()

	for _, cb := range subs {
		cb(pos)
	}
}

// SetPosition is the operator override ("click to drive"). It bypasses the
// jitter filter and immediately broadcasts the new position through the sink
// so outside observers see it without waiting for the next poll.
func (tracker *Tracker) SetPosition(ctx context.Context, pos geo.LatLng) error {
	if err := pos.Validate(); err != nil {
		return err
	}
	tracker.publish(pos, true)
	if tracker.sink != nil {
		tracker.sink.PublishDriverLocation(tracker.driverID, pos, tracker.Online(), tracker.statusFn())
	}
	tracker.log.Info(ctx, "location_override", "Published operator-set position",
		map[string]any{"lat": pos.Lat, "lng": pos.Lng})
	return nil
}

// Current returns a copy of the published position, or nil before the first
// accepted sample.
func (tracker *Tracker) Current() *geo.LatLng {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if tracker.current == nil {
		return nil
	}
	cp := *tracker.current
	return &cp
}

// Advisory returns the transient user-visible message for the last failed
// read, or "" when the provider is healthy.
func (tracker *Tracker) Advisory() string {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	return tracker.advisory
}

// SetOnline toggles the online flag attached to sink broadcasts.
func (tracker *Tracker) SetOnline(online bool) {
	tracker.mu.Lock()
	tracker.online = online
	tracker.mu.Unlock()
}

// Online reports the current online flag.
func (tracker *Tracker) Online() bool {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	return tracker.online
}

// Subscribe registers a callback for every accepted position. Returns an
// unsubscribe func.
func (tracker *Tracker) Subscribe(cb func(geo.LatLng)) func() {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	id := tracker.nextSub
	tracker.nextSub++
	tracker.subs[id] = cb
	return func() {
		tracker.mu.Lock()
		defer tracker.mu.Unlock()
		delete(tracker.subs, id)
	}
}

// Stop halts polling. No subscriber is invoked after Stop.
func (tracker *Tracker) Stop() {
	tracker.mu.Lock()
	ticker := tracker.ticker
	tracker.ticker = nil
	tracker.closed = true
	tracker.subs = make(map[int]func(geo.LatLng))
	tracker.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
	}
}
