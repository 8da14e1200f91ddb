// Package route keeps a navigation route and destination label synchronized
// with the driver's movement and the active trip. Fetches are debounced and
// stale in-flight results are discarded, so the engine only ever publishes
// data for the presently-selected target.
package route

import (
	"context"
	"strings"
	"sync"
	"time"

	"driverhub/internal/domain/booking"
	"driverhub/internal/domain/geo"
	"driverhub/internal/general/logger"
	"driverhub/internal/sched"
)

const (
	fetchTimeout = 10 * time.Second

	// labelPlaceholder is shown when reverse geocoding yields nothing.
	labelPlaceholder = "Destination"
)

// Router fetches a drivable path between two points. An empty path with a nil
// error means "no route found".
type Router interface {
	FetchRoute(ctx context.Context, from, to geo.LatLng) ([]geo.LatLng, error)
}

// Geocoder resolves a coordinate to a human-readable address. An empty string
// with a nil error means "no address found".
type Geocoder interface {
	ReverseGeocode(ctx context.Context, point geo.LatLng, language string) (string, error)
}

// Update is what subscribers receive: the current route path, the destination
// label, and the derived ETA in minutes.
type Update struct {
	Path       []geo.LatLng
	Label      string
	ETAMinutes int
}

// Engine debounce-fetches routes and destination labels.
type Engine struct {
	log      *logger.Logger
	router   Router
	geocoder Geocoder
	language string
	debounce *sched.Debouncer

	mu        sync.Mutex
	gen       uint64 // bumped whenever older in-flight results become stale
	driverPos *geo.LatLng
	target    *geo.LatLng
	targetKey string // identity of the current target; label is cached per key
	label     string
	path      []geo.LatLng
	subs      map[int]func(Update)
	nextSub   int
	closed    bool
}

// NewEngine creates an engine with the given debounce quiet period.
func NewEngine(log *logger.Logger, router Router, geocoder Geocoder, language string, debounce time.Duration) *Engine {
	return &Engine{
		log:      log,
		router:   router,
		geocoder: geocoder,
		language: language,
		debounce: sched.NewDebouncer(debounce),
		subs:     make(map[int]func(Update)),
	}
}

// Observe reacts to a trip change. The navigation target is the pickup while
// the displayed status is accepted and the drop while in progress; any other
// status clears the route and resets the label.
func (engine *Engine) Observe(active *booking.Booking, displayed booking.Status) {
	var target *geo.LatLng
	if active != nil {
		target = active.TargetFor(displayed)
	}

	engine.mu.Lock()
	if engine.closed {
		engine.mu.Unlock()
		return
	}

	if target == nil || !target.Valid() {
		engine.clearLocked()
		engine.mu.Unlock()
		engine.notify(Update{})
		return
	}

	key := displayed.String() + "@" + target.String()
	if key != engine.targetKey {
		// new target: the cached label belongs to the old one
		engine.targetKey = key
		engine.label = ""
	}
	cp := *target
	engine.target = &cp
	engine.mu.Unlock()

	engine.schedule()
}

// SetDriverPosition feeds the engine the latest published driver position.
// The route is refetched (debounced) from this position to the target.
func (engine *Engine) SetDriverPosition(pos geo.LatLng) {
	engine.mu.Lock()
	if engine.closed {
		engine.mu.Unlock()
		return
	}
	cp := pos
	engine.driverPos = &cp
	hasTarget := engine.target != nil
	engine.mu.Unlock()

	if hasTarget {
		engine.schedule()
	}
}

// schedule restarts the debounce timer; only the state present when the quiet
// period finally elapses is fetched.
func (engine *Engine) schedule() {
	engine.debounce.Trigger(engine.refresh)
}

// refresh performs one fetch cycle for the state captured at its start. The
// generation counter makes any result stale as soon as a newer cycle begins,
// the target clears, or the engine shuts down.
func (engine *Engine) refresh() {
	engine.mu.Lock()
	if engine.closed || engine.target == nil {
		engine.mu.Unlock()
		return
	}
	engine.gen++
	myGen := engine.gen
	myKey := engine.targetKey
	target := *engine.target
	needLabel := engine.label == ""
	var from *geo.LatLng
	if engine.driverPos != nil {
		cp := *engine.driverPos
		from = &cp
	}
	engine.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	// the destination label is fetched once per target, never because the
	// driver moved
	var label string
	if needLabel {
		addr, err := engine.geocoder.ReverseGeocode(ctx, target, engine.language)
		if err != nil {
			engine.log.Debug(ctx, "geocode_failed", "Reverse geocode failed, using placeholder",
				map[string]any{"error": err.Error()})
		}
		label = firstSegment(addr)
		if label == "" {
			label = labelPlaceholder
		}
	}

	var path []geo.LatLng
	if from != nil {
		fetched, err := engine.router.FetchRoute(ctx, *from, target)
		if err != nil {
			// keep the previous route; a missing update beats a wrong one
			engine.log.Debug(ctx, "route_fetch_failed", "Route fetch failed, keeping previous path",
				map[string]any{"error": err.Error()})
		} else if len(fetched) > 0 {
			path = fetched
		}
	}

	engine.mu.Lock()
	if engine.closed || engine.gen != myGen || engine.targetKey != myKey {
		engine.mu.Unlock()
		return // superseded while in flight
	}
	if needLabel && engine.label == "" {
		engine.label = label
	}
	if len(path) > 0 {
		engine.path = path
	}
	update := engine.snapshotLocked()
	engine.mu.Unlock()

	engine.notify(update)
}

// ETAMinutes derives the displayed ETA from a route as one minute per ten
// route points, rounded up. This is a fixed approximation, not a time model,
// and is kept bit-for-bit compatible with the booking source's display.
func ETAMinutes(path []geo.LatLng) int {
	if len(path) == 0 {
		return 0
	}
	return (len(path) + 9) / 10
}

// Snapshot returns the engine's current output.
func (engine *Engine) Snapshot() Update {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.snapshotLocked()
}

// Subscribe registers a callback for every published update. Returns an
// unsubscribe func.
func (engine *Engine) Subscribe(cb func(Update)) func() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	id := engine.nextSub
	engine.nextSub++
	engine.subs[id] = cb
	return func() {
		engine.mu.Lock()
		defer engine.mu.Unlock()
		delete(engine.subs, id)
	}
}

// Close shuts the engine down. Pending debounce timers are cancelled and any
// in-flight fetch result is dropped.
func (engine *Engine) Close() {
	engine.mu.Lock()
	engine.closed = true
	engine.gen++
	engine.subs = make(map[int]func(Update))
	engine.mu.Unlock()

	engine.debounce.Stop()
}

// ----- internals -----

func (engine *Engine) clearLocked() {
	engine.gen++ // stale out anything in flight
	engine.target = nil
	engine.targetKey = ""
	engine.label = ""
	engine.path = nil
	engine.debounce.Cancel()
}

func (engine *Engine) snapshotLocked() Update {
	path := make([]geo.LatLng, len(engine.path))
	copy(path, engine.path)
	return Update{Path: path, Label: engine.label, ETAMinutes: ETAMinutes(path)}
}

func (engine *Engine) notify(update Update) {
	engine.mu.Lock()
	if engine.closed {
		engine.mu.Unlock()
		return
	}
	subs := make([]func(Update), 0, len(engine.subs))
	for _, cb := range engine.subs {
		subs = append(subs, cb)
	}
	engine.mu.Unlock()

	for _, cb := range subs {
		cb(update)
	}
}

// firstSegment trims a full formatted address down to its leading component.
func firstSegment(addr string) string {
	seg, _, _ := strings.Cut(addr, ",")
	return strings.TrimSpace(seg)
}
