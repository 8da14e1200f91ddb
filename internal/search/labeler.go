package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"driverhub/internal/domain/geo"
	"driverhub/internal/general/logger"
	"driverhub/internal/sched"
)

// Geocoder resolves a coordinate to display text. Empty string with a nil
// error means no address is known for the point.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, point geo.LatLng, language string) (string, error)
}

// Labeler resolves a picked map location to display text. Lookups are
// debounced so a dragged pin settles before the geocoder is called; when no
// address comes back the raw coordinates are shown instead.
type Labeler struct {
	log      *logger.Logger
	geocoder Geocoder
	language string
	debounce *sched.Debouncer

	mu     sync.Mutex
	gen    uint64
	closed bool
}

func NewLabeler(log *logger.Logger, geocoder Geocoder, language string, debounce time.Duration) *Labeler {
	return &Labeler{
		log:      log,
		geocoder: geocoder,
		language: language,
		debounce: sched.NewDebouncer(debounce),
	}
}

// Resolve schedules a debounced reverse geocode for point and delivers the
// resulting text to cb. Only the final point of a drag burst is looked up;
// answers for a superseded point are dropped.
func (lb *Labeler) Resolve(point geo.LatLng, cb func(string)) {
	lb.mu.Lock()
	if lb.closed {
		lb.mu.Unlock()
		return
	}
	lb.gen++
	myGen := lb.gen
	lb.mu.Unlock()

	lb.debounce.Trigger(func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		text, err := lb.geocoder.ReverseGeocode(ctx, point, lb.language)
		if err != nil {
			lb.log.Debug(ctx, "reverse_geocode_failed", "Falling back to raw coordinates",
				map[string]any{"point": point.String(), "error": err.Error()})
			text = ""
		}
		if text == "" {
			text = CoordinateLabel(point)
		}

		lb.mu.Lock()
		stale := lb.closed || lb.gen != myGen
		lb.mu.Unlock()
		if stale {
			return
		}
		cb(text)
	})
}

// Close cancels any pending lookup permanently.
func (lb *Labeler) Close() {
	lb.mu.Lock()
	lb.closed = true
	lb.gen++
	lb.mu.Unlock()

	lb.debounce.Stop()
}

// CoordinateLabel is the display text used when no address is known.
func CoordinateLabel(point geo.LatLng) string {
	return fmt.Sprintf("Lat: %.4f, Lng: %.4f", point.Lat, point.Lng)
}
