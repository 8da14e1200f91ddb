// Package search implements debounced place lookup and the recent-search
// list backing the location picker.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"driverhub/internal/domain/geo"
	"driverhub/internal/general/logger"
	"driverhub/internal/sched"
)

const (
	minQueryLen  = 2
	fetchTimeout = 10 * time.Second
)

// Place is a single search candidate. Name carries the leading component of
// the display name; Address carries the remainder.
type Place struct {
	Name     string     `json:"name"`
	Address  string     `json:"address"`
	Position geo.LatLng `json:"position"`
}

// Searcher performs a forward place search.
type Searcher interface {
	SearchLocation(ctx context.Context, query, language string) ([]Place, error)
}

// RecentStore persists the driver's recent search selections, most recent
// first and de-duplicated.
type RecentStore interface {
	Load(ctx context.Context) ([]Place, error)
	Save(ctx context.Context, place Place) error
}

// Service debounces queries so a burst of keystrokes collapses into a single
// backend call for the final text.
type Service struct {
	log      *logger.Logger
	searcher Searcher
	recents  RecentStore // may be nil: selections simply are not remembered
	language string
	debounce *sched.Debouncer

	mu     sync.Mutex
	gen    uint64
	closed bool
}

// NewService creates a search service with the given quiet period.
func NewService(log *logger.Logger, searcher Searcher, recents RecentStore, language string, debounce time.Duration) *Service {
	return &Service{
		log:      log,
		searcher: searcher,
		recents:  recents,
		language: language,
		debounce: sched.NewDebouncer(debounce),
	}
}

// Query schedules a debounced search and delivers results to cb. Queries
// shorter than two characters clear any pending search and deliver an empty
// result immediately. Results for a superseded query are dropped.
func (svc *Service) Query(query string, cb func([]Place)) {
	query = strings.TrimSpace(query)

	svc.mu.Lock()
	if svc.closed {
		svc.mu.Unlock()
		return
	}
	svc.gen++
	myGen := svc.gen
	svc.mu.Unlock()

	if len([]rune(query)) < minQueryLen {
		svc.debounce.Cancel()
		cb(nil)
		return
	}

	svc.debounce.Trigger(func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		results, err := svc.searcher.SearchLocation(ctx, query, svc.language)
		if err != nil {
			svc.log.Debug(ctx, "place_search_failed", "Search returned nothing this round",
				map[string]any{"query": query, "error": err.Error()})
			results = nil
		}

		svc.mu.Lock()
		stale := svc.closed || svc.gen != myGen
		svc.mu.Unlock()
		if stale {
			return
		}
		cb(results)
	})
}

// Select records a chosen place in the recent-search store.
func (svc *Service) Select(ctx context.Context, place Place) {
	if svc.recents == nil {
		return
	}
	if err := svc.recents.Save(ctx, place); err != nil {
		svc.log.Error(ctx, "recent_save_failed", "Could not persist recent search", err,
			map[string]any{"name": place.Name})
	}
}

// Recents returns the stored recent selections, most recent first.
func (svc *Service) Recents(ctx context.Context) []Place {
	if svc.recents == nil {
		return nil
	}
	places, err := svc.recents.Load(ctx)
	if err != nil {
		svc.log.Error(ctx, "recent_load_failed", "Could not load recent searches", err, nil)
		return nil
	}
	return places
}

// Close cancels any pending query permanently.
func (svc *Service) Close() {
	svc.mu.Lock()
	svc.closed = true
	svc.gen++
	svc.mu.Unlock()

	svc.debounce.Stop()
}
