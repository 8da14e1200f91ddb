package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverhub/internal/domain/geo"
	"driverhub/internal/general/logger"
)

const testDebounce = 30 * time.Millisecond

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	results []Place
}

func (s *fakeSearcher) SearchLocation(ctx context.Context, query, language string) ([]Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return s.results, nil
}

func (s *fakeSearcher) queryLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

type memoryRecentStore struct {
	mu     sync.Mutex
	places []Place
}

func (m *memoryRecentStore) Save(ctx context.Context, place Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.places = append([]Place{place}, m.places...)
	return nil
}

func (m *memoryRecentStore) Load(ctx context.Context) ([]Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Place(nil), m.places...), nil
}

type resultCollector struct {
	mu      sync.Mutex
	batches [][]Place
}

func (c *resultCollector) collect(places []Place) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, places)
}

func (c *resultCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batches)
}

func (c *resultCollector) last() []Place {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.batches) == 0 {
		return nil
	}
	return c.batches[len(c.batches)-1]
}

func TestQueryDebouncesToFinalText(t *testing.T) {
	searcher := &fakeSearcher{results: []Place{{Name: "Airport", Position: geo.LatLng{Lat: 15.47, Lng: 44.22}}}}
	svc := NewService(logger.New("test"), searcher, nil, "en", testDebounce)
	defer svc.Close()

	collector := &resultCollector{}
	for _, q := range []string{"ai", "air", "airp", "airport"} {
		svc.Query(q, collector.collect)
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return collector.count() > 0
	}, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDebounce)

	// only the final keystroke reaches the backend
	require.Equal(t, []string{"airport"}, searcher.queryLog())
	require.Equal(t, 1, collector.count())
	require.Len(t, collector.last(), 1)
	assert.Equal(t, "Airport", collector.last()[0].Name)
}

func TestShortQueryClearsImmediately(t *testing.T) {
	searcher := &fakeSearcher{results: []Place{{Name: "Hit"}}}
	svc := NewService(logger.New("test"), searcher, nil, "en", testDebounce)
	defer svc.Close()

	collector := &resultCollector{}

	// schedule a real search, then shorten the text below the minimum
	svc.Query("airport", collector.collect)
	svc.Query("a", collector.collect)

	require.Equal(t, 1, collector.count(), "short queries answer synchronously")
	assert.Empty(t, collector.last())

	// the pending long-query search must have been cancelled with it
	time.Sleep(3 * testDebounce)
	assert.Empty(t, searcher.queryLog())
	assert.Equal(t, 1, collector.count())
}

func TestStaleResultsDropped(t *testing.T) {
	searcher := &fakeSearcher{results: []Place{{Name: "Old"}}}
	svc := NewService(logger.New("test"), searcher, nil, "en", testDebounce)

	collector := &resultCollector{}
	svc.Query("airport", collector.collect)

	// closing supersedes the in-flight query; its result must not surface
	svc.Close()
	time.Sleep(3 * testDebounce)
	assert.Zero(t, collector.count())
}

func TestSelectAndRecents(t *testing.T) {
	store := &memoryRecentStore{}
	svc := NewService(logger.New("test"), &fakeSearcher{}, store, "en", testDebounce)
	defer svc.Close()
	ctx := context.Background()

	first := Place{Name: "Airport", Address: "Airport Rd", Position: geo.LatLng{Lat: 15.47, Lng: 44.22}}
	second := Place{Name: "Old Town", Address: "Old City", Position: geo.LatLng{Lat: 15.35, Lng: 44.21}}
	svc.Select(ctx, first)
	svc.Select(ctx, second)

	recents := svc.Recents(ctx)
	require.Len(t, recents, 2)
	assert.Equal(t, "Old Town", recents[0].Name, "most recent selection first")
	assert.Equal(t, "Airport", recents[1].Name)
}

func TestNilRecentStoreIsSafe(t *testing.T) {
	svc := NewService(logger.New("test"), &fakeSearcher{}, nil, "en", testDebounce)
	defer svc.Close()

	svc.Select(context.Background(), Place{Name: "Anywhere"})
	assert.Nil(t, svc.Recents(context.Background()))
}
