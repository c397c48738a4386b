package genres

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/justestif/go-release-radar/internal/db"
	"github.com/justestif/go-release-radar/internal/music"
)

// mockCatalog implements ArtistFetcher for testing.
type mockCatalog struct {
	genres    map[string][]string
	errors    map[string]error
	callCount atomic.Int32
	delay     time.Duration
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		genres: make(map[string][]string),
		errors: make(map[string]error),
	}
}

func (m *mockCatalog) Artist(ctx context.Context, id string) (music.Artist, error) {
	m.callCount.Add(1)

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return music.Artist{}, ctx.Err()
		}
	}

	if err, ok := m.errors[id]; ok {
		return music.Artist{}, err
	}
	return music.Artist{ID: id, Genres: m.genres[id]}, nil
}

// mockTags implements TagFetcher for testing.
type mockTags struct {
	tags      map[string][]string
	err       error
	callCount atomic.Int32
}

func (m *mockTags) TopTagNames(ctx context.Context, artist string, n int) ([]string, error) {
	m.callCount.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.tags[artist], nil
}

// memStore implements Store for testing.
type memStore struct {
	mu   sync.Mutex
	rows map[string][]db.ArtistGenre
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string][]db.ArtistGenre)}
}

func (m *memStore) GetForArtists(ctx context.Context, ids []string) (map[string][]db.ArtistGenre, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]db.ArtistGenre)
	for _, id := range ids {
		if rows, ok := m.rows[id]; ok {
			out[id] = rows
		}
	}
	return out, nil
}

func (m *memStore) ReplaceForArtist(ctx context.Context, id string, rows []db.ArtistGenre) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id] = rows
	return nil
}

func (m *memStore) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rows := range m.rows {
		if len(rows) > 0 && rows[0].FetchedAt.Before(olderThan) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func TestArtistGenres_FromCatalog(t *testing.T) {
	catalog := newMockCatalog()
	catalog.genres["a1"] = []string{"k-pop", "korean r&b"}

	svc := NewService(catalog)
	got := svc.ArtistGenres(context.Background(), music.ArtistRef{ID: "a1", Name: "One"})

	if len(got) != 2 || got[0] != "k-pop" {
		t.Errorf("ArtistGenres() = %v, want [k-pop korean r&b]", got)
	}
}

func TestArtistGenres_MemoryCache(t *testing.T) {
	catalog := newMockCatalog()
	catalog.genres["a1"] = []string{"rock"}

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(catalog, WithClock(func() time.Time { return now }))

	svc.ArtistGenres(context.Background(), music.ArtistRef{ID: "a1"})
	res := svc.Lookup(context.Background(), music.ArtistRef{ID: "a1"})

	if res.Source != SourceMemory {
		t.Errorf("second lookup source = %q, want memory", res.Source)
	}
	if catalog.callCount.Load() != 1 {
		t.Errorf("expected 1 catalog call, got %d", catalog.callCount.Load())
	}

	now = now.Add(MemoryTTL + time.Minute)
	svc.ArtistGenres(context.Background(), music.ArtistRef{ID: "a1"})
	if catalog.callCount.Load() != 2 {
		t.Errorf("expected refetch after TTL, got %d calls", catalog.callCount.Load())
	}
}

func TestArtistGenres_FailureNotCached(t *testing.T) {
	catalog := newMockCatalog()
	catalog.errors["a1"] = errors.New("API error")

	svc := NewService(catalog)

	got := svc.ArtistGenres(context.Background(), music.ArtistRef{ID: "a1"})
	if len(got) != 0 {
		t.Errorf("failed lookup = %v, want empty", got)
	}
	if got == nil {
		t.Error("failed lookup returned nil, want empty slice")
	}

	svc.ArtistGenres(context.Background(), music.ArtistRef{ID: "a1"})
	if catalog.callCount.Load() != 2 {
		t.Errorf("expected failure to be retried, got %d calls", catalog.callCount.Load())
	}
}

func TestArtistGenres_FallbackWhenCatalogEmpty(t *testing.T) {
	catalog := newMockCatalog()
	tags := &mockTags{tags: map[string][]string{"IVE": {"k-pop", "dance"}}}

	svc := NewService(catalog, WithFallback(tags))
	res := svc.Lookup(context.Background(), music.ArtistRef{ID: "a1", Name: "IVE"})

	if res.Source != SourceLastFM {
		t.Errorf("source = %q, want lastfm", res.Source)
	}
	if len(res.Genres) != 2 {
		t.Errorf("genres = %v, want 2 fallback tags", res.Genres)
	}
}

func TestArtistGenres_FallbackWhenCatalogFails(t *testing.T) {
	catalog := newMockCatalog()
	catalog.errors["a1"] = errors.New("breaker open")
	tags := &mockTags{tags: map[string][]string{"IVE": {"k-pop"}}}

	svc := NewService(catalog, WithFallback(tags))
	res := svc.Lookup(context.Background(), music.ArtistRef{ID: "a1", Name: "IVE"})

	if res.Error != nil {
		t.Errorf("unexpected error: %v", res.Error)
	}
	if res.Source != SourceLastFM {
		t.Errorf("source = %q, want lastfm", res.Source)
	}
}

func TestArtistGenres_BothSourcesFail(t *testing.T) {
	catalog := newMockCatalog()
	catalog.errors["a1"] = errors.New("catalog down")
	tags := &mockTags{err: errors.New("lastfm down")}

	svc := NewService(catalog, WithFallback(tags))
	res := svc.Lookup(context.Background(), music.ArtistRef{ID: "a1", Name: "IVE"})

	if res.Error == nil {
		t.Error("expected error when every source fails")
	}
}

func TestArtistGenres_FallbackNotUsedWhenCatalogHasGenres(t *testing.T) {
	catalog := newMockCatalog()
	catalog.genres["a1"] = []string{"j-pop"}
	tags := &mockTags{}

	svc := NewService(catalog, WithFallback(tags))
	svc.ArtistGenres(context.Background(), music.ArtistRef{ID: "a1", Name: "YOASOBI"})

	if tags.callCount.Load() != 0 {
		t.Errorf("fallback called %d times, want 0", tags.callCount.Load())
	}
}

func TestArtistGenres_Store(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	catalog := newMockCatalog()
	catalog.genres["a1"] = []string{"grime", "uk drill"}
	store := newMemStore()

	first := NewService(catalog, WithStore(store), WithClock(clock))
	first.ArtistGenres(context.Background(), music.ArtistRef{ID: "a1"})

	if rows := store.rows["a1"]; len(rows) != 2 || rows[1].Genre != "uk drill" || rows[1].Rank != 1 {
		t.Fatalf("persisted rows = %+v", rows)
	}

	// A fresh process reads from the store instead of the catalog.
	second := NewService(catalog, WithStore(store), WithClock(clock))
	res := second.Lookup(context.Background(), music.ArtistRef{ID: "a1"})
	if res.Source != SourceStore {
		t.Errorf("source = %q, want store", res.Source)
	}
	if catalog.callCount.Load() != 1 {
		t.Errorf("expected 1 catalog call, got %d", catalog.callCount.Load())
	}
}

func TestArtistGenres_StaleStoreRefetches(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	catalog := newMockCatalog()
	catalog.genres["a1"] = []string{"britpop"}
	store := newMemStore()
	store.rows["a1"] = []db.ArtistGenre{{
		ArtistID:  "a1",
		Genre:     "indie",
		FetchedAt: now.Add(-StoreTTL - time.Hour),
	}}

	svc := NewService(catalog, WithStore(store), WithClock(func() time.Time { return now }))
	res := svc.Lookup(context.Background(), music.ArtistRef{ID: "a1"})

	if res.Source != SourceCatalog || res.Genres[0] != "britpop" {
		t.Errorf("Lookup() = %+v, want fresh catalog genres", res)
	}
}

func TestPrune(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.rows["old"] = []db.ArtistGenre{{ArtistID: "old", Genre: "rock", FetchedAt: now.Add(-StoreTTL - time.Hour)}}
	store.rows["new"] = []db.ArtistGenre{{ArtistID: "new", Genre: "pop", FetchedAt: now}}

	svc := NewService(newMockCatalog(), WithStore(store), WithClock(func() time.Time { return now }))
	n, err := svc.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	if _, ok := store.rows["new"]; !ok {
		t.Error("fresh rows were pruned")
	}
}

func TestWarm_Empty(t *testing.T) {
	svc := NewService(newMockCatalog())

	results, err := svc.Warm(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %d", len(results))
	}
}

func TestWarm_PreservesOrder(t *testing.T) {
	catalog := newMockCatalog()
	catalog.genres["a1"] = []string{"rock"}
	catalog.genres["a2"] = []string{"electronic"}
	catalog.genres["a3"] = []string{"pop"}

	svc := NewService(catalog, WithConcurrency(2))
	results, err := svc.Warm(context.Background(), []music.ArtistRef{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []struct{ id, genre string }{
		{"a1", "rock"},
		{"a2", "electronic"},
		{"a3", "pop"},
	}
	for i, exp := range expected {
		if results[i].ArtistID != exp.id {
			t.Errorf("result[%d]: expected ID %q, got %q", i, exp.id, results[i].ArtistID)
		}
		if len(results[i].Genres) == 0 || results[i].Genres[0] != exp.genre {
			t.Errorf("result[%d]: expected genre %q, got %v", i, exp.genre, results[i].Genres)
		}
	}
}

func TestWarm_IndividualErrors(t *testing.T) {
	catalog := newMockCatalog()
	catalog.genres["good"] = []string{"rock"}
	catalog.errors["bad"] = errors.New("API error")

	svc := NewService(catalog)
	results, err := svc.Warm(context.Background(), []music.ArtistRef{{ID: "good"}, {ID: "bad"}})
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}

	if results[0].Error != nil {
		t.Errorf("expected no error for good, got %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("expected error for bad, got nil")
	}
	if results[1].Source != SourceNone {
		t.Errorf("expected source 'none' for failed artist, got %q", results[1].Source)
	}
}

func TestWarm_ContextCancellation(t *testing.T) {
	catalog := newMockCatalog()
	catalog.delay = 100 * time.Millisecond

	svc := NewService(catalog, WithConcurrency(2))

	artists := make([]music.ArtistRef, 10)
	for i := range artists {
		artists[i] = music.ArtistRef{ID: "a"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	results, err := svc.Warm(ctx, artists)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled error, got %v", err)
	}
	if len(results) != 10 {
		t.Errorf("expected 10 results, got %d", len(results))
	}
}

func TestWithConcurrency(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"positive value", 10, 10},
		{"zero uses default", 0, DefaultConcurrency},
		{"negative uses default", -1, DefaultConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newMockCatalog(), WithConcurrency(tt.input))

			if svc.concurrency != tt.expected {
				t.Errorf("expected concurrency %d, got %d", tt.expected, svc.concurrency)
			}
		})
	}
}
