// Package genres resolves artist genre tags for scoring, layering an
// in-memory cache and an optional persisted cache over the catalog, with an
// optional Last.fm fallback for artists the catalog has no genres for.
package genres

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/justestif/go-release-radar/internal/db"
	"github.com/justestif/go-release-radar/internal/music"
)

// Source indicates where an artist's genres came from.
type Source string

const (
	SourceMemory  Source = "memory"
	SourceStore   Source = "store"
	SourceCatalog Source = "catalog"
	SourceLastFM  Source = "lastfm"
	SourceNone    Source = "none"
)

const (
	// DefaultConcurrency bounds concurrent lookups in Warm.
	DefaultConcurrency = 5

	// DefaultMemoryEntries bounds the in-memory cache.
	DefaultMemoryEntries = 5000

	// MemoryTTL is how long a lookup is served from memory.
	MemoryTTL = time.Hour

	// maxFallbackTags caps the Last.fm tags used as genres.
	maxFallbackTags = 5
)

// ArtistFetcher abstracts the catalog for testing.
type ArtistFetcher interface {
	Artist(ctx context.Context, artistID string) (music.Artist, error)
}

// TagFetcher abstracts the Last.fm client for testing.
type TagFetcher interface {
	TopTagNames(ctx context.Context, artist string, n int) ([]string, error)
}

// Store persists genres across restarts.
type Store interface {
	GetForArtists(ctx context.Context, artistIDs []string) (map[string][]db.ArtistGenre, error)
	ReplaceForArtist(ctx context.Context, artistID string, genres []db.ArtistGenre) error
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
}

// ArtistGenres holds the genres resolved for one artist.
type ArtistGenres struct {
	ArtistID string
	Genres   []string
	Source   Source
	Error    error // Non-nil if every source failed
}

type memoryEntry struct {
	genres    []string
	fetchedAt time.Time
}

// Service resolves artist genres. It is safe for concurrent use.
type Service struct {
	catalog     ArtistFetcher
	fallback    TagFetcher
	store       Store
	concurrency int
	memorySize  int
	now         func() time.Time
	logger      zerolog.Logger

	memory *lru.Cache[string, memoryEntry]
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency sets the number of concurrent lookups in Warm.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithFallback sets the tag source used when the catalog has no genres.
func WithFallback(f TagFetcher) Option {
	return func(s *Service) {
		s.fallback = f
	}
}

// WithStore enables the persisted cache.
func WithStore(st Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithMemorySize bounds the in-memory cache.
func WithMemorySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.memorySize = n
		}
	}
}

// WithClock replaces time.Now for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l.With().Str("component", "genres").Logger()
	}
}

// NewService creates a genre service backed by catalog.
func NewService(catalog ArtistFetcher, opts ...Option) *Service {
	s := &Service{
		catalog:     catalog,
		concurrency: DefaultConcurrency,
		memorySize:  DefaultMemoryEntries,
		now:         time.Now,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	// lru.New only fails for a non-positive size.
	s.memory, _ = lru.New[string, memoryEntry](s.memorySize)
	return s
}

// ArtistGenres returns the artist's lowercased genres. Failed lookups return
// an empty slice and are not cached.
func (s *Service) ArtistGenres(ctx context.Context, artist music.ArtistRef) []string {
	res := s.Lookup(ctx, artist)
	if res.Error != nil {
		s.logger.Debug().Err(res.Error).Str("artist_id", artist.ID).Msg("genre lookup failed")
		return []string{}
	}
	return res.Genres
}

// Warm resolves genres for multiple artists concurrently.
// Results are returned in the same order as input artists.
// Individual lookup errors are captured in ArtistGenres.Error rather than failing the batch.
func (s *Service) Warm(ctx context.Context, artists []music.ArtistRef) ([]ArtistGenres, error) {
	if len(artists) == 0 {
		return []ArtistGenres{}, nil
	}

	results := make([]ArtistGenres, len(artists))

	type workItem struct {
		index  int
		artist music.ArtistRef
	}
	workCh := make(chan workItem, len(artists))
	for i, a := range artists {
		workCh <- workItem{index: i, artist: a}
	}
	close(workCh)

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				select {
				case <-ctx.Done():
					results[work.index] = ArtistGenres{
						ArtistID: work.artist.ID,
						Genres:   []string{},
						Source:   SourceNone,
						Error:    ctx.Err(),
					}
					continue
				default:
				}

				results[work.index] = s.Lookup(ctx, work.artist)
			}
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return results, ctx.Err()
	}
	return results, nil
}
