// Package imagecache caches artist image URLs in a bounded LRU with a lazy
// TTL, resolving misses from the catalog in bulk.
package imagecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-release-radar/internal/metrics"
	"github.com/justestif/go-release-radar/internal/music"
)

const (
	// DefaultTTL is how long a cached image URL is served.
	DefaultTTL = time.Hour

	// DefaultSize bounds the number of cached artists.
	DefaultSize = 10000

	// DefaultConcurrency bounds concurrent chunk fetches.
	DefaultConcurrency = 4
)

// ArtistFetcher abstracts the catalog's bulk artist lookup.
type ArtistFetcher interface {
	Artists(ctx context.Context, ids []string) ([]music.Artist, error)
}

type entry struct {
	imageURL  string
	fetchedAt time.Time
}

// Cache maps artist ids to image URLs. It is safe for concurrent use.
type Cache struct {
	fetcher     ArtistFetcher
	ttl         time.Duration
	size        int
	concurrency int
	now         func() time.Time
	logger      zerolog.Logger

	entries *lru.Cache[string, entry]
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the entry lifetime.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithSize sets the maximum number of entries.
func WithSize(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.size = n
		}
	}
}

// WithConcurrency sets the number of chunks fetched at once.
func WithConcurrency(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithClock replaces time.Now for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the cache logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = l.With().Str("component", "imagecache").Logger()
	}
}

// New creates a cache that resolves misses through fetcher.
func New(fetcher ArtistFetcher, opts ...Option) (*Cache, error) {
	c := &Cache{
		fetcher:     fetcher,
		ttl:         DefaultTTL,
		size:        DefaultSize,
		concurrency: DefaultConcurrency,
		now:         time.Now,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	entries, err := lru.NewWithEvict(c.size, func(string, entry) {
		metrics.ImageCacheEvictions.Inc()
	})
	if err != nil {
		return nil, fmt.Errorf("creating image cache: %w", err)
	}
	c.entries = entries
	return c, nil
}

// GetMany returns image URLs for ids. Fresh entries are served from the
// cache; the rest are fetched in chunks of music.MaxArtistsPerRequest.
// Every artist the catalog returns is cached, including those without an
// image. Ids in a failed chunk are absent from the result.
func (c *Cache) GetMany(ctx context.Context, ids []string) map[string]string {
	result := make(map[string]string, len(ids))
	misses := c.partition(ids, result)
	if len(misses) == 0 {
		return result
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i := 0; i < len(misses); i += music.MaxArtistsPerRequest {
		end := min(i+music.MaxArtistsPerRequest, len(misses))
		chunk := misses[i:end]

		g.Go(func() error {
			artists, err := c.fetcher.Artists(gctx, chunk)
			if err != nil {
				// A failed chunk leaves its ids unresolved and does not cancel
				// the others.
				c.logger.Warn().Err(err).Int("artists", len(chunk)).Msg("image chunk fetch failed")
				return nil
			}

			now := c.now()
			mu.Lock()
			defer mu.Unlock()
			for _, a := range artists {
				c.entries.Add(a.ID, entry{imageURL: a.ImageURL, fetchedAt: now})
				result[a.ID] = a.ImageURL
			}
			return nil
		})
	}

	_ = g.Wait() // chunk errors are logged, never returned
	return result
}

// Len returns the number of cached entries, fresh or expired.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// partition copies fresh hits into result and returns the distinct ids that
// must be fetched.
func (c *Cache) partition(ids []string, result map[string]string) []string {
	cutoff := c.now().Add(-c.ttl)
	seen := make(map[string]struct{}, len(ids))
	var misses []string

	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		e, ok := c.entries.Get(id)
		switch {
		case !ok:
			metrics.ImageCacheLookups.WithLabelValues("miss").Inc()
			misses = append(misses, id)
		case e.fetchedAt.Before(cutoff):
			metrics.ImageCacheLookups.WithLabelValues("expired").Inc()
			misses = append(misses, id)
		default:
			metrics.ImageCacheLookups.WithLabelValues("hit").Inc()
			result[id] = e.imageURL
		}
	}
	return misses
}
