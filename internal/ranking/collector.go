// Package ranking collects candidate releases, scores them for a locale and
// a set of favorite artists, and assembles the ranked response.
package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-release-radar/internal/locale"
	"github.com/justestif/go-release-radar/internal/metrics"
	"github.com/justestif/go-release-radar/internal/music"
)

// Collection limits.
const (
	SearchLimit        = 50
	ArtistReleaseLimit = 20
	NewReleasesLimit   = 50

	// RecencyWindowYears drops releases older than this many years.
	RecencyWindowYears = 3

	// DefaultFanout bounds concurrent per-artist fetches.
	DefaultFanout = 8
)

// Mode is the collection strategy chosen for a request.
type Mode string

const (
	ModeSearch      Mode = "search"
	ModeFavorites   Mode = "favorites"
	ModeNewReleases Mode = "new_releases"
)

// Candidates is the output of collection.
type Candidates struct {
	Mode     Mode
	Releases []music.Release

	// Artists are search matches returned alongside releases in search mode.
	Artists []music.Artist
}

// Collector gathers candidate releases from the catalog.
type Collector struct {
	catalog music.Catalog
	now     func() time.Time
	fanout  int
	logger  zerolog.Logger
}

// NewCollector creates a Collector.
func NewCollector(catalog music.Catalog, now func() time.Time, fanout int, logger zerolog.Logger) *Collector {
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	if now == nil {
		now = time.Now
	}
	return &Collector{catalog: catalog, now: now, fanout: fanout, logger: logger}
}

// ModeFor returns the collection mode req selects.
func ModeFor(req Request) Mode {
	switch {
	case strings.TrimSpace(req.Query) != "":
		return ModeSearch
	case len(req.Favorites) > 0:
		return ModeFavorites
	default:
		return ModeNewReleases
	}
}

// Collect gathers releases for req. A query selects search; otherwise
// favorites select per-artist fetches; otherwise the new-releases feed is
// used. Only search and new-releases failures are fatal.
func (c *Collector) Collect(ctx context.Context, req Request, profile locale.Profile) (*Candidates, error) {
	cands := &Candidates{Mode: ModeFor(req)}

	switch cands.Mode {
	case ModeSearch:
		res, err := c.catalog.Search(ctx, strings.TrimSpace(req.Query), profile.Market, SearchLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstreamRequest, err)
		}
		cands.Releases = res.Releases
		cands.Artists = res.Artists

	case ModeFavorites:
		cands.Releases = c.collectFavorites(ctx, req.Favorites)

	default:
		releases, err := c.catalog.NewReleases(ctx, NewReleasesLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstreamRequest, err)
		}
		cands.Releases = releases
	}

	cands.Releases = c.filter(cands.Releases)
	return cands, nil
}

// artistReleases is the outcome of fetching one favorite artist.
type artistReleases struct {
	artistID string
	releases []music.Release
	err      error
}

// collectFavorites fetches each favorite's releases concurrently and merges
// them in favorite order. The first occurrence of a release id wins.
func (c *Collector) collectFavorites(ctx context.Context, favorites []string) []music.Release {
	ids := dedupe(favorites)
	results := make([]artistReleases, len(ids))

	var g errgroup.Group
	g.SetLimit(c.fanout)
	for i, id := range ids {
		g.Go(func() error {
			releases, err := c.catalog.ArtistReleases(ctx, id, ArtistReleaseLimit)
			results[i] = artistReleases{artistID: id, releases: releases, err: err}
			return nil
		})
	}
	_ = g.Wait() // per-artist errors are carried in results

	seen := make(map[string]struct{})
	var merged []music.Release
	for _, res := range results {
		if res.err != nil {
			metrics.CollectorSkippedArtists.Inc()
			c.logger.Warn().Err(res.err).Str("artist_id", res.artistID).Msg("skipping favorite artist")
			continue
		}
		for _, r := range res.releases {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}

// filter drops releases without artists and releases dated outside the
// recency window. Undated releases are kept.
func (c *Collector) filter(releases []music.Release) []music.Release {
	cutoff := c.now().AddDate(-RecencyWindowYears, 0, 0)

	kept := make([]music.Release, 0, len(releases))
	for _, r := range releases {
		if len(r.Artists) == 0 {
			continue
		}
		if r.HasReleaseDate() && r.ReleaseDate.Before(cutoff) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
