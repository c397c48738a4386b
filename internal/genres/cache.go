package genres

import (
	"context"
	"fmt"
	"time"

	"github.com/justestif/go-release-radar/internal/db"
	"github.com/justestif/go-release-radar/internal/metrics"
	"github.com/justestif/go-release-radar/internal/music"
)

// StoreTTL is the duration after which persisted genres are considered stale.
const StoreTTL = 30 * 24 * time.Hour // 30 days

// Lookup resolves one artist through memory, the store, the catalog and the
// fallback, in that order.
func (s *Service) Lookup(ctx context.Context, artist music.ArtistRef) ArtistGenres {
	if genres, ok := s.fromMemory(artist.ID); ok {
		metrics.GenreLookups.WithLabelValues(string(SourceMemory)).Inc()
		return ArtistGenres{ArtistID: artist.ID, Genres: genres, Source: SourceMemory}
	}

	if genres, ok := s.fromStore(ctx, artist.ID); ok {
		s.remember(artist.ID, genres)
		metrics.GenreLookups.WithLabelValues(string(SourceStore)).Inc()
		return ArtistGenres{ArtistID: artist.ID, Genres: genres, Source: SourceStore}
	}

	res := s.fetch(ctx, artist)
	metrics.GenreLookups.WithLabelValues(string(res.Source)).Inc()
	if res.Error != nil {
		return res
	}

	s.remember(artist.ID, res.Genres)
	if len(res.Genres) > 0 {
		s.persist(ctx, artist.ID, res)
	}
	return res
}

// Prune removes persisted genres older than StoreTTL.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	if s.store == nil {
		return 0, nil
	}
	n, err := s.store.DeleteStale(ctx, s.now().Add(-StoreTTL))
	if err != nil {
		return 0, fmt.Errorf("pruning genre store: %w", err)
	}
	return n, nil
}

func (s *Service) fromMemory(artistID string) ([]string, bool) {
	e, ok := s.memory.Get(artistID)
	if !ok {
		return nil, false
	}
	if e.fetchedAt.Before(s.now().Add(-MemoryTTL)) {
		s.memory.Remove(artistID)
		return nil, false
	}
	return e.genres, true
}

func (s *Service) remember(artistID string, genres []string) {
	s.memory.Add(artistID, memoryEntry{genres: genres, fetchedAt: s.now()})
}

// fromStore returns persisted genres unless missing or stale (lazy invalidation).
func (s *Service) fromStore(ctx context.Context, artistID string) ([]string, bool) {
	if s.store == nil {
		return nil, false
	}

	cached, err := s.store.GetForArtists(ctx, []string{artistID})
	if err != nil {
		s.logger.Warn().Err(err).Str("artist_id", artistID).Msg("reading genre store")
		return nil, false
	}

	rows := cached[artistID]
	if len(rows) == 0 || rows[0].FetchedAt.Before(s.now().Add(-StoreTTL)) {
		return nil, false
	}
	return dbGenresToNames(rows), true
}

// fetch asks the catalog, then the fallback when the catalog has nothing.
func (s *Service) fetch(ctx context.Context, artist music.ArtistRef) ArtistGenres {
	res := ArtistGenres{ArtistID: artist.ID, Genres: []string{}, Source: SourceNone}

	a, err := s.catalog.Artist(ctx, artist.ID)
	if err == nil && len(a.Genres) > 0 {
		res.Genres = a.Genres
		res.Source = SourceCatalog
		return res
	}

	name := artist.Name
	if name == "" {
		name = a.Name
	}
	if s.fallback != nil && name != "" {
		names, ferr := s.fallback.TopTagNames(ctx, name, maxFallbackTags)
		if ferr == nil {
			res.Genres = names
			if len(names) > 0 {
				res.Source = SourceLastFM
			}
			return res
		}
		s.logger.Debug().Err(ferr).Str("artist", name).Msg("fallback tag lookup failed")
		if err == nil {
			// The catalog answered with no genres; that answer stands.
			return res
		}
	}

	if err != nil {
		res.Error = fmt.Errorf("looking up genres for %s: %w", artist.ID, err)
	}
	return res
}

func (s *Service) persist(ctx context.Context, artistID string, res ArtistGenres) {
	if s.store == nil {
		return
	}

	now := s.now()
	rows := make([]db.ArtistGenre, len(res.Genres))
	for i, g := range res.Genres {
		rows[i] = db.ArtistGenre{
			ArtistID:  artistID,
			Genre:     g,
			Rank:      i,
			Source:    string(res.Source),
			FetchedAt: now,
		}
	}

	if err := s.store.ReplaceForArtist(ctx, artistID, rows); err != nil {
		s.logger.Warn().Err(err).Str("artist_id", artistID).Msg("persisting genres")
	}
}

// dbGenresToNames converts rank-ordered rows to genre names.
func dbGenresToNames(rows []db.ArtistGenre) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Genre
	}
	return names
}
