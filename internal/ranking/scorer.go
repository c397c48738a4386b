package ranking

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/justestif/go-release-radar/internal/locale"
	"github.com/justestif/go-release-radar/internal/music"
)

// Score weights.
const (
	RecencyWeek    = 100
	RecencyMonth   = 80
	RecencyQuarter = 50
	RecencyOlder   = 10

	LocaleBoostBonus = 200
	KeywordBonus     = 10
	NamedArtistBonus = 150
	FavoriteBonus    = 500

	// GenreWeightMultiplier scales a matched genre table weight.
	GenreWeightMultiplier = 2
)

const day = 24 * time.Hour

// GenreSource resolves an artist's genres. Implementations return an empty
// slice when the lookup fails.
type GenreSource interface {
	ArtistGenres(ctx context.Context, artist music.ArtistRef) []string
}

// Breakdown is a release score split by term.
type Breakdown struct {
	Recency     float64 `json:"recency"`
	Locale      float64 `json:"locale"`
	Genre       float64 `json:"genre"`
	Keyword     float64 `json:"keyword"`
	NamedArtist float64 `json:"namedArtist"`
	Favorite    float64 `json:"favorite"`
}

// Total sums the terms.
func (b Breakdown) Total() float64 {
	return b.Recency + b.Locale + b.Genre + b.Keyword + b.NamedArtist + b.Favorite
}

// Scorer computes release scores.
type Scorer struct {
	genres GenreSource
	now    func() time.Time
	logger zerolog.Logger
}

// NewScorer creates a Scorer. now is injected so recency is testable.
func NewScorer(genres GenreSource, now func() time.Time, logger zerolog.Logger) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{genres: genres, now: now, logger: logger}
}

// Score returns the additive score of r for profile and favorites.
// Each term is computed independently; a term that panics contributes 0.
func (s *Scorer) Score(ctx context.Context, r music.Release, profile locale.Profile, favorites map[string]struct{}) Breakdown {
	// One lookup per artist, shared by the locale and genre terms.
	artistGenres := make([][]string, len(r.Artists))
	for i, a := range r.Artists {
		artistGenres[i] = s.lookupGenres(ctx, a)
	}

	var b Breakdown
	b.Recency = s.term(r.ID, "recency", func() float64 { return recencyScore(r.ReleaseDate, s.now()) })
	b.Favorite = s.term(r.ID, "favorite", func() float64 { return favoriteScore(r.Artists, favorites) })
	b.Genre = s.term(r.ID, "genre", func() float64 { return genreScore(artistGenres, profile.GenreWeights) })
	b.Keyword = s.term(r.ID, "keyword", func() float64 { return keywordScore(r.Artists, profile.SearchKeywords) })
	if profile.Boost {
		b.Locale = s.term(r.ID, "locale", func() float64 { return localeScore(r.Artists, artistGenres, profile.Indicators) })
		b.NamedArtist = s.term(r.ID, "named_artist", func() float64 { return namedArtistScore(r.Artists, profile.BoostedArtists) })
	}
	return b
}

func (s *Scorer) lookupGenres(ctx context.Context, a music.ArtistRef) (genres []string) {
	if s.genres == nil {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().Interface("panic", rec).Str("artist_id", a.ID).Msg("genre lookup panicked")
			genres = nil
		}
	}()
	return s.genres.ArtistGenres(ctx, a)
}

func (s *Scorer) term(releaseID, name string, fn func() float64) (v float64) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().Interface("panic", rec).Str("release_id", releaseID).Str("term", name).Msg("score term failed")
			v = 0
		}
	}()
	return fn()
}

// recencyScore buckets release age in whole UTC calendar days. A zero date
// counts as the epoch.
func recencyScore(released, now time.Time) float64 {
	if released.IsZero() {
		released = time.Unix(0, 0)
	}
	switch days := ageInDays(released, now); {
	case days <= 7:
		return RecencyWeek
	case days <= 30:
		return RecencyMonth
	case days <= 90:
		return RecencyQuarter
	default:
		return RecencyOlder
	}
}

// ageInDays counts calendar days between released and now. Catalog dates
// are UTC midnight, so the time of day of either value is ignored.
func ageInDays(released, now time.Time) int {
	return int(now.UTC().Truncate(day).Sub(released.UTC().Truncate(day)) / day)
}

// localeScore awards the boost once if any artist name or genre contains an
// indicator.
func localeScore(artists []music.ArtistRef, artistGenres [][]string, indicators []string) float64 {
	for i, a := range artists {
		if containsAny(a.Name, indicators) {
			return LocaleBoostBonus
		}
		for _, g := range artistGenres[i] {
			if containsAny(g, indicators) {
				return LocaleBoostBonus
			}
		}
	}
	return 0
}

// genreScore adds the first matching table weight for every genre tag of
// every artist.
func genreScore(artistGenres [][]string, weights []locale.GenreWeight) float64 {
	var total float64
	for _, genres := range artistGenres {
		for _, g := range genres {
			tag := strings.ToLower(g)
			for _, w := range weights {
				if w.Key == "" {
					continue
				}
				if strings.Contains(tag, strings.ToLower(w.Key)) {
					total += float64(w.Weight * GenreWeightMultiplier)
					break
				}
			}
		}
	}
	return total
}

// keywordScore awards the bonus once if any artist name contains a keyword.
func keywordScore(artists []music.ArtistRef, keywords []string) float64 {
	for _, a := range artists {
		if containsAny(a.Name, keywords) {
			return KeywordBonus
		}
	}
	return 0
}

// namedArtistScore awards the bonus once if any artist is on the boosted list.
func namedArtistScore(artists []music.ArtistRef, boosted []string) float64 {
	for _, a := range artists {
		for _, name := range boosted {
			if strings.EqualFold(strings.TrimSpace(a.Name), name) {
				return NamedArtistBonus
			}
		}
	}
	return 0
}

// favoriteScore awards the bonus per distinct favorited contributor.
func favoriteScore(artists []music.ArtistRef, favorites map[string]struct{}) float64 {
	if len(favorites) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(artists))
	var total float64
	for _, a := range artists {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		if _, ok := favorites[a.ID]; ok {
			total += FavoriteBonus
		}
	}
	return total
}

// containsAny reports whether s contains any needle, ignoring case.
func containsAny(s string, needles []string) bool {
	s = strings.ToLower(s)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(s, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
