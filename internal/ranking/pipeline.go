package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-release-radar/internal/auth"
	"github.com/justestif/go-release-radar/internal/genres"
	"github.com/justestif/go-release-radar/internal/locale"
	"github.com/justestif/go-release-radar/internal/logging"
	"github.com/justestif/go-release-radar/internal/metrics"
	"github.com/justestif/go-release-radar/internal/music"
)

const (
	// MaxResults caps the ranked list.
	MaxResults = 60

	// DefaultScoringConcurrency bounds concurrent scoring.
	DefaultScoringConcurrency = 8
)

// TokenProvider supplies catalog access tokens.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// ImageResolver resolves artist image URLs.
type ImageResolver interface {
	GetMany(ctx context.Context, ids []string) map[string]string
}

// genreWarmer is implemented by genre sources that can resolve many artists
// at once ahead of scoring.
type genreWarmer interface {
	Warm(ctx context.Context, artists []music.ArtistRef) ([]genres.ArtistGenres, error)
}

// Request is one ranking request.
type Request struct {
	Query     string
	Locale    string
	Genre     string
	Favorites []string
}

// RankedRelease is a release with its score.
type RankedRelease struct {
	music.Release
	Score     float64   `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// Result is the ranked response.
type Result struct {
	Releases []RankedRelease `json:"releases"`
	Artists  []music.Artist  `json:"artists"`
	Locale   string          `json:"locale"`
	Mode     Mode            `json:"mode"`
}

// Pipeline runs collection, scoring, ordering, filtering and enrichment.
type Pipeline struct {
	tokens    TokenProvider
	collector *Collector
	genres    GenreSource
	images    ImageResolver
	locales   *locale.Table

	now         func() time.Time
	concurrency int
	maxResults  int
	fanout      int
	logger      zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock injects the clock used for recency.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithScoringConcurrency bounds concurrent scoring.
func WithScoringConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithFanout bounds concurrent favorite-artist fetches.
func WithFanout(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.fanout = n
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l.With().Str("component", "ranking").Logger()
	}
}

// NewPipeline wires a Pipeline.
func NewPipeline(
	tokens TokenProvider,
	catalog music.Catalog,
	genreSource GenreSource,
	images ImageResolver,
	locales *locale.Table,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		tokens:      tokens,
		genres:      genreSource,
		images:      images,
		locales:     locales,
		now:         time.Now,
		concurrency: DefaultScoringConcurrency,
		maxResults:  MaxResults,
		fanout:      DefaultFanout,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.locales == nil {
		p.locales = locale.DefaultTable()
	}
	p.collector = NewCollector(catalog, p.now, p.fanout, p.logger)
	return p
}

// Rank produces the ranked releases and artist roster for req. A request
// without a locale fails with ErrInvalidRequest.
func (p *Pipeline) Rank(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	req.Favorites = dedupe(req.Favorites)
	mode := ModeFor(req)
	log := logging.Ctx(ctx, p.logger).With().Str("mode", string(mode)).Str("locale", req.Locale).Logger()

	res, err := p.rank(ctx, req, log)
	if err != nil {
		metrics.RankFailures.WithLabelValues(errorKind(err)).Inc()
		log.Warn().Err(err).Msg("ranking failed")
		return nil, err
	}

	metrics.RankDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	log.Info().
		Int("releases", len(res.Releases)).
		Int("artists", len(res.Artists)).
		Dur("elapsed", time.Since(start)).
		Msg("ranked releases")
	return res, nil
}

func (p *Pipeline) rank(ctx context.Context, req Request, log zerolog.Logger) (*Result, error) {
	if strings.TrimSpace(req.Locale) == "" {
		return nil, fmt.Errorf("%w: locale is required", ErrInvalidRequest)
	}

	if _, err := p.tokens.Token(ctx); err != nil {
		if errors.Is(err, auth.ErrMissingCredentials) {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstreamAuth, err)
	}

	profile := p.locales.Resolve(req.Locale)

	cands, err := p.collector.Collect(ctx, req, profile)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("candidates", len(cands.Releases)).Msg("collected candidates")

	artistGenres := p.resolveGenres(ctx, cands.Releases, log)

	favorites := make(map[string]struct{}, len(req.Favorites))
	for _, id := range req.Favorites {
		favorites[id] = struct{}{}
	}

	scorer := NewScorer(artistGenres, p.now, p.logger)
	ranked := p.scoreAll(ctx, scorer, cands.Releases, profile, favorites)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > p.maxResults {
		ranked = ranked[:p.maxResults]
	}

	if filter := strings.TrimSpace(req.Genre); filter != "" {
		ranked = filterByGenre(ctx, artistGenres, ranked, filter)
	}

	return &Result{
		Releases: ranked,
		Artists:  p.roster(ctx, ranked, req.Favorites, cands.Artists, log),
		Locale:   profile.Code,
		Mode:     cands.Mode,
	}, nil
}

// requestGenres holds the genres resolved for one request. A failed lookup
// is remembered as empty so it is not retried while scoring or filtering.
type requestGenres struct {
	source GenreSource

	mu    sync.Mutex
	known map[string][]string
}

// ArtistGenres returns the remembered genres, resolving through the source
// on first use.
func (g *requestGenres) ArtistGenres(ctx context.Context, a music.ArtistRef) []string {
	g.mu.Lock()
	tags, ok := g.known[a.ID]
	g.mu.Unlock()
	if ok || g.source == nil {
		return tags
	}

	tags = g.source.ArtistGenres(ctx, a)
	g.remember(a.ID, tags)
	return tags
}

func (g *requestGenres) remember(artistID string, tags []string) {
	if tags == nil {
		tags = []string{}
	}
	g.mu.Lock()
	g.known[artistID] = tags
	g.mu.Unlock()
}

// resolveGenres looks up every credited artist once, ahead of scoring.
// Sources that can warm in bulk do so; others are queried concurrently.
func (p *Pipeline) resolveGenres(ctx context.Context, releases []music.Release, log zerolog.Logger) *requestGenres {
	memo := &requestGenres{source: p.genres, known: make(map[string][]string)}
	if p.genres == nil {
		return memo
	}

	seen := make(map[string]struct{})
	var artists []music.ArtistRef
	for _, r := range releases {
		for _, a := range r.Artists {
			if _, dup := seen[a.ID]; dup {
				continue
			}
			seen[a.ID] = struct{}{}
			artists = append(artists, a)
		}
	}
	if len(artists) == 0 {
		return memo
	}

	if w, ok := p.genres.(genreWarmer); ok {
		results, err := w.Warm(ctx, artists)
		if err != nil {
			log.Debug().Err(err).Msg("genre warm-up interrupted")
		}
		failed := 0
		for _, r := range results {
			if r.ArtistID == "" {
				continue
			}
			if r.Error != nil {
				failed++
				memo.remember(r.ArtistID, nil)
				continue
			}
			memo.remember(r.ArtistID, r.Genres)
		}
		if failed > 0 {
			log.Debug().Int("failed", failed).Int("artists", len(artists)).Msg("genre warm-up incomplete")
		}
		return memo
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, a := range artists {
		g.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().Interface("panic", rec).Str("artist_id", a.ID).Msg("genre lookup panicked")
					memo.remember(a.ID, nil)
				}
			}()
			memo.ArtistGenres(ctx, a)
			return nil
		})
	}
	_ = g.Wait() // lookups never fail

	return memo
}

// scoreAll scores releases concurrently. Scores are written by index so
// each stays paired with its release.
func (p *Pipeline) scoreAll(ctx context.Context, scorer *Scorer, releases []music.Release, profile locale.Profile, favorites map[string]struct{}) []RankedRelease {
	ranked := make([]RankedRelease, len(releases))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, r := range releases {
		g.Go(func() error {
			b := scorer.Score(ctx, r, profile, favorites)
			ranked[i] = RankedRelease{Release: r, Score: b.Total(), Breakdown: b}
			return nil
		})
	}
	_ = g.Wait() // scoring never fails

	return ranked
}

// filterByGenre keeps releases whose first artist has a genre containing
// filter. "k-pop" also matches "korean".
func filterByGenre(ctx context.Context, source GenreSource, ranked []RankedRelease, filter string) []RankedRelease {
	needles := []string{strings.ToLower(filter)}
	if strings.EqualFold(filter, "k-pop") {
		needles = append(needles, "korean")
	}

	kept := ranked[:0:0]
	for _, r := range ranked {
		if len(r.Artists) == 0 {
			continue
		}
		for _, g := range source.ArtistGenres(ctx, r.Artists[0]) {
			if containsAny(g, needles) {
				kept = append(kept, r)
				break
			}
		}
	}
	return kept
}

// roster builds the deduplicated artist list for the response: credited
// artists first, then favorites, then search matches.
func (p *Pipeline) roster(ctx context.Context, ranked []RankedRelease, favorites []string, searchArtists []music.Artist, log zerolog.Logger) []music.Artist {
	var ordered []music.Artist
	index := make(map[string]int)

	add := func(a music.Artist) {
		if a.ID == "" {
			return
		}
		if i, ok := index[a.ID]; ok {
			if ordered[i].Name == "" {
				ordered[i].Name = a.Name
			}
			if ordered[i].ImageURL == "" {
				ordered[i].ImageURL = a.ImageURL
			}
			if len(ordered[i].Genres) == 0 {
				ordered[i].Genres = a.Genres
			}
			return
		}
		index[a.ID] = len(ordered)
		ordered = append(ordered, a)
	}

	for _, r := range ranked {
		for _, a := range r.Artists {
			add(music.Artist{ID: a.ID, Name: a.Name})
		}
	}
	for _, id := range favorites {
		add(music.Artist{ID: id})
	}
	for _, a := range searchArtists {
		add(a)
	}

	if len(ordered) == 0 {
		return []music.Artist{}
	}

	ids := make([]string, len(ordered))
	for i, a := range ordered {
		ids[i] = a.ID
	}

	var images map[string]string
	if p.images != nil {
		images = p.images.GetMany(ctx, ids)
	}

	missing := 0
	for i := range ordered {
		if ordered[i].ImageURL != "" {
			continue
		}
		url, ok := images[ordered[i].ID]
		if !ok {
			missing++
			continue
		}
		ordered[i].ImageURL = url
	}
	if missing > 0 {
		log.Info().Int("missing", missing).Int("artists", len(ordered)).Msg("artist images unresolved")
	}

	return ordered
}
