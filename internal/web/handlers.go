package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/justestif/go-release-radar/internal/db"
	"github.com/justestif/go-release-radar/internal/locale"
	"github.com/justestif/go-release-radar/internal/ranking"
)

// Ranker ranks releases for a request.
type Ranker interface {
	Rank(ctx context.Context, req ranking.Request) (*ranking.Result, error)
}

// FavoriteStore persists users' favorite artists.
type FavoriteStore interface {
	ArtistIDs(ctx context.Context, userID string) ([]string, error)
	Add(ctx context.Context, userID, artistID string) error
	Remove(ctx context.Context, userID, artistID string) error
}

// Pinger reports dependency health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains the HTTP handlers.
type Handlers struct {
	ranker    Ranker
	locales   *locale.Table
	favorites FavoriteStore
	health    Pinger
}

// NewHandlers creates Handlers. favorites and health may be nil when no
// database is configured.
func NewHandlers(ranker Ranker, locales *locale.Table, favorites FavoriteStore, health Pinger) *Handlers {
	if locales == nil {
		locales = locale.DefaultTable()
	}
	return &Handlers{
		ranker:    ranker,
		locales:   locales,
		favorites: favorites,
		health:    health,
	}
}

// releasesQuery is the validated form of GET /api/v1/releases.
type releasesQuery struct {
	Query     string   `json:"q" validate:"max=200"`
	Locale    string   `json:"locale" validate:"required,min=2,max=10"`
	Genre     string   `json:"genre" validate:"max=50"`
	Favorites []string `json:"favorites" validate:"max=50,dive,required,max=64"`
	User      string   `json:"user" validate:"omitempty,max=64"`
}

func parseReleasesQuery(r *http.Request) releasesQuery {
	q := r.URL.Query()
	req := releasesQuery{
		Query:  strings.TrimSpace(q.Get("q")),
		Locale: strings.TrimSpace(q.Get("locale")),
		Genre:  strings.TrimSpace(q.Get("genre")),
		User:   strings.TrimSpace(q.Get("user")),
	}
	for _, raw := range q["favorites"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.Favorites = append(req.Favorites, id)
			}
		}
	}
	return req
}

// Releases ranks releases (GET /api/v1/releases).
func (h *Handlers) Releases(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := parseReleasesQuery(r)
	if apiErr := validateRequest(&q); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	favorites := q.Favorites
	if q.User != "" {
		if h.favorites == nil {
			respondError(w, r, http.StatusServiceUnavailable, &APIError{
				Code:    CodeUnavailable,
				Message: "stored favorites require a database",
			})
			return
		}
		stored, err := h.favorites.ArtistIDs(r.Context(), q.User)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Str("user_id", q.User).Msg("loading favorites")
			respondError(w, r, http.StatusInternalServerError, &APIError{Code: CodeDatabase, Message: "could not load favorites"})
			return
		}
		favorites = append(stored, favorites...)
	}

	res, err := h.ranker.Rank(r.Context(), ranking.Request{
		Query:     q.Query,
		Locale:    q.Locale,
		Genre:     q.Genre,
		Favorites: favorites,
	})
	if err != nil {
		respondRankError(w, r, err)
		return
	}
	respondData(w, r, res, start)
}

// Locales lists the configured locale codes (GET /api/v1/locales).
func (h *Handlers) Locales(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, map[string][]string{"codes": h.locales.Codes()}, time.Time{})
}

// Locale returns the resolved profile for a code (GET /api/v1/locales/{code}).
func (h *Handlers) Locale(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if len(code) < 2 || len(code) > 10 {
		respondError(w, r, http.StatusBadRequest, &APIError{
			Code:    CodeValidation,
			Message: "locale must be between 2 and 10 characters",
		})
		return
	}
	respondData(w, r, h.locales.Resolve(code), time.Time{})
}

// ListFavorites returns a user's favorites (GET /api/v1/users/{userID}/favorites).
func (h *Handlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	ids, err := h.favorites.ArtistIDs(r.Context(), userID)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("user_id", userID).Msg("listing favorites")
		respondError(w, r, http.StatusInternalServerError, &APIError{Code: CodeDatabase, Message: "could not load favorites"})
		return
	}
	respondData(w, r, map[string]any{"userId": userID, "artistIds": ids}, time.Time{})
}

// AddFavorite favorites an artist (PUT /api/v1/users/{userID}/favorites/{artistID}).
func (h *Handlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, artistID := chi.URLParam(r, "userID"), chi.URLParam(r, "artistID")
	if err := h.favorites.Add(r.Context(), userID, artistID); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("user_id", userID).Str("artist_id", artistID).Msg("adding favorite")
		respondError(w, r, http.StatusInternalServerError, &APIError{Code: CodeDatabase, Message: "could not save favorite"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveFavorite unfavorites an artist (DELETE /api/v1/users/{userID}/favorites/{artistID}).
func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, artistID := chi.URLParam(r, "userID"), chi.URLParam(r, "artistID")
	err := h.favorites.Remove(r.Context(), userID, artistID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		respondError(w, r, http.StatusNotFound, &APIError{Code: CodeNotFound, Message: "artist is not a favorite"})
	case err != nil:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("user_id", userID).Str("artist_id", artistID).Msg("removing favorite")
		respondError(w, r, http.StatusInternalServerError, &APIError{Code: CodeDatabase, Message: "could not remove favorite"})
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// requireFavorites rejects favorites routes when no store is configured.
func (h *Handlers) requireFavorites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.favorites == nil {
			respondError(w, r, http.StatusServiceUnavailable, &APIError{
				Code:    CodeUnavailable,
				Message: "favorites require a database",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Health reports liveness and, when configured, database reachability
// (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
			respondError(w, r, http.StatusServiceUnavailable, &APIError{Code: CodeUnavailable, Message: "database unreachable"})
			return
		}
	}
	respondData(w, r, map[string]string{"status": "ok"}, time.Time{})
}
