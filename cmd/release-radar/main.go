// Command release-radar serves ranked new music releases over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/justestif/go-release-radar/internal/auth"
	"github.com/justestif/go-release-radar/internal/config"
	"github.com/justestif/go-release-radar/internal/db"
	"github.com/justestif/go-release-radar/internal/genres"
	"github.com/justestif/go-release-radar/internal/imagecache"
	"github.com/justestif/go-release-radar/internal/lastfm"
	"github.com/justestif/go-release-radar/internal/locale"
	"github.com/justestif/go-release-radar/internal/logging"
	"github.com/justestif/go-release-radar/internal/ranking"
	"github.com/justestif/go-release-radar/internal/spotify"
	"github.com/justestif/go-release-radar/internal/web"
)

// genrePruneInterval is how often stale persisted genres are deleted.
const genrePruneInterval = 24 * time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var logger zerolog.Logger
	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			config.Load,
			newLogger,
			newLocaleTable,
			newTokenProvider,
			newCatalog,
			newDatabase,
			newGenreService,
			newImageCache,
			newPipeline,
			newHandlers,
			newServer,
		),
		fx.Invoke(startServer, startGenrePruner),
		fx.Populate(&logger),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("starting: %w", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("stopping: %w", err)
	}
	return nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	return logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
}

func newLocaleTable(cfg config.Config, logger zerolog.Logger) (*locale.Table, error) {
	if cfg.LocaleProfiles == "" {
		return locale.DefaultTable(), nil
	}
	table, err := locale.LoadTable(cfg.LocaleProfiles)
	if err != nil {
		return nil, fmt.Errorf("loading locale profiles: %w", err)
	}
	logger.Info().Str("path", cfg.LocaleProfiles).Strs("codes", table.Codes()).Msg("loaded locale profiles")
	return table, nil
}

func newTokenProvider(cfg config.Config, logger zerolog.Logger) *auth.TokenProvider {
	if !cfg.HasSpotifyCredentials() {
		logger.Warn().Msg("SPOTIFY_ID or SPOTIFY_SECRET is not set; ranking requests will fail")
	}
	return auth.New(cfg.SpotifyID, cfg.SpotifySecret)
}

func newCatalog(cfg config.Config, tokens *auth.TokenProvider, logger zerolog.Logger) *spotify.Client {
	return spotify.NewWithHTTPClient(
		tokens.HTTPClient(),
		cfg.SpotifyBaseURL,
		spotify.WithRateLimit(cfg.CatalogRPS, cfg.CatalogBurst),
		spotify.WithLogger(logger),
	)
}

// newDatabase connects when DATABASE_URL is set and returns nil otherwise.
func newDatabase(lc fx.Lifecycle, cfg config.Config, logger zerolog.Logger) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		logger.Info().Msg("DATABASE_URL not set; favorites and persisted genres disabled")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			database.Close()
			return nil
		},
	})
	return database, nil
}

func newGenreService(cfg config.Config, catalog *spotify.Client, database *db.DB, logger zerolog.Logger) (*genres.Service, error) {
	opts := []genres.Option{
		genres.WithLogger(logger),
		genres.WithConcurrency(cfg.ScoringConcurrency),
	}
	if database != nil {
		opts = append(opts, genres.WithStore(database.ArtistGenres()))
	}
	if cfg.LastFMAPIKey != "" {
		lfmCfg, err := lastfm.NewConfig(cfg.LastFMAPIKey)
		if err != nil {
			return nil, err
		}
		opts = append(opts, genres.WithFallback(lastfm.NewClient(lfmCfg)))
	}
	return genres.NewService(catalog, opts...), nil
}

func newImageCache(cfg config.Config, catalog *spotify.Client, logger zerolog.Logger) (*imagecache.Cache, error) {
	return imagecache.New(
		catalog,
		imagecache.WithSize(cfg.ImageCacheSize),
		imagecache.WithTTL(cfg.ImageCacheTTL),
		imagecache.WithLogger(logger),
	)
}

func newPipeline(
	cfg config.Config,
	tokens *auth.TokenProvider,
	catalog *spotify.Client,
	genreService *genres.Service,
	images *imagecache.Cache,
	table *locale.Table,
	logger zerolog.Logger,
) *ranking.Pipeline {
	return ranking.NewPipeline(
		tokens,
		catalog,
		genreService,
		images,
		table,
		ranking.WithScoringConcurrency(cfg.ScoringConcurrency),
		ranking.WithLogger(logger),
	)
}

func newHandlers(pipeline *ranking.Pipeline, table *locale.Table, database *db.DB) *web.Handlers {
	// Leave the interfaces nil, not typed-nil, when there is no database.
	var (
		favorites web.FavoriteStore
		health    web.Pinger
	)
	if database != nil {
		favorites = database.Favorites()
		health = database
	}
	return web.NewHandlers(pipeline, table, favorites, health)
}

func newServer(cfg config.Config, handlers *web.Handlers, logger zerolog.Logger) *web.Server {
	return web.NewServer(web.ServerConfig{
		Addr:              cfg.Addr,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, handlers, logger)
}

func startServer(lc fx.Lifecycle, server *web.Server) {
	lc.Append(fx.Hook{
		OnStart: server.Start,
		OnStop:  server.Shutdown,
	})
}

// startGenrePruner deletes stale persisted genres at startup and once a day.
func startGenrePruner(lc fx.Lifecycle, genreService *genres.Service, database *db.DB, logger zerolog.Logger) {
	if database == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	prune := func() {
		n, err := genreService.Prune(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("pruning stale genres")
			return
		}
		logger.Info().Int64("deleted", n).Msg("pruned stale genres")
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(genrePruneInterval)
				defer ticker.Stop()

				prune()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						prune()
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
