package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-release-radar/internal/music"
)

// ErrTooManyIDs is returned when a bulk lookup exceeds the per-request limit.
var ErrTooManyIDs = errors.New("too many ids in one request")

var _ music.Catalog = (*Client)(nil)

// Search matches albums and artists for query.
func (c *Client) Search(ctx context.Context, query, market string, limit int) (*music.SearchResult, error) {
	opts := []spotify.RequestOption{spotify.Limit(limit)}
	if market != "" {
		opts = append(opts, spotify.Market(market))
	}

	res, err := execute(ctx, c, "search", func(ctx context.Context) (*spotify.SearchResult, error) {
		return c.api.Search(ctx, query, spotify.SearchTypeAlbum|spotify.SearchTypeArtist, opts...)
	})
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	out := &music.SearchResult{}
	if res.Albums != nil {
		out.Releases = convertAlbums(res.Albums.Albums)
	}
	if res.Artists != nil {
		out.Artists = make([]music.Artist, 0, len(res.Artists.Artists))
		for _, a := range res.Artists.Artists {
			out.Artists = append(out.Artists, convertArtist(a))
		}
	}
	return out, nil
}

// ArtistReleases returns an artist's albums and singles.
func (c *Client) ArtistReleases(ctx context.Context, artistID string, limit int) ([]music.Release, error) {
	types := []spotify.AlbumType{spotify.AlbumTypeAlbum, spotify.AlbumTypeSingle}

	page, err := execute(ctx, c, "artist_albums", func(ctx context.Context) (*spotify.SimpleAlbumPage, error) {
		return c.api.GetArtistAlbums(ctx, spotify.ID(artistID), types, spotify.Limit(limit))
	})
	if err != nil {
		return nil, fmt.Errorf("getting albums for artist %s: %w", artistID, err)
	}
	return convertAlbums(page.Albums), nil
}

// NewReleases returns the new-releases feed.
func (c *Client) NewReleases(ctx context.Context, limit int) ([]music.Release, error) {
	page, err := execute(ctx, c, "new_releases", func(ctx context.Context) (*spotify.SimpleAlbumPage, error) {
		return c.api.NewReleases(ctx, spotify.Limit(limit))
	})
	if err != nil {
		return nil, fmt.Errorf("getting new releases: %w", err)
	}
	return convertAlbums(page.Albums), nil
}

// Artist returns one artist with genres and image.
func (c *Client) Artist(ctx context.Context, artistID string) (music.Artist, error) {
	a, err := execute(ctx, c, "artist", func(ctx context.Context) (*spotify.FullArtist, error) {
		return c.api.GetArtist(ctx, spotify.ID(artistID))
	})
	if err != nil {
		return music.Artist{}, fmt.Errorf("getting artist %s: %w", artistID, err)
	}
	return convertArtist(*a), nil
}

// Artists returns metadata for up to music.MaxArtistsPerRequest ids.
// Unknown ids are omitted from the result.
func (c *Client) Artists(ctx context.Context, ids []string) ([]music.Artist, error) {
	if len(ids) == 0 {
		return []music.Artist{}, nil
	}
	if len(ids) > music.MaxArtistsPerRequest {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyIDs, len(ids), music.MaxArtistsPerRequest)
	}

	sids := make([]spotify.ID, len(ids))
	for i, id := range ids {
		sids[i] = spotify.ID(id)
	}

	full, err := execute(ctx, c, "artists", func(ctx context.Context) ([]*spotify.FullArtist, error) {
		return c.api.GetArtists(ctx, sids...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting %d artists: %w", len(ids), err)
	}

	artists := make([]music.Artist, 0, len(full))
	for _, a := range full {
		if a == nil {
			continue
		}
		artists = append(artists, convertArtist(*a))
	}
	return artists, nil
}

func convertAlbums(albums []spotify.SimpleAlbum) []music.Release {
	releases := make([]music.Release, 0, len(albums))
	for _, a := range albums {
		releases = append(releases, convertAlbum(a))
	}
	return releases
}

// convertAlbum converts a Spotify SimpleAlbum to a music.Release.
func convertAlbum(a spotify.SimpleAlbum) music.Release {
	artists := make([]music.ArtistRef, len(a.Artists))
	for i, ar := range a.Artists {
		artists[i] = music.ArtistRef{ID: ar.ID.String(), Name: ar.Name}
	}

	return music.Release{
		ID:          a.ID.String(),
		Name:        a.Name,
		AlbumType:   a.AlbumType,
		ReleaseDate: parseReleaseDate(a.ReleaseDate),
		ImageURL:    firstImage(a.Images),
		Artists:     artists,
	}
}

func convertArtist(a spotify.FullArtist) music.Artist {
	genres := make([]string, len(a.Genres))
	for i, g := range a.Genres {
		genres[i] = strings.ToLower(g)
	}
	return music.Artist{
		ID:       a.ID.String(),
		Name:     a.Name,
		ImageURL: firstImage(a.Images),
		Genres:   genres,
	}
}

// firstImage returns the widest image, which Spotify lists first.
func firstImage(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

// parseReleaseDate accepts day, month and year precision dates.
// Unparseable or empty input yields the zero time.
func parseReleaseDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
