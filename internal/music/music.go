// Package music defines the release and artist types shared by the catalog
// client, the caches and the ranking engine.
package music

import (
	"context"
	"time"
)

// ArtistRef identifies an artist credited on a release.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Release is an album or single returned by the catalog.
// A zero ReleaseDate means the catalog did not report one.
type Release struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	AlbumType   string      `json:"albumType,omitempty"`
	ReleaseDate time.Time   `json:"releaseDate"`
	ImageURL    string      `json:"imageUrl,omitempty"`
	Artists     []ArtistRef `json:"artists"`
}

// HasReleaseDate reports whether the catalog supplied a release date.
func (r Release) HasReleaseDate() bool {
	return !r.ReleaseDate.IsZero()
}

// ArtistIDs returns the ids of the credited artists in credit order.
func (r Release) ArtistIDs() []string {
	ids := make([]string, len(r.Artists))
	for i, a := range r.Artists {
		ids[i] = a.ID
	}
	return ids
}

// Artist is an artist with display metadata. ImageURL may be empty.
type Artist struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	ImageURL string   `json:"imageUrl"`
	Genres   []string `json:"genres,omitempty"`
}

// SearchResult holds the albums and artists matched by a free-text search.
type SearchResult struct {
	Releases []Release
	Artists  []Artist
}

// Catalog is the upstream music catalog.
type Catalog interface {
	// Search matches albums and artists for query within market.
	Search(ctx context.Context, query, market string, limit int) (*SearchResult, error)

	// ArtistReleases returns an artist's albums and singles.
	ArtistReleases(ctx context.Context, artistID string, limit int) ([]Release, error)

	// NewReleases returns the catalog's editorial new-releases feed.
	NewReleases(ctx context.Context, limit int) ([]Release, error)

	// Artist returns a single artist with genres and image.
	Artist(ctx context.Context, artistID string) (Artist, error)

	// Artists returns metadata for up to MaxArtistsPerRequest ids.
	Artists(ctx context.Context, ids []string) ([]Artist, error)
}

// MaxArtistsPerRequest is the catalog's limit for bulk artist lookups.
const MaxArtistsPerRequest = 50
