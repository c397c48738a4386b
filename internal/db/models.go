package db

import "time"

// Favorite is an artist a user has favorited.
type Favorite struct {
	UserID    string
	ArtistID  string
	CreatedAt time.Time
}

// ArtistGenre is one cached genre tag for an artist.
type ArtistGenre struct {
	ArtistID  string
	Genre     string
	Rank      int    // position in the source's list, 0 first
	Source    string // "catalog" or "lastfm"
	FetchedAt time.Time
}
