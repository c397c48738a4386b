package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ArtistGenreRepository handles cached artist genre operations.
type ArtistGenreRepository struct {
	pool *pgxpool.Pool
}

// ReplaceForArtist stores the genres fetched for one artist, replacing any
// previous rows. An empty genres slice clears the artist's rows.
func (r *ArtistGenreRepository) ReplaceForArtist(ctx context.Context, artistID string, genres []ArtistGenre) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `DELETE FROM artist_genres WHERE artist_id = $1`, artistID); err != nil {
		return fmt.Errorf("deleting artist genres: %w", err)
	}

	if len(genres) > 0 {
		query := `
			INSERT INTO artist_genres (artist_id, genre, rank, source, fetched_at)
			SELECT * FROM unnest($1::text[], $2::text[], $3::int[], $4::text[], $5::timestamptz[])
			ON CONFLICT (artist_id, genre) DO NOTHING
		`

		artistIDs := make([]string, len(genres))
		names := make([]string, len(genres))
		ranks := make([]int, len(genres))
		sources := make([]string, len(genres))
		fetchedAts := make([]time.Time, len(genres))

		for i, g := range genres {
			artistIDs[i] = artistID
			names[i] = g.Genre
			ranks[i] = g.Rank
			sources[i] = g.Source
			fetchedAts[i] = g.FetchedAt
		}

		if _, err := tx.Exec(ctx, query, artistIDs, names, ranks, sources, fetchedAts); err != nil {
			return fmt.Errorf("batch inserting artist genres: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing artist genres: %w", err)
	}
	return nil
}

// GetForArtists retrieves cached genres for multiple artists, returning a map
// of artist ID to genres in rank order.
func (r *ArtistGenreRepository) GetForArtists(ctx context.Context, artistIDs []string) (map[string][]ArtistGenre, error) {
	if len(artistIDs) == 0 {
		return make(map[string][]ArtistGenre), nil
	}

	query := `
		SELECT artist_id, genre, rank, source, fetched_at
		FROM artist_genres
		WHERE artist_id = ANY($1)
		ORDER BY artist_id, rank
	`
	rows, err := r.pool.Query(ctx, query, artistIDs)
	if err != nil {
		return nil, fmt.Errorf("querying artist genres: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]ArtistGenre)
	for rows.Next() {
		var g ArtistGenre
		if err := rows.Scan(
			&g.ArtistID,
			&g.Genre,
			&g.Rank,
			&g.Source,
			&g.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning artist genre: %w", err)
		}
		result[g.ArtistID] = append(result[g.ArtistID], g)
	}
	return result, rows.Err()
}

// DeleteStale removes genres fetched before olderThan and returns the number
// of rows removed.
func (r *ArtistGenreRepository) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM artist_genres WHERE fetched_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("deleting stale artist genres: %w", err)
	}
	return tag.RowsAffected(), nil
}
