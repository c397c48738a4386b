package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FavoriteRepository handles favorite artist database operations.
type FavoriteRepository struct {
	pool *pgxpool.Pool
}

// ArtistIDs returns a user's favorite artist ids in the order they were added.
func (r *FavoriteRepository) ArtistIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT artist_id
		FROM favorite_artists
		WHERE user_id = $1
		ORDER BY position
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying favorites: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning artist ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Add favorites an artist. Adding an existing favorite is a no-op.
func (r *FavoriteRepository) Add(ctx context.Context, userID, artistID string) error {
	query := `
		INSERT INTO favorite_artists (user_id, artist_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, artist_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, userID, artistID); err != nil {
		return fmt.Errorf("inserting favorite: %w", err)
	}
	return nil
}

// Remove unfavorites an artist. Returns ErrNotFound if it was not a favorite.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, artistID string) error {
	query := `DELETE FROM favorite_artists WHERE user_id = $1 AND artist_id = $2`
	tag, err := r.pool.Exec(ctx, query, userID, artistID)
	if err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
