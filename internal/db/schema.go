package db

const schema = `
CREATE TABLE IF NOT EXISTS favorite_artists (
	user_id    TEXT        NOT NULL,
	artist_id  TEXT        NOT NULL,
	position   SERIAL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, artist_id)
);

CREATE TABLE IF NOT EXISTS artist_genres (
	artist_id  TEXT        NOT NULL,
	genre      TEXT        NOT NULL,
	rank       INT         NOT NULL,
	source     TEXT        NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (artist_id, genre)
);

CREATE INDEX IF NOT EXISTS artist_genres_fetched_at_idx ON artist_genres (fetched_at);
`
