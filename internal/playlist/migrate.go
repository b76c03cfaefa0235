package playlist

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AutoMigrate creates the schema. The (playlist_id, position) uniqueness is
// a deferred constraint so the range shifts inside a transaction can pass
// through transient duplicates; it still holds at every commit.
func AutoMigrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS pgcrypto`); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlists (
          id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          owner_id      TEXT NOT NULL,
          name          TEXT NOT NULL,
          description   TEXT NOT NULL DEFAULT '',
          read_privacy  TEXT NOT NULL DEFAULT 'private',
          write_privacy TEXT NOT NULL DEFAULT 'private',
          created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
          updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS tracks (
          id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          playlist_id uuid NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
          spotify_id  TEXT NOT NULL,
          position    INT NOT NULL CHECK (position >= 1),
          created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
          UNIQUE (playlist_id, spotify_id),
          UNIQUE (playlist_id, position) DEFERRABLE INITIALLY DEFERRED
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS collaborators (
          playlist_id uuid NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
          id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          user_id     TEXT NOT NULL,
          status      TEXT NOT NULL DEFAULT 'pending',
          joined_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
          UNIQUE (playlist_id, user_id)
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS notifications (
          id              uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          user_id         TEXT NOT NULL,
          collaborator_id uuid NOT NULL UNIQUE REFERENCES collaborators(id) ON DELETE CASCADE,
          read            BOOLEAN NOT NULL DEFAULT FALSE,
          created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlist_likes (
          playlist_id uuid NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
          user_id     TEXT NOT NULL,
          created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
          PRIMARY KEY (playlist_id, user_id)
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_notifications_user
      ON notifications(user_id, created_at DESC)
    `); err != nil {
		return err
	}

	return nil
}
