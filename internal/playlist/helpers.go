package playlist

import (
	"context"

	"github.com/jackc/pgx/v5"
)

func scanPlaylists(rows pgx.Rows) ([]Playlist, error) {
	playlists := []Playlist{}
	for rows.Next() {
		var pl Playlist
		if err := rows.Scan(
			&pl.ID,
			&pl.OwnerID,
			&pl.Name,
			&pl.Description,
			&pl.ReadPrivacy,
			&pl.WritePrivacy,
			&pl.CreatedAt,
			&pl.UpdatedAt,
		); err != nil {
			return nil, err
		}
		playlists = append(playlists, pl)
	}
	return playlists, rows.Err()
}

// listTracks returns a playlist's tracks in position order.
func (s *Server) listTracks(ctx context.Context, q querier, playlistID string) ([]Track, error) {
	rows, err := q.Query(ctx, `
		SELECT id, playlist_id, spotify_id, position, created_at
		FROM tracks
		WHERE playlist_id = $1
		ORDER BY position ASC
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []Track{}
	for rows.Next() {
		var tr Track
		if err := rows.Scan(&tr.ID, &tr.PlaylistID, &tr.SpotifyID, &tr.Position, &tr.CreatedAt); err != nil {
			return nil, err
		}
		tracks = append(tracks, tr)
	}
	return tracks, rows.Err()
}

// trackCount counts a playlist's tracks; with dense ordering this is also
// its highest position.
func trackCount(ctx context.Context, q querier, playlistID string) (int, error) {
	var n int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM tracks WHERE playlist_id = $1
	`, playlistID).Scan(&n)
	return n, err
}

// applyShift executes a plan's range shift and returns how many rows moved.
// The no-row case (empty plan) issues no SQL at all.
func applyShift(ctx context.Context, q querier, playlistID string, plan ShiftPlan) (int, error) {
	if plan.Empty() {
		return 0, nil
	}
	tag, err := q.Exec(ctx, `
		UPDATE tracks
		SET position = position + $2
		WHERE playlist_id = $1
		  AND position >= $3
		  AND position <= $4
	`, playlistID, plan.Delta, plan.Lo, plan.Hi)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
