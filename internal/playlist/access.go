package playlist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type capability int

const (
	capRead capability = iota
	capWrite
)

// snapshot is the single authorization read: the playlist row plus its full
// collaborator list. The gate decides on it, and the operation that follows
// mutates against the very same state, so the decision and the write cannot
// observe different playlists.
type snapshot struct {
	Playlist      Playlist
	Collaborators []Collaborator
}

// collaboratorFor returns this user's collaborator row, if any.
func (sn *snapshot) collaboratorFor(userID string) *Collaborator {
	for i := range sn.Collaborators {
		if sn.Collaborators[i].UserID == userID {
			return &sn.Collaborators[i]
		}
	}
	return nil
}

// isAcceptedCollaborator reports whether userID has an accepted row.
func (sn *snapshot) isAcceptedCollaborator(userID string) bool {
	c := sn.collaboratorFor(userID)
	return c != nil && c.Status == StatusAccepted
}

// authorize applies the privacy model for the requested capability. It is
// read-only; deny is a typed Unauthorized error.
func (sn *snapshot) authorize(principalID string, cap capability) error {
	accepted := sn.isAcceptedCollaborator(principalID)
	allowed := false
	switch cap {
	case capRead:
		allowed = CanRead(sn.Playlist, principalID, accepted)
	case capWrite:
		allowed = CanWrite(sn.Playlist, principalID, accepted)
	}
	if !allowed {
		return errUnauthorized("you are not authorized to access this playlist")
	}
	return nil
}

// loadSnapshot reads a playlist and its collaborators through q, which may
// be the pool or an open transaction. With lock set the playlist row is
// taken FOR UPDATE, which is what serializes concurrent track mutations on
// the same playlist; different playlists never contend.
func loadSnapshot(ctx context.Context, q querier, playlistID string, lock bool) (*snapshot, error) {
	sql := `
		SELECT id, owner_id, name, description, read_privacy, write_privacy, created_at, updated_at
		FROM playlists
		WHERE id = $1
	`
	if lock {
		sql += ` FOR UPDATE`
	}

	var sn snapshot
	err := q.QueryRow(ctx, sql, playlistID).Scan(
		&sn.Playlist.ID,
		&sn.Playlist.OwnerID,
		&sn.Playlist.Name,
		&sn.Playlist.Description,
		&sn.Playlist.ReadPrivacy,
		&sn.Playlist.WritePrivacy,
		&sn.Playlist.CreatedAt,
		&sn.Playlist.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errNotFound("playlist not found")
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, playlist_id, user_id, status, joined_at
		FROM collaborators
		WHERE playlist_id = $1
		ORDER BY joined_at ASC
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c Collaborator
		if err := rows.Scan(&c.ID, &c.PlaylistID, &c.UserID, &c.Status, &c.JoinedAt); err != nil {
			return nil, err
		}
		sn.Collaborators = append(sn.Collaborators, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &sn, nil
}
