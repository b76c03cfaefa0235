package playlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleToggleLike flips the caller's like on a playlist. A like is a bare
// (user, playlist) pair with no history, and requires read access.
func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := principal(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	playlistID := chi.URLParam(r, "id")
	if playlistID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist id")
		return
	}

	sn, err := loadSnapshot(ctx, s.db, playlistID, false)
	if err != nil {
		s.fail(w, "toggle like snapshot", err)
		return
	}
	if err := sn.authorize(userID, capRead); err != nil {
		writeOpError(w, err)
		return
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM playlist_likes
		WHERE playlist_id = $1 AND user_id = $2
	`, playlistID, userID)
	if err != nil {
		s.fail(w, "toggle like delete", err)
		return
	}

	liked := false
	if tag.RowsAffected() == 0 {
		if _, err := s.db.Exec(ctx, `
			INSERT INTO playlist_likes (playlist_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT (playlist_id, user_id) DO NOTHING
		`, playlistID, userID); err != nil {
			s.fail(w, "toggle like insert", err)
			return
		}
		liked = true
	}

	s.publishEvent(ctx, "playlist.like_toggled", map[string]any{
		"playlistId": playlistID,
		"userId":     userID,
		"liked":      liked,
	})

	writeJSON(w, http.StatusOK, map[string]any{"liked": liked})
}
