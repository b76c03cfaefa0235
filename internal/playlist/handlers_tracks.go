package playlist

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

// handleAddTrack appends a track, or splices it into a caller-chosen slot.
// The whole operation (authorization snapshot, duplicate check, range shift,
// insert) runs in one transaction with the playlist row locked, so two
// concurrent mutations on the same playlist cannot interleave their shifts.
func (s *Server) handleAddTrack(w http.ResponseWriter, r *http.Request) {
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

	var body struct {
		SpotifyID string `json:"spotifyId"`
		Position  *int   `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	body.SpotifyID = strings.TrimSpace(body.SpotifyID)
	if body.SpotifyID == "" {
		writeError(w, http.StatusBadRequest, "spotifyId is required")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		s.fail(w, "add track begin tx", err)
		return
	}
	defer tx.Rollback(ctx)

	sn, err := loadSnapshot(ctx, tx, playlistID, true)
	if err != nil {
		s.fail(w, "add track snapshot", err)
		return
	}
	if err := sn.authorize(userID, capWrite); err != nil {
		writeOpError(w, err)
		return
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tracks WHERE playlist_id = $1 AND spotify_id = $2
		)
	`, playlistID, body.SpotifyID).Scan(&exists); err != nil {
		s.fail(w, "add track duplicate check", err)
		return
	}
	if exists {
		writeOpError(w, errConflict("track already exists in playlist"))
		return
	}

	total, err := trackCount(ctx, tx, playlistID)
	if err != nil {
		s.fail(w, "add track count", err)
		return
	}

	target := total + 1
	plan := ShiftPlan{Lo: 1, Hi: 0, Target: target} // append shifts nothing
	if body.Position != nil {
		plan, err = InsertPlan(*body.Position, total)
		if err != nil {
			writeOpError(w, err)
			return
		}
		target = plan.Target
	}

	if _, err := applyShift(ctx, tx, playlistID, plan); err != nil {
		s.fail(w, "add track shift", err)
		return
	}

	var tr Track
	err = tx.QueryRow(ctx, `
		INSERT INTO tracks (playlist_id, spotify_id, position)
		VALUES ($1, $2, $3)
		RETURNING id, playlist_id, spotify_id, position, created_at
	`, playlistID, body.SpotifyID, target).Scan(
		&tr.ID,
		&tr.PlaylistID,
		&tr.SpotifyID,
		&tr.Position,
		&tr.CreatedAt,
	)
	if err != nil {
		s.fail(w, "add track insert", err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		s.fail(w, "add track commit", err)
		return
	}

	s.publishEvent(ctx, "track.added", map[string]any{
		"playlistId": playlistID,
		"track":      tr,
	})

	writeJSON(w, http.StatusCreated, tr)
}

// handleMoveTrack reorders a track within its playlist. Responds with the
// moved track and the number of rows whose position changed. Moving a track
// onto its current slot changes nothing and issues no writes at all.
func (s *Server) handleMoveTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := principal(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	playlistID := chi.URLParam(r, "id")
	trackID := chi.URLParam(r, "trackId")
	if playlistID == "" || trackID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist or track id")
		return
	}

	var body struct {
		NewPosition int `json:"newPosition"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		s.fail(w, "move track begin tx", err)
		return
	}
	defer tx.Rollback(ctx)

	sn, err := loadSnapshot(ctx, tx, playlistID, true)
	if err != nil {
		s.fail(w, "move track snapshot", err)
		return
	}
	if err := sn.authorize(userID, capWrite); err != nil {
		writeOpError(w, err)
		return
	}

	var tr Track
	err = tx.QueryRow(ctx, `
		SELECT id, playlist_id, spotify_id, position, created_at
		FROM tracks
		WHERE id = $1 AND playlist_id = $2
	`, trackID, playlistID).Scan(
		&tr.ID,
		&tr.PlaylistID,
		&tr.SpotifyID,
		&tr.Position,
		&tr.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		writeOpError(w, errNotFound("track not found"))
		return
	}
	if err != nil {
		s.fail(w, "move track fetch", err)
		return
	}

	total, err := trackCount(ctx, tx, playlistID)
	if err != nil {
		s.fail(w, "move track count", err)
		return
	}

	plan, err := MovePlan(tr.Position, body.NewPosition, total)
	if err != nil {
		writeOpError(w, err)
		return
	}

	if plan.NoOp {
		if err := tx.Commit(ctx); err != nil {
			s.fail(w, "move track commit noop", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"affected": 0,
			"track":    tr,
		})
		return
	}

	shifted, err := applyShift(ctx, tx, playlistID, plan)
	if err != nil {
		s.fail(w, "move track shift", err)
		return
	}

	if _, err := tx.Exec(ctx, `
		UPDATE tracks
		SET position = $3
		WHERE id = $2 AND playlist_id = $1
	`, playlistID, trackID, plan.Target); err != nil {
		s.fail(w, "move track set position", err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		s.fail(w, "move track commit", err)
		return
	}

	from := tr.Position
	tr.Position = plan.Target

	s.publishEvent(ctx, "track.moved", map[string]any{
		"playlistId": playlistID,
		"trackId":    trackID,
		"from":       from,
		"to":         plan.Target,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"affected": shifted + 1,
		"track":    tr,
	})
}

// handleRemoveTrack deletes a track and closes the gap it leaves.
func (s *Server) handleRemoveTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := principal(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	playlistID := chi.URLParam(r, "id")
	trackID := chi.URLParam(r, "trackId")
	if playlistID == "" || trackID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist or track id")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		s.fail(w, "remove track begin tx", err)
		return
	}
	defer tx.Rollback(ctx)

	sn, err := loadSnapshot(ctx, tx, playlistID, true)
	if err != nil {
		s.fail(w, "remove track snapshot", err)
		return
	}
	if err := sn.authorize(userID, capWrite); err != nil {
		writeOpError(w, err)
		return
	}

	var tr Track
	err = tx.QueryRow(ctx, `
		SELECT id, playlist_id, spotify_id, position, created_at
		FROM tracks
		WHERE id = $1 AND playlist_id = $2
	`, trackID, playlistID).Scan(
		&tr.ID,
		&tr.PlaylistID,
		&tr.SpotifyID,
		&tr.Position,
		&tr.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		writeOpError(w, errNotFound("track not found"))
		return
	}
	if err != nil {
		s.fail(w, "remove track fetch", err)
		return
	}

	total, err := trackCount(ctx, tx, playlistID)
	if err != nil {
		s.fail(w, "remove track count", err)
		return
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM tracks WHERE id = $1 AND playlist_id = $2
	`, trackID, playlistID); err != nil {
		s.fail(w, "remove track delete", err)
		return
	}

	if _, err := applyShift(ctx, tx, playlistID, RemovePlan(tr.Position, total)); err != nil {
		s.fail(w, "remove track compact", err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		s.fail(w, "remove track commit", err)
		return
	}

	s.publishEvent(ctx, "track.removed", map[string]any{
		"playlistId": playlistID,
		"trackId":    trackID,
		"position":   tr.Position,
	})

	writeJSON(w, http.StatusOK, tr)
}
