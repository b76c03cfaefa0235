package playlist

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

// handleInvite invites a user to collaborate. Owner only. A declined
// collaborator is revived back to pending on the same row; pending and
// accepted collaborators cannot be invited again. Each successful invite
// emits exactly one notification to the invitee, in the same transaction.
func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
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
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	body.UserID = strings.TrimSpace(body.UserID)
	if body.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		s.fail(w, "invite begin tx", err)
		return
	}
	defer tx.Rollback(ctx)

	// Lock the playlist row: concurrent invites of the same user serialize
	// here, so the loser sees the winner's row instead of racing the
	// (playlist_id, user_id) constraint.
	sn, err := loadSnapshot(ctx, tx, playlistID, true)
	if err != nil {
		s.fail(w, "invite snapshot", err)
		return
	}
	if sn.Playlist.OwnerID != userID {
		writeOpError(w, errForbidden("only the playlist owner can invite collaborators"))
		return
	}
	if body.UserID == sn.Playlist.OwnerID {
		writeOpError(w, errInvalidArgument("you cannot be a collaborator of your own playlist"))
		return
	}

	var collab Collaborator
	if existing := sn.collaboratorFor(body.UserID); existing != nil {
		if existing.Status != StatusDeclined {
			writeOpError(w, errConflict("user already invited to playlist"))
			return
		}
		// Re-invite after a decline reuses the row. The decline left the
		// original notification behind; it is replaced, not duplicated,
		// so a collaborator never carries more than one.
		if _, err := tx.Exec(ctx, `
			DELETE FROM notifications WHERE collaborator_id = $1
		`, existing.ID); err != nil {
			s.fail(w, "invite notification cleanup", err)
			return
		}
		err = tx.QueryRow(ctx, `
			UPDATE collaborators
			SET status = 'pending'
			WHERE id = $1
			RETURNING id, playlist_id, user_id, status, joined_at
		`, existing.ID).Scan(&collab.ID, &collab.PlaylistID, &collab.UserID, &collab.Status, &collab.JoinedAt)
	} else {
		err = tx.QueryRow(ctx, `
			INSERT INTO collaborators (playlist_id, user_id)
			VALUES ($1, $2)
			RETURNING id, playlist_id, user_id, status, joined_at
		`, playlistID, body.UserID).Scan(&collab.ID, &collab.PlaylistID, &collab.UserID, &collab.Status, &collab.JoinedAt)
	}
	if err != nil {
		s.fail(w, "invite upsert", err)
		return
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO notifications (user_id, collaborator_id)
		VALUES ($1, $2)
	`, body.UserID, collab.ID); err != nil {
		s.fail(w, "invite notification", err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		s.fail(w, "invite commit", err)
		return
	}

	s.publishEvent(ctx, "collaborator.invited", map[string]any{
		"playlistId":   playlistID,
		"collaborator": collab,
	})

	writeJSON(w, http.StatusCreated, collab)
}

// handleRespondToInvite lets the invitee accept or decline a pending invite.
// Both outcomes are terminal for the invitee; only a fresh invite from the
// owner can bring a declined row back.
func (s *Server) handleRespondToInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := principal(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	collabID := chi.URLParam(r, "collabId")
	if collabID == "" {
		writeError(w, http.StatusBadRequest, "missing collaborator id")
		return
	}

	var body struct {
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Decision != StatusAccepted && body.Decision != StatusDeclined {
		writeOpError(w, errInvalidArgument(`decision must be "accepted" or "declined"`))
		return
	}

	var collab Collaborator
	err := s.db.QueryRow(ctx, `
		SELECT id, playlist_id, user_id, status, joined_at
		FROM collaborators
		WHERE id = $1
	`, collabID).Scan(&collab.ID, &collab.PlaylistID, &collab.UserID, &collab.Status, &collab.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		writeOpError(w, errNotFound("collaboration not found"))
		return
	}
	if err != nil {
		s.fail(w, "respond fetch", err)
		return
	}

	if collab.UserID != userID {
		writeOpError(w, errForbidden("you can only respond to your own invites"))
		return
	}
	if collab.Status != StatusPending {
		writeOpError(w, errConflict("invite is no longer pending"))
		return
	}

	// Guarded update: a racing response loses here and reports conflict.
	err = s.db.QueryRow(ctx, `
		UPDATE collaborators
		SET status = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING id, playlist_id, user_id, status, joined_at
	`, collabID, body.Decision).Scan(&collab.ID, &collab.PlaylistID, &collab.UserID, &collab.Status, &collab.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		writeOpError(w, errConflict("invite is no longer pending"))
		return
	}
	if err != nil {
		s.fail(w, "respond update", err)
		return
	}

	s.publishEvent(ctx, "collaborator.responded", map[string]any{
		"playlistId":   collab.PlaylistID,
		"collaborator": collab,
	})

	writeJSON(w, http.StatusOK, collab)
}

// handleRevokeCollaborator removes a collaborator. Owner only. The
// collaborator's notification goes with it (schema cascade), so both
// disappear in the same statement.
func (s *Server) handleRevokeCollaborator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := principal(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	collabID := chi.URLParam(r, "collabId")
	if collabID == "" {
		writeError(w, http.StatusBadRequest, "missing collaborator id")
		return
	}

	var collab Collaborator
	var ownerID string
	err := s.db.QueryRow(ctx, `
		SELECT c.id, c.playlist_id, c.user_id, c.status, c.joined_at, p.owner_id
		FROM collaborators c
		JOIN playlists p ON p.id = c.playlist_id
		WHERE c.id = $1
	`, collabID).Scan(&collab.ID, &collab.PlaylistID, &collab.UserID, &collab.Status, &collab.JoinedAt, &ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeOpError(w, errNotFound("collaboration not found"))
		return
	}
	if err != nil {
		s.fail(w, "revoke fetch", err)
		return
	}

	if ownerID != userID {
		writeOpError(w, errForbidden("only the playlist owner can revoke collaborators"))
		return
	}

	if _, err := s.db.Exec(ctx, `
		DELETE FROM collaborators WHERE id = $1
	`, collabID); err != nil {
		s.fail(w, "revoke delete", err)
		return
	}

	s.publishEvent(ctx, "collaborator.revoked", map[string]any{
		"playlistId":   collab.PlaylistID,
		"collaborator": collab,
	})

	writeJSON(w, http.StatusOK, collab)
}
