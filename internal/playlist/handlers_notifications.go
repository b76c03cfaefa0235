package playlist

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

// handleListNotifications returns the caller's invite notifications, newest
// first, each joined with its collaborator row and the playlist it is for.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := principal(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	rows, err := s.db.Query(ctx, `
		SELECT n.id, n.user_id, n.collaborator_id, n.read, n.created_at,
		       c.status, p.id, p.name, p.owner_id
		FROM notifications n
		JOIN collaborators c ON c.id = n.collaborator_id
		JOIN playlists p ON p.id = c.playlist_id
		WHERE n.user_id = $1
		ORDER BY n.created_at DESC
	`, userID)
	if err != nil {
		s.fail(w, "list notifications", err)
		return
	}
	defer rows.Close()

	notifications := []InviteNotification{}
	for rows.Next() {
		var n InviteNotification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.CollaboratorID,
			&n.Read,
			&n.CreatedAt,
			&n.Status,
			&n.PlaylistID,
			&n.PlaylistName,
			&n.OwnerID,
		); err != nil {
			s.fail(w, "list notifications scan", err)
			return
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		s.fail(w, "list notifications rows", err)
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := principal(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	notificationID := chi.URLParam(r, "id")
	if notificationID == "" {
		writeError(w, http.StatusBadRequest, "missing notification id")
		return
	}

	var n Notification
	err := s.db.QueryRow(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, collaborator_id, read, created_at
	`, notificationID, userID).Scan(&n.ID, &n.UserID, &n.CollaboratorID, &n.Read, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		writeOpError(w, errNotFound("notification not found"))
		return
	}
	if err != nil {
		s.fail(w, "mark notification read", err)
		return
	}

	writeJSON(w, http.StatusOK, n)
}
