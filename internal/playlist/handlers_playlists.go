package playlist

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// fail renders err and logs it when it is not part of the error domain.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	var oe *opError
	if !errors.As(err, &oe) {
		s.log.Error(op, zap.Error(err))
	}
	writeOpError(w, err)
}

func validateName(name string) error {
	if len(name) < 2 || len(name) > 30 {
		return errInvalidArgument("name must be between 2 and 30 characters")
	}
	return nil
}

func validateDescription(desc string) error {
	if len(desc) > 100 {
		return errInvalidArgument("description must be at most 100 characters")
	}
	return nil
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := principal(r)
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var body struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		ReadPrivacy  string `json:"readPrivacy"`
		WritePrivacy string `json:"writePrivacy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	body.Description = strings.TrimSpace(body.Description)

	if err := validateName(body.Name); err != nil {
		writeOpError(w, err)
		return
	}
	if err := validateDescription(body.Description); err != nil {
		writeOpError(w, err)
		return
	}
	if err := ValidatePrivacy(body.ReadPrivacy, body.WritePrivacy); err != nil {
		writeOpError(w, err)
		return
	}

	var pl Playlist
	err := s.db.QueryRow(ctx, `
		INSERT INTO playlists (owner_id, name, description, read_privacy, write_privacy)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, owner_id, name, description, read_privacy, write_privacy, created_at, updated_at
	`, ownerID, body.Name, body.Description, body.ReadPrivacy, body.WritePrivacy).Scan(
		&pl.ID,
		&pl.OwnerID,
		&pl.Name,
		&pl.Description,
		&pl.ReadPrivacy,
		&pl.WritePrivacy,
		&pl.CreatedAt,
		&pl.UpdatedAt,
	)
	if err != nil {
		s.fail(w, "create playlist", err)
		return
	}

	s.publishEvent(ctx, "playlist.created", map[string]any{"playlist": pl})

	writeJSON(w, http.StatusCreated, pl)
}

// handleEditPlaylist replaces a playlist's metadata and privacy settings.
// Owner only; submitting values identical to the current state is reported
// as no_change rather than silently succeeding.
func (s *Server) handleEditPlaylist(w http.ResponseWriter, r *http.Request) {
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
		Name         string `json:"name"`
		Description  string `json:"description"`
		ReadPrivacy  string `json:"readPrivacy"`
		WritePrivacy string `json:"writePrivacy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	body.Description = strings.TrimSpace(body.Description)

	if err := validateName(body.Name); err != nil {
		writeOpError(w, err)
		return
	}
	if err := validateDescription(body.Description); err != nil {
		writeOpError(w, err)
		return
	}
	if err := ValidatePrivacy(body.ReadPrivacy, body.WritePrivacy); err != nil {
		writeOpError(w, err)
		return
	}

	sn, err := loadSnapshot(ctx, s.db, playlistID, false)
	if err != nil {
		s.fail(w, "edit playlist", err)
		return
	}
	if sn.Playlist.OwnerID != userID {
		writeOpError(w, errUnauthorized("you are not authorized to edit this playlist"))
		return
	}

	cur := sn.Playlist
	if cur.Name == body.Name &&
		cur.Description == body.Description &&
		cur.ReadPrivacy == body.ReadPrivacy &&
		cur.WritePrivacy == body.WritePrivacy {
		writeOpError(w, errNoChange("nothing to update"))
		return
	}

	var pl Playlist
	err = s.db.QueryRow(ctx, `
		UPDATE playlists
		SET name = $2,
			description = $3,
			read_privacy = $4,
			write_privacy = $5,
			updated_at = now()
		WHERE id = $1
		RETURNING id, owner_id, name, description, read_privacy, write_privacy, created_at, updated_at
	`, playlistID, body.Name, body.Description, body.ReadPrivacy, body.WritePrivacy).Scan(
		&pl.ID,
		&pl.OwnerID,
		&pl.Name,
		&pl.Description,
		&pl.ReadPrivacy,
		&pl.WritePrivacy,
		&pl.CreatedAt,
		&pl.UpdatedAt,
	)
	if err != nil {
		s.fail(w, "edit playlist update", err)
		return
	}

	s.publishEvent(ctx, "playlist.updated", map[string]any{"playlist": pl})

	writeJSON(w, http.StatusOK, pl)
}

// handleGetPlaylist returns the playlist with its ordered tracks,
// collaborator list and like count, gated by read privacy.
func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := principal(r)
	playlistID := chi.URLParam(r, "id")
	if playlistID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist id")
		return
	}

	sn, err := loadSnapshot(ctx, s.db, playlistID, false)
	if err != nil {
		s.fail(w, "get playlist", err)
		return
	}
	if err := sn.authorize(userID, capRead); err != nil {
		writeOpError(w, err)
		return
	}

	tracks, err := s.listTracks(ctx, s.db, playlistID)
	if err != nil {
		s.fail(w, "get playlist tracks", err)
		return
	}

	var likeCount int
	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM playlist_likes WHERE playlist_id = $1
	`, playlistID).Scan(&likeCount); err != nil {
		s.fail(w, "get playlist likes", err)
		return
	}

	collaborators := sn.Collaborators
	if collaborators == nil {
		collaborators = []Collaborator{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"playlist":       sn.Playlist,
		"tracks":         tracks,
		"collaborators":  collaborators,
		"likeCount":      likeCount,
		"isCollaborator": sn.isAcceptedCollaborator(userID),
	})
}

// handleDeletePlaylist deletes a playlist and, through the schema cascades,
// its tracks, collaborators, notifications and likes. Owner only.
func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
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
		s.fail(w, "delete playlist", err)
		return
	}
	if sn.Playlist.OwnerID != userID {
		writeOpError(w, errUnauthorized("you are not authorized to delete this playlist"))
		return
	}

	if _, err := s.db.Exec(ctx, `
		DELETE FROM playlists WHERE id = $1
	`, playlistID); err != nil {
		s.fail(w, "delete playlist exec", err)
		return
	}

	s.publishEvent(ctx, "playlist.deleted", map[string]any{"playlistId": playlistID})

	writeJSON(w, http.StatusOK, sn.Playlist)
}

func (s *Server) handleListPublicPlaylists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, name, description, read_privacy, write_privacy, created_at, updated_at
		FROM playlists
		WHERE read_privacy = 'public'
		ORDER BY updated_at DESC
		LIMIT 200
	`)
	if err != nil {
		s.fail(w, "list public playlists", err)
		return
	}
	defer rows.Close()

	playlists, err := scanPlaylists(rows)
	if err != nil {
		s.fail(w, "list public playlists scan", err)
		return
	}

	writeJSON(w, http.StatusOK, playlists)
}

func (s *Server) handleListOwnedPlaylists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := principal(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, name, description, read_privacy, write_privacy, created_at, updated_at
		FROM playlists
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		s.fail(w, "list owned playlists", err)
		return
	}
	defer rows.Close()

	playlists, err := scanPlaylists(rows)
	if err != nil {
		s.fail(w, "list owned playlists scan", err)
		return
	}

	writeJSON(w, http.StatusOK, playlists)
}
