package playlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	db  DB
	rdb *redis.Client
	log *zap.Logger
}

func NewServer(db DB, rdb *redis.Client, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		db:  db,
		rdb: rdb,
		log: log,
	}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)

	r.Get("/playlists", s.handleListPublicPlaylists)

	r.Group(func(r chi.Router) {
		r.Get("/playlists/owned", s.handleListOwnedPlaylists)
		r.Post("/playlists", s.handleCreatePlaylist)
		r.Patch("/playlists/{id}", s.handleEditPlaylist)
		r.Get("/playlists/{id}", s.handleGetPlaylist)
		r.Delete("/playlists/{id}", s.handleDeletePlaylist)

		r.Post("/playlists/{id}/tracks", s.handleAddTrack)
		r.Patch("/playlists/{id}/tracks/{trackId}", s.handleMoveTrack)
		r.Delete("/playlists/{id}/tracks/{trackId}", s.handleRemoveTrack)

		r.Post("/playlists/{id}/like", s.handleToggleLike)

		r.Post("/playlists/{id}/collaborators", s.handleInvite)
		r.Post("/collaborators/{collabId}/respond", s.handleRespondToInvite)
		r.Delete("/collaborators/{collabId}", s.handleRevokeCollaborator)

		r.Get("/notifications", s.handleListNotifications)
		r.Post("/notifications/{id}/read", s.handleMarkNotificationRead)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "mixtape-service",
	})
}

// principal returns the caller's user id as injected by the gateway.
func principal(r *http.Request) string {
	return r.Header.Get("X-User-Id")
}
