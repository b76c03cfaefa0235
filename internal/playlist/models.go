package playlist

import (
	"time"
)

// Privacy levels apply independently to reading and writing a playlist's
// track list.
const (
	PrivacyPrivate = "private"
	PrivacyPublic  = "public"
	PrivacyInvite  = "invite"
)

// Collaborator lifecycle states. A declined collaborator can be revived back
// to pending by a fresh invite; pending and accepted are otherwise only left
// by the invitee's own response.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// Playlist holds metadata and the two privacy settings. Tracks are modelled
// separately and ordered by Position.
type Playlist struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ReadPrivacy  string    `json:"readPrivacy"`  // "private" | "public" | "invite"
	WritePrivacy string    `json:"writePrivacy"` // "private" | "public" | "invite"
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Track belongs to a playlist. Positions are 1-based and dense: a playlist
// with N tracks uses exactly the positions 1..N.
type Track struct {
	ID         string    `json:"id"`
	PlaylistID string    `json:"playlistId"`
	SpotifyID  string    `json:"spotifyId"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Collaborator is one user's standing invitation to a playlist. There is at
// most one row per (playlist, user) pair; re-invites reuse it.
type Collaborator struct {
	ID         string    `json:"id"`
	PlaylistID string    `json:"playlistId"`
	UserID     string    `json:"userId"`
	Status     string    `json:"status"` // "pending" | "accepted" | "declined"
	JoinedAt   time.Time `json:"joinedAt"`
}

// Notification points a user at a collaboration invite. It is removed
// together with its collaborator row.
type Notification struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	CollaboratorID string    `json:"collaboratorId"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}

// InviteNotification is the expanded form returned to clients: the
// notification joined with its collaborator row and the playlist it refers
// to.
type InviteNotification struct {
	Notification
	Status       string `json:"status"`
	PlaylistID   string `json:"playlistId"`
	PlaylistName string `json:"playlistName"`
	OwnerID      string `json:"ownerId"`
}
