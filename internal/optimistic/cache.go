// Package optimistic implements the client side of playlist editing: a
// cached view that is mutated locally with the same shift plans the
// authoritative service executes, then confirmed or rolled back once the
// server answers. Because projection and server share one plan algorithm,
// a confirmed projection and a fresh authoritative read are guaranteed to
// agree.
package optimistic

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"mixtape-service/internal/playlist"
)

// ErrNotCached is returned when a mutation refers to a track the cached
// view has never seen; there is nothing to project, so nothing is sent.
var ErrNotCached = errors.New("track not in cached view")

// View is the client's copy of one playlist. Tracks are kept sorted by
// position.
type View struct {
	Playlist playlist.Playlist
	Tracks   []playlist.Track
}

func (v *View) clone() *View {
	cp := &View{Playlist: v.Playlist}
	cp.Tracks = make([]playlist.Track, len(v.Tracks))
	copy(cp.Tracks, v.Tracks)
	return cp
}

func (v *View) sortTracks() {
	sort.Slice(v.Tracks, func(i, j int) bool {
		return v.Tracks[i].Position < v.Tracks[j].Position
	})
}

func (v *View) indexOf(trackID string) int {
	for i := range v.Tracks {
		if v.Tracks[i].ID == trackID {
			return i
		}
	}
	return -1
}

// Authority is the server surface the cache mutates through.
type Authority interface {
	FetchPlaylist(ctx context.Context, playlistID string) (*View, error)
	AddTrack(ctx context.Context, playlistID, spotifyID string, position *int) (playlist.Track, error)
	MoveTrack(ctx context.Context, playlistID, trackID string, newPosition int) (playlist.Track, error)
	RemoveTrack(ctx context.Context, playlistID, trackID string) (playlist.Track, error)
}

// Cache holds the optimistically mutated view of one playlist.
//
// Every mutation snapshots the view, applies its projection immediately,
// and remembers the generation it acted on. A failure reverts to the exact
// snapshot, unless a newer mutation has already projected on top; then only
// the final reconcile fetch can repair the view. Refresh results
// are dropped when any mutation outran them: ordering is by request, never
// by response arrival.
type Cache struct {
	mu          sync.Mutex
	authority   Authority
	playlistID  string
	view        *View
	gen         uint64
	fetchSeq    uint64
	cancelFetch context.CancelFunc
}

func NewCache(authority Authority, playlistID string) *Cache {
	return &Cache{
		authority:  authority,
		playlistID: playlistID,
		view:       &View{},
	}
}

// View returns a deep copy of the current cached view for rendering.
func (c *Cache) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.view.clone()
}

// begin snapshots the view and bumps the generation, cancelling any
// in-flight authoritative read so its stale result cannot land on top of
// this projection.
func (c *Cache) begin() (*View, uint64) {
	prev := c.view.clone()
	c.gen++
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
	return prev, c.gen
}

// settle reverts to prev when the failed mutation is still the newest local
// change. If something newer projected on top, the snapshot is obsolete and
// the view is left for Reconcile to repair.
func (c *Cache) settle(prev *View, gen uint64, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil && c.gen == gen {
		c.view = prev
	}
	return err
}

// AddTrack projects the insert locally (a placeholder id stands in for the
// yet-unknown server id), then performs the authoritative add. position nil
// means append.
func (c *Cache) AddTrack(ctx context.Context, spotifyID string, position *int) error {
	c.mu.Lock()
	total := len(c.view.Tracks)
	target := total + 1
	plan := playlist.ShiftPlan{Lo: 1, Hi: 0, Target: target}
	if position != nil {
		var err error
		plan, err = playlist.InsertPlan(*position, total)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		target = plan.Target
	}

	prev, gen := c.begin()
	placeholder := playlist.Track{
		ID:         "local-" + uuid.NewString(),
		PlaylistID: c.playlistID,
		SpotifyID:  spotifyID,
		Position:   target,
	}
	playlist.ApplyPlan(c.view.Tracks, plan, "")
	c.view.Tracks = append(c.view.Tracks, placeholder)
	c.view.sortTracks()
	c.mu.Unlock()

	tr, err := c.authority.AddTrack(ctx, c.playlistID, spotifyID, position)
	if err != nil {
		return c.settle(prev, gen, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		if i := c.view.indexOf(placeholder.ID); i >= 0 {
			c.view.Tracks[i] = tr
			c.view.sortTracks()
		}
	}
	return nil
}

// MoveTrack projects the reorder locally, then performs the authoritative
// move.
func (c *Cache) MoveTrack(ctx context.Context, trackID string, newPosition int) error {
	c.mu.Lock()
	i := c.view.indexOf(trackID)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotCached
	}
	plan, err := playlist.MovePlan(c.view.Tracks[i].Position, newPosition, len(c.view.Tracks))
	if err != nil {
		c.mu.Unlock()
		return err
	}

	prev, gen := c.begin()
	playlist.ApplyPlan(c.view.Tracks, plan, trackID)
	c.view.sortTracks()
	c.mu.Unlock()

	if _, err := c.authority.MoveTrack(ctx, c.playlistID, trackID, newPosition); err != nil {
		return c.settle(prev, gen, err)
	}
	return nil
}

// RemoveTrack projects the removal locally, then performs the authoritative
// delete.
func (c *Cache) RemoveTrack(ctx context.Context, trackID string) error {
	c.mu.Lock()
	i := c.view.indexOf(trackID)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotCached
	}
	plan := playlist.RemovePlan(c.view.Tracks[i].Position, len(c.view.Tracks))

	prev, gen := c.begin()
	c.view.Tracks = append(c.view.Tracks[:i], c.view.Tracks[i+1:]...)
	playlist.ApplyPlan(c.view.Tracks, plan, "")
	c.view.sortTracks()
	c.mu.Unlock()

	if _, err := c.authority.RemoveTrack(ctx, c.playlistID, trackID); err != nil {
		return c.settle(prev, gen, err)
	}
	return nil
}

// Reconcile replaces the view with one authoritative read. The result is
// applied only if neither a local mutation nor a newer Reconcile happened
// after the read was requested; a superseded read is silently dropped (the
// superseding caller fetches again, so the view still converges).
func (c *Cache) Reconcile(ctx context.Context) error {
	c.mu.Lock()
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel
	c.fetchSeq++
	gen, seq := c.gen, c.fetchSeq
	c.mu.Unlock()

	v, err := c.authority.FetchPlaylist(fetchCtx, c.playlistID)

	c.mu.Lock()
	defer c.mu.Unlock()
	cancel()
	if c.gen != gen || c.fetchSeq != seq {
		// Cancelled by a newer mutation or refresh; not a failure.
		return nil
	}
	if err != nil {
		return err
	}
	v.sortTracks()
	c.view = v
	return nil
}
