package playlist

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func postJSON(srv *Server, method, path, asUser string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if asUser != "" {
		req.Header.Set("X-User-Id", asUser)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHandleCreatePlaylist(t *testing.T) {
	mockDB := &MockDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &MockRow{ScanFunc: func(dest ...any) error {
				*dest[0].(*string) = "pl-1"
				*dest[1].(*string) = args[0].(string)
				*dest[2].(*string) = args[1].(string)
				*dest[3].(*string) = args[2].(string)
				*dest[4].(*string) = args[3].(string)
				*dest[5].(*string) = args[4].(string)
				*dest[6].(*time.Time) = time.Now()
				*dest[7].(*time.Time) = time.Now()
				return nil
			}}
		},
	}
	srv := NewServer(mockDB, nil, nil)

	w := postJSON(srv, "POST", "/playlists", "user-alice", map[string]string{
		"name":         "Road Trip",
		"description":  "Summer 2026",
		"readPrivacy":  PrivacyPublic,
		"writePrivacy": PrivacyInvite,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var pl Playlist
	if err := json.Unmarshal(w.Body.Bytes(), &pl); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if pl.OwnerID != "user-alice" || pl.ReadPrivacy != PrivacyPublic || pl.WritePrivacy != PrivacyInvite {
		t.Errorf("playlist = %+v", pl)
	}
}

func TestHandleCreatePlaylist_Validation(t *testing.T) {
	srv := NewServer(&MockDB{}, nil, nil)

	tests := []struct {
		name    string
		payload map[string]string
	}{
		{
			name: "name too short",
			payload: map[string]string{
				"name": "x", "readPrivacy": PrivacyPublic, "writePrivacy": PrivacyPublic,
			},
		},
		{
			name: "name too long",
			payload: map[string]string{
				"name":        strings.Repeat("a", 31),
				"readPrivacy": PrivacyPublic, "writePrivacy": PrivacyPublic,
			},
		},
		{
			name: "description too long",
			payload: map[string]string{
				"name": "Road Trip", "description": strings.Repeat("a", 101),
				"readPrivacy": PrivacyPublic, "writePrivacy": PrivacyPublic,
			},
		},
		{
			name: "unknown privacy value",
			payload: map[string]string{
				"name": "Road Trip", "readPrivacy": "secret", "writePrivacy": PrivacyPublic,
			},
		},
		{
			// Private reads cannot pair with a wider write audience.
			name: "write wider than private read",
			payload: map[string]string{
				"name": "Road Trip", "readPrivacy": PrivacyPrivate, "writePrivacy": PrivacyPublic,
			},
		},
		{
			name: "public write over invite read",
			payload: map[string]string{
				"name": "Road Trip", "readPrivacy": PrivacyInvite, "writePrivacy": PrivacyPublic,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(srv, "POST", "/playlists", "user-alice", tt.payload)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleCreatePlaylist_MissingPrincipal(t *testing.T) {
	srv := NewServer(&MockDB{}, nil, nil)
	w := postJSON(srv, "POST", "/playlists", "", map[string]string{
		"name": "Road Trip", "readPrivacy": PrivacyPublic, "writePrivacy": PrivacyPublic,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

// editTestDB serves a fixed current playlist for the snapshot and echoes
// updates back.
func editTestDB(ownerID string) *MockDB {
	return &MockDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			if strings.Contains(sql, "UPDATE playlists") {
				return &MockRow{ScanFunc: func(dest ...any) error {
					*dest[0].(*string) = args[0].(string)
					*dest[1].(*string) = ownerID
					*dest[2].(*string) = args[1].(string)
					*dest[3].(*string) = args[2].(string)
					*dest[4].(*string) = args[3].(string)
					*dest[5].(*string) = args[4].(string)
					*dest[6].(*time.Time) = time.Now()
					*dest[7].(*time.Time) = time.Now()
					return nil
				}}
			}
			return &MockRow{ScanFunc: playlistScan("pl-1", ownerID, PrivacyPublic, PrivacyPublic)}
		},
	}
}

func TestHandleEditPlaylist(t *testing.T) {
	srv := NewServer(editTestDB("user-alice"), nil, nil)

	w := postJSON(srv, "PATCH", "/playlists/pl-1", "user-alice", map[string]string{
		"name":         "Road Trip Redux",
		"description":  "",
		"readPrivacy":  PrivacyPublic,
		"writePrivacy": PrivacyPublic,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var pl Playlist
	if err := json.Unmarshal(w.Body.Bytes(), &pl); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if pl.Name != "Road Trip Redux" {
		t.Errorf("name = %q, want the updated value", pl.Name)
	}
}

func TestHandleEditPlaylist_NoChange(t *testing.T) {
	// playlistScan serves name "Road Trip" with empty description; submitting
	// the identical state must not update.
	srv := NewServer(editTestDB("user-alice"), nil, nil)

	w := postJSON(srv, "PATCH", "/playlists/pl-1", "user-alice", map[string]string{
		"name":         "Road Trip",
		"description":  "",
		"readPrivacy":  PrivacyPublic,
		"writePrivacy": PrivacyPublic,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["code"] != "no_change" {
		t.Errorf("error code = %q, want %q", resp["code"], "no_change")
	}
}

func TestHandleEditPlaylist_NonOwner(t *testing.T) {
	srv := NewServer(editTestDB("user-alice"), nil, nil)

	w := postJSON(srv, "PATCH", "/playlists/pl-1", "user-eve", map[string]string{
		"name":         "Hijacked",
		"readPrivacy":  PrivacyPublic,
		"writePrivacy": PrivacyPublic,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

// getTestDB serves a playlist snapshot plus empty tracks and zero likes.
func getTestDB(readPrivacy, writePrivacy string, collaborators [][]any) *MockDB {
	return &MockDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			if strings.Contains(sql, "COUNT(*)") {
				return &MockRow{ScanFunc: func(dest ...any) error {
					*dest[0].(*int) = 0
					return nil
				}}
			}
			return &MockRow{ScanFunc: playlistScan("pl-1", "user-alice", readPrivacy, writePrivacy)}
		},
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			if strings.Contains(sql, "FROM collaborators") {
				return NewMockRows(collaborators), nil
			}
			return NewMockRows(nil), nil
		},
	}
}

func TestHandleGetPlaylist_PrivateDeniedToOthers(t *testing.T) {
	srv := NewServer(getTestDB(PrivacyPrivate, PrivacyPrivate, nil), nil, nil)

	req := httptest.NewRequest("GET", "/playlists/pl-1", nil)
	req.Header.Set("X-User-Id", "user-eve")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleGetPlaylist_InviteReadForAccepted(t *testing.T) {
	collaborators := [][]any{
		{"collab-1", "pl-1", "user-bob", StatusAccepted, time.Now()},
	}
	srv := NewServer(getTestDB(PrivacyInvite, PrivacyInvite, collaborators), nil, nil)

	req := httptest.NewRequest("GET", "/playlists/pl-1", nil)
	req.Header.Set("X-User-Id", "user-bob")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Playlist       Playlist       `json:"playlist"`
		Collaborators  []Collaborator `json:"collaborators"`
		IsCollaborator bool           `json:"isCollaborator"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.IsCollaborator {
		t.Error("isCollaborator = false for an accepted collaborator")
	}
	if len(resp.Collaborators) != 1 {
		t.Errorf("collaborators = %v", resp.Collaborators)
	}
}

func TestHandleGetPlaylist_PublicAllowsAnonymous(t *testing.T) {
	srv := NewServer(getTestDB(PrivacyPublic, PrivacyPrivate, nil), nil, nil)

	req := httptest.NewRequest("GET", "/playlists/pl-1", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleDeletePlaylist(t *testing.T) {
	var deletes []execCall
	mockDB := getTestDB(PrivacyPrivate, PrivacyPrivate, nil)
	mockDB.ExecFunc = func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		deletes = append(deletes, execCall{sql: sql, args: args})
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	srv := NewServer(mockDB, nil, nil)

	req := httptest.NewRequest("DELETE", "/playlists/pl-1", nil)
	req.Header.Set("X-User-Id", "user-eve")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("non-owner delete: expected 401, got %d", w.Code)
	}
	if len(deletes) != 0 {
		t.Fatalf("denied delete issued writes: %v", deletes)
	}

	req = httptest.NewRequest("DELETE", "/playlists/pl-1", nil)
	req.Header.Set("X-User-Id", "user-alice")
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("owner delete: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(deletes) != 1 || !strings.Contains(deletes[0].sql, "DELETE FROM playlists") {
		t.Fatalf("expected one playlist delete, got %v", deletes)
	}
}

func TestHandleListPublicPlaylists(t *testing.T) {
	now := time.Now()
	mockDB := &MockDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			if !strings.Contains(sql, "read_privacy = 'public'") {
				t.Errorf("listing should filter on public read privacy: %s", sql)
			}
			return NewMockRows([][]any{
				{"pl-1", "user-alice", "Road Trip", "", PrivacyPublic, PrivacyInvite, now, now},
				{"pl-2", "user-bob", "Focus", "", PrivacyPublic, PrivacyPublic, now, now},
			}), nil
		},
	}
	srv := NewServer(mockDB, nil, nil)

	req := httptest.NewRequest("GET", "/playlists", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var playlists []Playlist
	if err := json.Unmarshal(w.Body.Bytes(), &playlists); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(playlists) != 2 {
		t.Fatalf("got %d playlists, want 2", len(playlists))
	}
}

func TestHandleToggleLike(t *testing.T) {
	// First call: nothing to delete, so the like is inserted. Second call:
	// the delete removes the existing row.
	liked := false
	mockDB := getTestDB(PrivacyPublic, PrivacyPublic, nil)
	mockDB.ExecFunc = func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		switch {
		case strings.Contains(sql, "DELETE FROM playlist_likes"):
			if liked {
				liked = false
				return pgconn.NewCommandTag("DELETE 1"), nil
			}
			return pgconn.NewCommandTag("DELETE 0"), nil
		case strings.Contains(sql, "INSERT INTO playlist_likes"):
			liked = true
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		}
		return pgconn.CommandTag{}, nil
	}
	srv := NewServer(mockDB, nil, nil)

	toggle := func() bool {
		req := httptest.NewRequest("POST", "/playlists/pl-1/like", nil)
		req.Header.Set("X-User-Id", "user-bob")
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp map[string]bool
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return resp["liked"]
	}

	if !toggle() {
		t.Fatal("first toggle should like")
	}
	if toggle() {
		t.Fatal("second toggle should unlike")
	}
}
