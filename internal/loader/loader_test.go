// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package loader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/siteassist/siteassist-widgets/internal/api"
	"github.com/siteassist/siteassist-widgets/internal/model"
	"github.com/siteassist/siteassist-widgets/internal/session"
)

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.Open(filepath.Join(t.TempDir(), "widget.db"))
	if err != nil {
		t.Fatalf("session.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestLoader(t *testing.T, store *session.Store, handler http.HandlerFunc) *Loader {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := api.NewClient(&api.ClientConfig{
		BaseURL: server.URL,
		Tokens:  store.TokenSource("pk_test"),
	})
	return New(client, store, "pk_test", "")
}

// =============================================================================
// PROJECT TESTS
// =============================================================================

func TestLoadProjectFetchesAndCaches(t *testing.T) {
	store := newTestStore(t)
	fetches := 0
	loader := newTestLoader(t, store, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/current" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("apiKey"); got != "pk_test" {
			t.Errorf("apiKey = %q", got)
		}
		fetches++
		json.NewEncoder(w).Encode(model.Project{ID: "proj-1", Name: "Docs"})
	})

	project, err := loader.LoadProject(context.Background())
	if err != nil {
		t.Fatalf("LoadProject() error = %v", err)
	}
	if project.ID != "proj-1" {
		t.Errorf("project = %+v", project)
	}

	// Second load hits the fresh cache, not the network.
	if _, err := loader.LoadProject(context.Background()); err != nil {
		t.Fatalf("LoadProject() error = %v", err)
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}
}

func TestLoadProjectServesStaleCacheOnFetchFailure(t *testing.T) {
	store := newTestStore(t)
	store.CacheProject("pk_test", &model.Project{ID: "proj-cached"})

	// Age the cache past the trust window by rewriting its timestamp.
	raw, _ := store.Get("sa_project_pk_test")
	var cached map[string]any
	json.Unmarshal([]byte(raw), &cached)
	cached["storedAt"] = time.Now().Add(-48 * time.Hour).Format(time.RFC3339Nano)
	aged, _ := json.Marshal(cached)
	store.Set("sa_project_pk_test", string(aged))

	loader := newTestLoader(t, store, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	project, err := loader.LoadProject(context.Background())
	if err != nil {
		t.Fatalf("LoadProject() error = %v, want stale cache served", err)
	}
	if project.ID != "proj-cached" {
		t.Errorf("project = %+v, want cached copy", project)
	}
}

func TestLoadProjectFailsWithoutAnyCache(t *testing.T) {
	store := newTestStore(t)
	loader := newTestLoader(t, store, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := loader.LoadProject(context.Background()); err == nil {
		t.Fatal("expected error with no cache and a failing backend")
	}
}

// =============================================================================
// VISITOR TESTS
// =============================================================================

func TestLoadVisitorInitsWhenNoToken(t *testing.T) {
	store := newTestStore(t)
	var initBody map[string]string
	loader := newTestLoader(t, store, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/identity/init":
			json.NewDecoder(r.Body).Decode(&initBody)
			json.NewEncoder(w).Encode(api.IdentityInitResponse{
				SessionToken: "fresh-token",
				Visitor:      &model.Visitor{ID: "v1"},
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	})

	visitor, err := loader.LoadVisitor(context.Background())
	if err != nil {
		t.Fatalf("LoadVisitor() error = %v", err)
	}
	if visitor.ID != "v1" {
		t.Errorf("visitor = %+v", visitor)
	}
	if initBody["apiKey"] != "pk_test" {
		t.Errorf("init apiKey = %q", initBody["apiKey"])
	}
	if initBody["saVid"] == "" {
		t.Error("init saVid empty, want minted visitor id")
	}
	if got := store.SessionToken("pk_test"); got != "fresh-token" {
		t.Errorf("stored token = %q", got)
	}
}

func TestLoadVisitorPrefersStoredToken(t *testing.T) {
	store := newTestStore(t)
	store.SetSessionToken("pk_test", "stored-token")

	var sawInit bool
	loader := newTestLoader(t, store, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/identity/me":
			if got := r.Header.Get("Authorization"); got != "Bearer stored-token" {
				t.Errorf("Authorization = %q", got)
			}
			json.NewEncoder(w).Encode(model.Visitor{ID: "v1"})
		case "/identity/init":
			sawInit = true
		}
	})

	if _, err := loader.LoadVisitor(context.Background()); err != nil {
		t.Fatalf("LoadVisitor() error = %v", err)
	}
	if sawInit {
		t.Error("identity re-initialized despite a valid token")
	}
}

func TestLoadVisitorReinitsOnRejectedToken(t *testing.T) {
	store := newTestStore(t)
	store.SetSessionToken("pk_test", "stale-token")

	loader := newTestLoader(t, store, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/identity/me":
			w.WriteHeader(http.StatusUnauthorized)
		case "/identity/init":
			json.NewEncoder(w).Encode(api.IdentityInitResponse{
				SessionToken: "new-token",
				Visitor:      &model.Visitor{ID: "v2"},
			})
		}
	})

	visitor, err := loader.LoadVisitor(context.Background())
	if err != nil {
		t.Fatalf("LoadVisitor() error = %v", err)
	}
	if visitor.ID != "v2" {
		t.Errorf("visitor = %+v", visitor)
	}
	if got := store.SessionToken("pk_test"); got != "new-token" {
		t.Errorf("stored token = %q, want replacement", got)
	}
}

// =============================================================================
// BOOTSTRAP TESTS
// =============================================================================

func TestLoadBootSequence(t *testing.T) {
	store := newTestStore(t)
	loader := newTestLoader(t, store, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projects/current":
			json.NewEncoder(w).Encode(model.Project{ID: "proj-1"})
		case "/identity/init":
			json.NewEncoder(w).Encode(api.IdentityInitResponse{
				SessionToken: "tok",
				Visitor:      &model.Visitor{ID: "v1"},
			})
		}
	})

	boot, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if boot.Project.ID != "proj-1" || boot.Visitor.ID != "v1" {
		t.Errorf("boot = %+v", boot)
	}
}
