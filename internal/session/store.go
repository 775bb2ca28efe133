// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/siteassist/siteassist-widgets/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound = errors.New("key not found")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
) WITHOUT ROWID;
`

// =============================================================================
// STORE
// =============================================================================

// Store is the durable key-value state behind one widget installation.
//
// Safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// DefaultPath returns the store location under the user's home
// directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".siteassist", "widget.db"), nil
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the raw value for key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store read failed: %w", err)
	}
	return value, nil
}

// Set writes key to value, replacing any previous value.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store write failed: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("store delete failed: %w", err)
	}
	return nil
}

// =============================================================================
// WIDGET KEYS
// =============================================================================

func projectKey(apiKey string) string      { return "sa_project_" + apiKey }
func sessionTokenKey(apiKey string) string { return "sa_session_token_" + apiKey }
func visitorIDKey(apiKey string) string    { return "sa_vid_" + apiKey }
func activeConvKey(apiKey string) string   { return "sa_active_conv_id_" + apiKey }

// SessionToken returns the stored bearer token, or "" when none exists.
func (s *Store) SessionToken(apiKey string) string {
	token, err := s.Get(sessionTokenKey(apiKey))
	if err != nil {
		return ""
	}
	return token
}

// SetSessionToken stores the bearer token for an API key.
func (s *Store) SetSessionToken(apiKey, token string) error {
	return s.Set(sessionTokenKey(apiKey), token)
}

// ClearSessionToken drops the stored token, forcing a re-init.
func (s *Store) ClearSessionToken(apiKey string) error {
	return s.Delete(sessionTokenKey(apiKey))
}

// VisitorID returns the durable per-browser visitor id for an API key,
// minting one on first use.
func (s *Store) VisitorID(apiKey string) (string, error) {
	if vid, err := s.Get(visitorIDKey(apiKey)); err == nil {
		return vid, nil
	}
	vid := uuid.NewString()
	if err := s.Set(visitorIDKey(apiKey), vid); err != nil {
		return "", err
	}
	return vid, nil
}

// ActiveConversationID returns the last active conversation id, or "".
func (s *Store) ActiveConversationID(apiKey string) string {
	id, err := s.Get(activeConvKey(apiKey))
	if err != nil {
		return ""
	}
	return id
}

// SetActiveConversationID records the conversation the visitor is in.
// Last writer wins; only one screen is active at a time.
func (s *Store) SetActiveConversationID(apiKey, conversationID string) error {
	return s.Set(activeConvKey(apiKey), conversationID)
}

// ClearActiveConversationID is called when leaving a conversation
// screen.
func (s *Store) ClearActiveConversationID(apiKey string) error {
	return s.Delete(activeConvKey(apiKey))
}

// TokenSource is a live view of the stored session token, suitable for
// the API client: token refreshes take effect on the next request.
type TokenSource struct {
	store  *Store
	apiKey string
}

// TokenSource returns the token view for an API key.
func (s *Store) TokenSource(apiKey string) *TokenSource {
	return &TokenSource{store: s, apiKey: apiKey}
}

// Token returns the current stored token, or "".
func (t *TokenSource) Token() string {
	return t.store.SessionToken(t.apiKey)
}

// =============================================================================
// PROJECT CACHE
// =============================================================================

// cachedProject wraps a project with the time it was stored, for the
// one-day staleness rule.
type cachedProject struct {
	Project  *model.Project `json:"project"`
	StoredAt time.Time      `json:"storedAt"`
}

// CachedProject returns the cached project configuration and its age.
// ErrNotFound when no cache exists or it cannot be decoded.
func (s *Store) CachedProject(apiKey string) (*model.Project, time.Time, error) {
	raw, err := s.Get(projectKey(apiKey))
	if err != nil {
		return nil, time.Time{}, err
	}

	var cached cachedProject
	if err := json.Unmarshal([]byte(raw), &cached); err != nil || cached.Project == nil {
		// Unreadable caches behave like missing ones.
		return nil, time.Time{}, ErrNotFound
	}
	return cached.Project, cached.StoredAt, nil
}

// CacheProject stores the project configuration with the current time.
func (s *Store) CacheProject(apiKey string, project *model.Project) error {
	raw, err := json.Marshal(cachedProject{Project: project, StoredAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to encode project cache: %w", err)
	}
	return s.Set(projectKey(apiKey), string(raw))
}
