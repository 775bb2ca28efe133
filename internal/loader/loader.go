// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/mudler/xlog"

	"github.com/siteassist/siteassist-widgets/internal/api"
	"github.com/siteassist/siteassist-widgets/internal/model"
	"github.com/siteassist/siteassist-widgets/internal/session"
)

// ProjectCacheMaxAge is how long a cached project configuration is
// trusted without a refetch.
const ProjectCacheMaxAge = 24 * time.Hour

// Loader resolves project and visitor state for one API key.
type Loader struct {
	client *api.Client
	store  *session.Store
	apiKey string

	// externalID optionally links the visitor to the host site's own
	// user id.
	externalID string
}

// New creates a loader bound to one API key.
func New(client *api.Client, store *session.Store, apiKey, externalID string) *Loader {
	return &Loader{
		client:     client,
		store:      store,
		apiKey:     apiKey,
		externalID: externalID,
	}
}

// =============================================================================
// PROJECT
// =============================================================================

// LoadProject returns the tenant configuration, preferring a cache
// younger than ProjectCacheMaxAge. On a stale or missing cache it
// fetches; if the fetch fails but any cache exists, the stale copy is
// served rather than failing the boot.
func (l *Loader) LoadProject(ctx context.Context) (*model.Project, error) {
	cached, storedAt, cacheErr := l.store.CachedProject(l.apiKey)
	if cacheErr == nil && time.Since(storedAt) < ProjectCacheMaxAge {
		return cached, nil
	}

	project, err := l.client.GetProject(ctx, l.apiKey)
	if err != nil {
		if cacheErr == nil {
			xlog.Debug("serving stale project cache", "apiKey", l.apiKey, "age", time.Since(storedAt), "error", err)
			return cached, nil
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if err := l.store.CacheProject(l.apiKey, project); err != nil {
		xlog.Debug("project cache write failed", "error", err)
	}
	return project, nil
}

// RefreshProject refetches the tenant configuration unconditionally
// and replaces the cache. Used for background refreshes after a cached
// boot.
func (l *Loader) RefreshProject(ctx context.Context) (*model.Project, error) {
	project, err := l.client.GetProject(ctx, l.apiKey)
	if err != nil {
		return nil, err
	}
	if err := l.store.CacheProject(l.apiKey, project); err != nil {
		xlog.Debug("project cache write failed", "error", err)
	}
	return project, nil
}

// =============================================================================
// VISITOR
// =============================================================================

// LoadVisitor resolves the visitor identity. A stored session token is
// validated against the identity endpoint; a missing or rejected token
// falls back to a fresh identity init, whose token is stored for next
// time.
func (l *Loader) LoadVisitor(ctx context.Context) (*model.Visitor, error) {
	if l.store.SessionToken(l.apiKey) != "" {
		visitor, err := l.client.GetVisitor(ctx)
		if err == nil {
			return visitor, nil
		}
		if !api.IsUnauthorized(err) {
			return nil, fmt.Errorf("failed to load visitor: %w", err)
		}
		xlog.Debug("stored session token rejected, re-initializing", "apiKey", l.apiKey)
		if err := l.store.ClearSessionToken(l.apiKey); err != nil {
			xlog.Debug("token clear failed", "error", err)
		}
	}

	return l.initVisitor(ctx)
}

func (l *Loader) initVisitor(ctx context.Context) (*model.Visitor, error) {
	vid, err := l.store.VisitorID(l.apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve visitor id: %w", err)
	}

	resp, err := l.client.InitIdentity(ctx, l.apiKey, vid, l.externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to init identity: %w", err)
	}

	if resp.SessionToken != "" {
		if err := l.store.SetSessionToken(l.apiKey, resp.SessionToken); err != nil {
			xlog.Debug("token store failed", "error", err)
		}
	}
	return resp.Visitor, nil
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

// Bootstrap is everything the first screen needs.
type Bootstrap struct {
	Project *model.Project
	Visitor *model.Visitor
}

// Load runs the full boot sequence: project first (its config drives
// theming), then visitor identity.
func (l *Loader) Load(ctx context.Context) (*Bootstrap, error) {
	project, err := l.LoadProject(ctx)
	if err != nil {
		return nil, err
	}

	visitor, err := l.LoadVisitor(ctx)
	if err != nil {
		return nil, err
	}

	return &Bootstrap{Project: project, Visitor: visitor}, nil
}
