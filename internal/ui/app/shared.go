// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"net/url"
	"sync"

	"github.com/siteassist/siteassist-widgets/internal/api"
	"github.com/siteassist/siteassist-widgets/internal/config"
	"github.com/siteassist/siteassist-widgets/internal/live"
	"github.com/siteassist/siteassist-widgets/internal/loader"
	"github.com/siteassist/siteassist-widgets/internal/model"
	"github.com/siteassist/siteassist-widgets/internal/session"
	"github.com/siteassist/siteassist-widgets/internal/ui/components"
	"github.com/siteassist/siteassist-widgets/internal/ui/styles"
)

// =============================================================================
// SHARED STATE
// =============================================================================

// Shared is the cross-screen state owned by the root model. Screens
// read it; only the root mutates it (except the toast manager, which
// locks internally).
type Shared struct {
	Config *config.Config
	Client *api.Client
	Loader *loader.Loader
	Store  *session.Store

	Theme    *styles.Theme
	Toasts   *components.ToastManager
	Renderer *components.MessageRenderer

	Project *model.Project
	Visitor *model.Visitor

	// PageURL is the hosting page reported over the bridge, sent along
	// with every message for answer context.
	PageURL string

	// Preview marks dashboard preview mode: project config comes from
	// the host and every mutating call is refused.
	Preview bool

	Width  int
	Height int

	mu sync.Mutex
}

// WelcomeMessage builds the synthetic greeting from the project
// configuration, or nil when none is configured.
func (s *Shared) WelcomeMessage() *model.Message {
	if s.Project == nil {
		return nil
	}
	return s.Project.ChatWidgetConfig.WelcomeUIMessage()
}

// SetPageURL records the latest hosting-page URL.
func (s *Shared) SetPageURL(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PageURL = u
}

// CurrentPageURL returns the page URL to attach to sends, falling back
// to the configured one.
func (s *Shared) CurrentPageURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PageURL != "" {
		return s.PageURL
	}
	return s.Config.PageURL
}

// BlockMutation reports whether mutating calls are refused (preview
// mode), raising a toast when they are.
func (s *Shared) BlockMutation() bool {
	if !s.Preview {
		return false
	}
	s.Toasts.AddStatus("Preview mode: sending is disabled")
	return true
}

// LiveConfig assembles the websocket channel configuration for one
// conversation. The endpoint is per-conversation and authenticated by
// API key in the query string.
func (s *Shared) LiveConfig(conversationID string) live.Config {
	return live.Config{
		URL:    s.Config.WSURL + "/v2/conversations/" + url.PathEscape(conversationID) + "/ws",
		APIKey: s.Config.APIKey,
	}
}
