// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/siteassist/siteassist-widgets/internal/config"
	"github.com/siteassist/siteassist-widgets/internal/session"
	"github.com/siteassist/siteassist-widgets/internal/ui/components"
	"github.com/siteassist/siteassist-widgets/internal/ui/styles"
)

var errTest = errors.New("boom")

func newTestShared(t *testing.T) *Shared {
	t.Helper()

	store, err := session.Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("session.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	theme := styles.NewTheme("light", nil)
	return &Shared{
		Config:   &config.Config{APIKey: "pk_test", WSURL: "wss://chat-api.siteassist.io"},
		Store:    store,
		Theme:    theme,
		Toasts:   components.NewToastManager(),
		Renderer: components.NewMessageRenderer(theme, 80),
	}
}

func TestConfirmedCloseRedirectsHome(t *testing.T) {
	shared := newTestShared(t)
	m := newChat(shared, "conv-1", nil, false)

	cmd := m.Update(ClosedMsg{})
	if cmd == nil {
		t.Fatal("confirmed close produced no command")
	}

	nav, ok := cmd().(NavigateMsg)
	if !ok {
		t.Fatalf("close command produced %T, want NavigateMsg", cmd())
	}
	if nav.Route.Kind != RouteHome {
		t.Errorf("close redirected to %v, want home", nav.Route.Kind)
	}
	if got := shared.Store.ActiveConversationID("pk_test"); got != "" {
		t.Errorf("active conversation id = %q, want cleared", got)
	}
}

func TestFailedCloseStaysOnScreen(t *testing.T) {
	shared := newTestShared(t)
	m := newChat(shared, "conv-1", nil, false)

	if cmd := m.Update(ClosedMsg{Err: errTest}); cmd != nil {
		t.Error("failed close must not navigate")
	}
	if got := shared.Store.ActiveConversationID("pk_test"); got != "conv-1" {
		t.Errorf("active conversation id = %q, want 'conv-1'", got)
	}
}
