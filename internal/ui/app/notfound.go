// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// NOT-FOUND SCREEN
// =============================================================================

// notFoundModel is the dead end for stale conversation ids and unknown
// routes. Its only way out is starting over.
type notFoundModel struct {
	shared *Shared
}

func newNotFound(shared *Shared) *notFoundModel {
	return &notFoundModel{shared: shared}
}

func (m *notFoundModel) Init() tea.Cmd { return nil }

func (m *notFoundModel) SetSize(width, height int) {}

func (m *notFoundModel) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "n", "enter", "esc":
			_ = m.shared.Store.ClearActiveConversationID(m.shared.Config.APIKey)
			return NavigateCmd(Route{Kind: RouteHome})
		case "ctrl+l":
			return NavigateCmd(Route{Kind: RouteChats})
		}
	}
	return nil
}

func (m *notFoundModel) View() string {
	t := m.shared.Theme

	var b strings.Builder
	b.WriteString(t.Header.Render("Not found"))
	b.WriteString("\n\n")
	b.WriteString("This conversation no longer exists.\n\n")
	b.WriteString(t.HelpText.Render("n start a new conversation · ctrl+l history"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
