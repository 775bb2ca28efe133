// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/siteassist/siteassist-widgets/internal/api"
	"github.com/siteassist/siteassist-widgets/internal/model"
	"github.com/siteassist/siteassist-widgets/internal/util"
)

const historyPageSize = 20

// =============================================================================
// HISTORY SCREEN
// =============================================================================

// chatsModel lists the visitor's past conversations, newest activity
// first, with offset pagination.
type chatsModel struct {
	shared *Shared

	items   []*model.Conversation
	total   int
	offset  int
	cursor  int
	loading bool

	// filter is "", "open" or "closed".
	filter model.ConversationStatus

	width  int
	height int
}

func newChats(shared *Shared) *chatsModel {
	return &chatsModel{shared: shared, loading: true}
}

func (m *chatsModel) Init() tea.Cmd {
	return m.reload()
}

// reload fetches the first page under the current filter.
func (m *chatsModel) reload() tea.Cmd {
	m.loading = true
	return ListConversationsCmd(m.shared.Client, api.ListOptions{
		Status: m.filter,
		Limit:  historyPageSize,
	})
}

func (m *chatsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *chatsModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(m.items) {
				return NavigateCmd(Route{Kind: RouteChat, ID: m.items[m.cursor].ID})
			}
		case "right", "pgdown":
			return m.nextPage()
		case "f":
			return m.cycleFilter()
		case "n":
			return NavigateCmd(Route{Kind: RouteHome})
		case "esc":
			return NavigateCmd(Route{Kind: RouteHome})
		}

	case ConversationsPageMsg:
		m.loading = false
		if msg.Err != nil {
			m.shared.Toasts.AddError("Could not load conversations")
			return nil
		}
		m.total = msg.Page.Total
		m.offset = msg.Page.Offset
		if msg.Page.Offset == 0 {
			m.items = msg.Page.Data
			m.cursor = 0
		} else {
			m.items = append(m.items, msg.Page.Data...)
		}
	}
	return nil
}

func (m *chatsModel) nextPage() tea.Cmd {
	if m.loading || len(m.items) >= m.total {
		return nil
	}
	m.loading = true
	return ListConversationsCmd(m.shared.Client, api.ListOptions{
		Status: m.filter,
		Limit:  historyPageSize,
		Offset: len(m.items),
	})
}

// cycleFilter steps all -> open -> closed -> all.
func (m *chatsModel) cycleFilter() tea.Cmd {
	switch m.filter {
	case "":
		m.filter = model.ConversationOpen
	case model.ConversationOpen:
		m.filter = model.ConversationClosed
	default:
		m.filter = ""
	}
	m.items = nil
	m.cursor = 0
	return m.reload()
}

func (m *chatsModel) View() string {
	t := m.shared.Theme

	var b strings.Builder
	title := "Conversations"
	if m.filter != "" {
		title += " · " + string(m.filter)
	}
	b.WriteString(t.Header.Render(title))
	b.WriteString("\n\n")

	switch {
	case m.loading && len(m.items) == 0:
		b.WriteString(t.MutedText.Render("loading..."))
	case len(m.items) == 0:
		b.WriteString(t.MutedText.Render("No conversations yet. Press n to start one."))
	default:
		for i, conv := range m.items {
			b.WriteString(m.renderItem(i, conv))
			b.WriteString("\n")
		}
		if len(m.items) < m.total {
			b.WriteString(t.MutedText.Render(fmt.Sprintf("\n%d of %d · pgdown for more", len(m.items), m.total)))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(t.HelpText.Render("enter open · f filter · n new · esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m *chatsModel) renderItem(i int, conv *model.Conversation) string {
	t := m.shared.Theme

	badge := t.OpenBadge.Render("open")
	if conv.IsClosed() {
		badge = t.ClosedBadge.Render("closed")
	}

	previewWidth := m.width - 30
	if previewWidth < 20 {
		previewWidth = 20
	}
	preview := util.Truncate(util.OneLine(conv.Preview(200)), previewWidth)
	if preview == "" {
		preview = "(no messages)"
	}

	meta := t.ListMeta.Render(util.RelativeTime(conv.LastInteractionAt, time.Now()))
	line := fmt.Sprintf("%s  %s  %s", badge, preview, meta)

	if i == m.cursor {
		return t.ListItemSelected.Render(line)
	}
	return t.ListItem.Render(line)
}
