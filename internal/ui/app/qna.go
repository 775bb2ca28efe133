// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/siteassist/siteassist-widgets/internal/api"
	"github.com/siteassist/siteassist-widgets/internal/model"
)

const qnaPageSize = 20

// =============================================================================
// HELP CENTER LIST
// =============================================================================

// qnasModel lists the project's published help articles.
type qnasModel struct {
	shared *Shared

	items   []*model.QnA
	total   int
	cursor  int
	loading bool

	width  int
	height int
}

func newQnAs(shared *Shared) *qnasModel {
	return &qnasModel{shared: shared, loading: true}
}

func (m *qnasModel) Init() tea.Cmd {
	return ListQnAsCmd(m.shared.Client, m.shared.Project.ID, api.ListOptions{Limit: qnaPageSize})
}

func (m *qnasModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *qnasModel) Update(msg tea.Msg) tea.Cmd {
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
				return NavigateCmd(Route{Kind: RouteQnA, ID: m.items[m.cursor].ID})
			}
		case "right", "pgdown":
			return m.nextPage()
		case "esc":
			return NavigateCmd(Route{Kind: RouteHome})
		}

	case QnAsPageMsg:
		m.loading = false
		if msg.Err != nil {
			m.shared.Toasts.AddError("Could not load help articles")
			return nil
		}
		m.total = msg.Page.Total
		if msg.Page.Offset == 0 {
			m.items = msg.Page.Data
			m.cursor = 0
		} else {
			m.items = append(m.items, msg.Page.Data...)
		}
	}
	return nil
}

func (m *qnasModel) nextPage() tea.Cmd {
	if m.loading || len(m.items) >= m.total {
		return nil
	}
	m.loading = true
	return ListQnAsCmd(m.shared.Client, m.shared.Project.ID, api.ListOptions{
		Limit:  qnaPageSize,
		Offset: len(m.items),
	})
}

func (m *qnasModel) View() string {
	t := m.shared.Theme

	var b strings.Builder
	b.WriteString(t.Header.Render("Help Center"))
	b.WriteString("\n\n")

	switch {
	case m.loading && len(m.items) == 0:
		b.WriteString(t.MutedText.Render("loading..."))
	case len(m.items) == 0:
		b.WriteString(t.MutedText.Render("No articles published yet."))
	default:
		for i, qna := range m.items {
			line := qna.Title
			if i == m.cursor {
				b.WriteString(t.ListItemSelected.Render(line))
			} else {
				b.WriteString(t.ListItem.Render(line))
			}
			b.WriteString("\n")
		}
		if len(m.items) < m.total {
			b.WriteString(t.MutedText.Render(fmt.Sprintf("\n%d of %d · pgdown for more", len(m.items), m.total)))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(t.HelpText.Render("enter read · esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// =============================================================================
// HELP CENTER ARTICLE
// =============================================================================

// qnaModel shows one article, answer rendered as markdown.
type qnaModel struct {
	shared *Shared

	qnaID    string
	qna      *model.QnA
	viewport viewport.Model
	ready    bool
	loading  bool

	width  int
	height int
}

func newQnA(shared *Shared, qnaID string) *qnaModel {
	return &qnaModel{shared: shared, qnaID: qnaID, loading: true}
}

func (m *qnaModel) Init() tea.Cmd {
	return LoadQnACmd(m.shared.Client, m.shared.Project.ID, m.qnaID)
}

func (m *qnaModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	if !m.ready {
		m.viewport = viewport.New(width, height-4)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height - 4
	}
	m.syncViewport()
}

func (m *qnaModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return NavigateCmd(Route{Kind: RouteQnAs})
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd

	case QnALoadedMsg:
		m.loading = false
		if msg.Err != nil {
			if api.IsNotFound(msg.Err) {
				return NavigateCmd(Route{Kind: RouteNotFound})
			}
			m.shared.Toasts.AddError("Could not load the article")
			return NavigateCmd(Route{Kind: RouteQnAs})
		}
		m.qna = msg.QnA
		m.syncViewport()
	}
	return nil
}

func (m *qnaModel) syncViewport() {
	if !m.ready || m.qna == nil {
		return
	}
	m.viewport.SetContent(renderArticle(m.qna.Answer, m.viewport.Width))
}

// renderArticle renders markdown, falling back to the raw text when
// glamour cannot initialize.
func renderArticle(content string, width int) string {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

func (m *qnaModel) View() string {
	t := m.shared.Theme

	title := "Article"
	if m.qna != nil {
		title = m.qna.Title
	}

	body := m.viewport.View()
	if m.loading {
		body = t.MutedText.Render("loading...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		t.Header.Render(title),
		body,
		t.HelpText.Render("↑/↓ scroll · esc back"),
	)
}
