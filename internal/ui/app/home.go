// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// HOME SCREEN
// =============================================================================

// homeModel is the landing screen: the project greeting plus an input
// that opens a brand-new conversation with its first message.
type homeModel struct {
	shared    *Shared
	input     textinput.Model
	creating  bool
	submitted string
}

func newHome(shared *Shared) *homeModel {
	input := textinput.New()
	input.Placeholder = "Ask a question..."
	input.CharLimit = 4000
	input.Width = 60
	input.Focus()

	return &homeModel{
		shared: shared,
		input:  input,
	}
}

func (m *homeModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *homeModel) SetSize(width, height int) {
	m.input.Width = width - 6
}

func (m *homeModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return m.submit()
		case "ctrl+l":
			return NavigateCmd(Route{Kind: RouteChats})
		case "ctrl+o":
			return NavigateCmd(Route{Kind: RouteQnAs})
		}

	case ConversationCreatedMsg:
		m.creating = false
		if msg.Err != nil && m.submitted != "" {
			// Give the visitor their text back to try again.
			m.input.SetValue(m.submitted)
			m.input.CursorEnd()
		}
		m.submitted = ""
		return nil

	case FocusMsg:
		return m.input.Focus()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *homeModel) submit() tea.Cmd {
	content := strings.TrimSpace(m.input.Value())
	if content == "" || m.creating {
		return nil
	}
	if m.shared.BlockMutation() {
		return nil
	}

	m.creating = true
	m.submitted = content
	m.input.SetValue("")
	return CreateConversationCmd(m.shared.Client, content)
}

func (m *homeModel) View() string {
	t := m.shared.Theme

	var b strings.Builder
	name := "SiteAssist"
	if m.shared.Project != nil && m.shared.Project.Name != "" {
		name = m.shared.Project.Name
	}
	b.WriteString(t.Header.Render(name))
	b.WriteString("\n\n")

	if welcome := m.shared.WelcomeMessage(); welcome != nil {
		b.WriteString(m.shared.Renderer.Render(welcome))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	help := "enter send · ctrl+l history · ctrl+o help center · ctrl+c quit"
	if m.creating {
		help = "opening conversation..."
	}
	b.WriteString(t.HelpText.Render(help))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
