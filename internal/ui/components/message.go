// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/siteassist/siteassist-widgets/internal/model"
	"github.com/siteassist/siteassist-widgets/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// MessageRenderer renders conversation messages as terminal bubbles.
// Assistant and agent replies render as markdown.
type MessageRenderer struct {
	theme    *styles.Theme
	width    int
	markdown *glamour.TermRenderer
}

// NewMessageRenderer creates a renderer for the given theme and width.
func NewMessageRenderer(theme *styles.Theme, width int) *MessageRenderer {
	r := &MessageRenderer{theme: theme, width: width}

	wrap := width - 12
	if wrap < 20 {
		wrap = 20
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		// Fallback to plain text if renderer initialization fails
		r.markdown = md
	}
	return r
}

// SetWidth updates the render width.
func (r *MessageRenderer) SetWidth(width int) {
	if width == r.width {
		return
	}
	*r = *NewMessageRenderer(r.theme, width)
}

// Render renders one message bubble.
func (r *MessageRenderer) Render(msg *model.Message) string {
	if msg == nil {
		return ""
	}

	switch msg.Role {
	case model.RoleUser:
		return r.renderUser(msg)
	case model.RoleHumanAgent:
		return r.renderAgent(msg)
	default:
		return r.renderAssistant(msg)
	}
}

// RenderAll renders a display list separated by blank lines.
func (r *MessageRenderer) RenderAll(msgs []*model.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if rendered := r.Render(msg); rendered != "" {
			parts = append(parts, rendered)
		}
	}
	return strings.Join(parts, "\n")
}

func (r *MessageRenderer) renderUser(msg *model.Message) string {
	body := r.theme.UserMsg.Render(msg.Text())
	bubble := lipgloss.PlaceHorizontal(r.width, lipgloss.Right, body)

	if msg.Error != "" {
		fail := r.theme.FailedMsg.Render("not delivered: " + msg.Error)
		bubble += "\n" + lipgloss.PlaceHorizontal(r.width, lipgloss.Right, fail)
	}
	return bubble
}

func (r *MessageRenderer) renderAssistant(msg *model.Message) string {
	text := msg.Text()
	if msg.IsStreaming() && text == "" {
		text = "…"
	}

	var parts []string
	parts = append(parts, r.theme.AssistantMsg.Render(r.renderMarkdown(text)))

	if msg.Error != "" {
		parts = append(parts, r.theme.ErrorText.Render(msg.Error))
	}
	if fb := feedbackGlyph(msg.Feedback); fb != "" && !msg.HideActions {
		parts = append(parts, r.theme.Feedback.Render(fb))
	}
	return strings.Join(parts, "\n")
}

func (r *MessageRenderer) renderAgent(msg *model.Message) string {
	name := "Support"
	if msg.HumanAgent != nil && msg.HumanAgent.Name != "" {
		name = msg.HumanAgent.Name
	}

	header := r.theme.AgentName.Render(name)
	body := r.theme.AgentMsg.Render(r.renderMarkdown(msg.Text()))
	return header + "\n" + body
}

// renderMarkdown renders markdown, falling back to the raw text.
func (r *MessageRenderer) renderMarkdown(content string) string {
	if r.markdown == nil || content == "" {
		return content
	}
	out, err := r.markdown.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

func feedbackGlyph(fb model.Feedback) string {
	switch fb {
	case model.FeedbackLike:
		return "▲ helpful"
	case model.FeedbackDislike:
		return "▼ not helpful"
	default:
		return ""
	}
}
