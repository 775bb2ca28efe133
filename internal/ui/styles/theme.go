// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/siteassist/siteassist-widgets/internal/model"
)

// Theme holds all the styled components for the widget.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Mode is "light", "dark" or "auto" (as resolved from config and
	// host signals).
	Mode string

	// Brand colors resolved from the project configuration.
	Brand      lipgloss.TerminalColor
	UserBubble lipgloss.TerminalColor

	// ==========================================================================
	// LAYOUT STYLES
	// ==========================================================================

	App       lipgloss.Style
	Header    lipgloss.Style
	Footer    lipgloss.Style
	HelpText  lipgloss.Style
	ErrorText lipgloss.Style
	MutedText lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserMsg      lipgloss.Style
	AssistantMsg lipgloss.Style
	AgentMsg     lipgloss.Style
	AgentName    lipgloss.Style
	RoleLabel    lipgloss.Style
	Timestamp    lipgloss.Style
	FailedMsg    lipgloss.Style
	Feedback     lipgloss.Style

	// ==========================================================================
	// LIST STYLES
	// ==========================================================================

	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style
	ListMeta         lipgloss.Style
	ClosedBadge      lipgloss.Style
	OpenBadge        lipgloss.Style

	// ==========================================================================
	// STATUS STYLES
	// ==========================================================================

	Spinner       lipgloss.Style
	LiveConnected lipgloss.Style
	LiveDegraded  lipgloss.Style
}

// NewTheme builds a theme for the given mode ("light", "dark", "auto").
// The widget config's brand colors, when set, override the defaults.
func NewTheme(mode string, cfg *model.WidgetConfig) *Theme {
	isDark := termenv.HasDarkBackground()
	switch mode {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
		Mode:         mode,
		Brand:        Indigo,
		UserBubble:   Indigo,
	}

	if cfg != nil {
		if brand := pickColor(isDark, cfg.BrandColor, cfg.BrandColorDark); brand != "" {
			t.Brand = lipgloss.Color(brand)
		}
		if bubble := pickColor(isDark, cfg.UserMessageBubbleColor, cfg.UserMessageBubbleColorDark); bubble != "" {
			t.UserBubble = lipgloss.Color(bubble)
		}
	}

	t.initStyles()
	return t
}

// pickColor chooses the light or dark variant, falling back to the
// light value when no dark one is configured.
func pickColor(isDark bool, light, dark string) string {
	if isDark && dark != "" {
		return dark
	}
	return light
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle()

	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(t.Brand).
		Padding(0, 2)

	t.Footer = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.HelpText = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.MutedText = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Messages
	t.UserMsg = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(t.UserBubble).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.UserBubble).
		Padding(0, 1).
		MarginLeft(8)

	t.AssistantMsg = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1).
		MarginRight(8)

	t.AgentMsg = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 1).
		MarginRight(8)

	t.AgentName = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.RoleLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.FailedMsg = lipgloss.NewStyle().
		Foreground(Rose)

	t.Feedback = lipgloss.NewStyle().
		Foreground(Amber)

	// Lists
	t.ListItem = lipgloss.NewStyle().
		Padding(0, 1)

	t.ListItemSelected = lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true).
		Foreground(TextInverse).
		Background(t.Brand)

	t.ListMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ClosedBadge = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.OpenBadge = lipgloss.NewStyle().
		Foreground(Emerald)

	// Status
	t.Spinner = lipgloss.NewStyle().
		Foreground(t.Brand)

	t.LiveConnected = lipgloss.NewStyle().
		Foreground(Emerald)

	t.LiveDegraded = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
}
