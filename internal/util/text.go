// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// Truncate shortens s to at most maxWidth terminal columns, appending
// an ellipsis when anything was cut. Double-width (CJK) characters
// count as two columns, so truncation never splits a glyph.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 1 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// OneLine collapses newlines to spaces for single-line previews.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RelativeTime formats t against now, "just now" through "3d ago";
// anything older falls back to the date.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// PadRight pads s with spaces to exactly width columns, truncating
// when it is too long.
func PadRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = Truncate(s, width)
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}
