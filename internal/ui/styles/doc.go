// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the widget TUI.
//
// Colors adapt to the terminal background; the tenant's brand colors
// from the project configuration override the accent and user-bubble
// colors at runtime.
package styles
