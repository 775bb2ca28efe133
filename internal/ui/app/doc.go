// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app assembles the widget's Bubble Tea program: a small
// router over the home, conversation, history and help-center screens.
//
// The root model owns cross-screen state (project, visitor, theme,
// toasts, host-bridge signals) and delegates everything else to the
// active screen. Screens are swapped on navigation messages, never
// stacked; the session store's active-conversation key is the only
// state that survives a restart.
package app
