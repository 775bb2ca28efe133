// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the widget:
// display-width-aware text truncation for list previews, and
// crash-safe file writing for the config file.
package util
