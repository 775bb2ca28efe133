// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the widget client.
//
// Settings come from three layers, lowest precedence first: built-in
// defaults, the TOML config file at ~/.siteassist/widget.toml, and
// environment variables (SA_API_KEY, SA_EXTERNAL_ID, SA_THEME,
// SA_API_URL, SA_WS_URL). Command-line flags are applied by the caller
// on top of the loaded config.
//
// A Watcher can follow the config file for theme changes at runtime.
package config
