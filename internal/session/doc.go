// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session persists the widget's durable per-API-key state: the
// visitor id, the session token, the cached project configuration and
// the last active conversation id.
//
// The store is a small key-value table in a local SQLite database, the
// durable-storage analog of a browser's localStorage. Keys are
// namespaced by API key so several embedded projects can share one
// database without stepping on each other.
package session
