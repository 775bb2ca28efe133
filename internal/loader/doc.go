// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package loader bootstraps the widget: it resolves the tenant's
// project configuration and the visitor identity before any screen
// renders.
//
// Project configuration is cached durably for a day. A fresh-enough
// cache is served immediately; a stale cache is still served when the
// network fetch fails, so an embedded widget keeps working through
// backend blips. Visitor identity prefers the stored session token and
// falls back to a full identity init when the token is missing or
// rejected.
package loader
