// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package live maintains the WebSocket channel that delivers real-time
// conversation updates.
//
// A Channel owns one connection at a time and keeps it alive with an
// application-level heartbeat: it writes the text frame "ping" on an
// interval and treats "pong" (or any other inbound traffic) as proof of
// life. When the connection drops or goes silent past the timeout, the
// Channel reconnects with exponential backoff and keeps retrying until
// stopped.
//
// Inbound frames that parse as update events are delivered on Events();
// everything else is ignored, so new server-side event types never break
// a deployed client.
package live
