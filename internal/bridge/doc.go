// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bridge implements the widget's host-page messaging channel.
//
// The widget runs embedded; the hosting page and the widget exchange
// newline-delimited JSON envelopes of the form
//
//	{"__SA": {"type": "...", "payload": ...}}
//
// over a byte pipe. Inbound envelopes carry host signals (theme
// changes, the current page URL, preview configuration, focus
// requests); outbound envelopes announce readiness and poll the host
// for its page URL. Anything that does not parse as an envelope is
// silently ignored: the pipe is shared territory and other traffic is
// none of our business.
package bridge
