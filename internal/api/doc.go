// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the SiteAssist chat API.
//
// The client covers the REST surface used by the widget (conversations,
// messages, feedback, identity, projects, QnAs) plus the v2 streaming
// send endpoint. Authentication is a bearer session token supplied by a
// TokenSource; requests without a token are sent unauthenticated and the
// server answers 401, surfaced as ErrUnauthorized.
//
// # Error Handling
//
// All failures are *ClientError values categorized by ErrorType.
// Sentinel errors (ErrNotFound, ErrUnauthorized, ErrTimeout) support
// errors.Is checks:
//
//	conv, err := client.GetConversation(ctx, id)
//	if errors.Is(err, api.ErrNotFound) {
//	    // show the "conversation not found" recovery screen
//	}
package api
