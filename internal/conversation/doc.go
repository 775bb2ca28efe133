// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation implements the client-side state machine for a
// single chat conversation.
//
// Three concurrent sources feed messages into one display list: the
// authoritative REST snapshot, the streaming send pipeline (optimistic
// user message plus incrementally appended assistant tokens), and push
// events from the live-update channel (human-agent interjections and
// handoff notices). The Reconciler merges them into one ordered,
// deduplicated sequence keyed by message id.
//
// The merge rule in one sentence: the display list is the streaming
// list, unless a human agent handles the conversation, in which case it
// is the snapshot's message list. Push events upsert by id, so replays
// and late snapshot refreshes never duplicate a message.
//
// The Reconciler is a plain single-goroutine state machine. It performs
// no I/O; callers run the network calls and feed the results back in.
package conversation
