// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the widget client.
//
// This package defines the core domain types used throughout the
// application for representing conversations, messages, live-update
// events, and tenant configuration.
//
// # Key Types
//
//   - Conversation: a chat session with messages, status, and handoff state
//   - Message: a single message with role, content parts, and feedback
//   - LiveEvent: an asynchronous push event from the live-update channel
//   - Project: tenant configuration fetched from the API
//   - Visitor: the authenticated visitor identity
//
// # Usage
//
// Create an optimistic user message before the network call resolves:
//
//	msg := model.NewUserMessage("Hello!")
//	conv.Messages = append(conv.Messages, msg)
package model
