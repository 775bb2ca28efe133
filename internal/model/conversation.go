// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the widget client.
package model

import "time"

// =============================================================================
// CONVERSATION STATUS
// =============================================================================

// ConversationStatus is the lifecycle state of a conversation on the server.
type ConversationStatus string

const (
	ConversationOpen   ConversationStatus = "open"
	ConversationClosed ConversationStatus = "closed"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a complete chat conversation as fetched from the API.
//
// The server conversation persists independently of the client; tearing
// down local state (navigating away) never mutates it.
type Conversation struct {
	Object string `json:"object"`

	// Identity
	ID string `json:"id"`

	// Lifecycle
	Status   ConversationStatus `json:"status"`
	ClosedAt *time.Time         `json:"closedAt,omitempty"`

	// Human handoff
	IsHumanHandled bool   `json:"isHumanHandled"`
	HumanAgent     *Agent `json:"humanAgent,omitempty"`

	// Messages, oldest first
	Messages []*Message `json:"messages"`

	// Timestamps
	CreatedAt         time.Time `json:"createdAt"`
	LastInteractionAt time.Time `json:"lastInteractionAt"`

	// PendingMessage is a locally-queued first message awaiting send.
	// Set by the home screen when a conversation is created before the
	// chat screen mounts; never returned by the server.
	PendingMessage *PendingMessage `json:"-"`
}

// PendingMessage is a user message queued before the first send.
type PendingMessage struct {
	ID      string
	Content string
}

// IsClosed returns true once the conversation reached its terminal state.
func (c *Conversation) IsClosed() bool {
	return c.Status == ConversationClosed
}

// MessageByID returns the message with the given id, or nil.
func (c *Conversation) MessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Preview returns a short preview for history listings.
func (c *Conversation) Preview(maxLen int) string {
	last := c.LastMessage()
	if last == nil {
		return "Empty conversation"
	}
	return last.Preview(maxLen)
}
