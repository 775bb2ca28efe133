// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the widget client.
package model

import "encoding/json"

// =============================================================================
// LIVE-UPDATE EVENTS
// =============================================================================

// LiveEventType tags the kind of an inbound live-update frame.
type LiveEventType string

const (
	// LiveNewMessage carries a full message, typically a human-agent
	// interjection into an AI conversation.
	LiveNewMessage LiveEventType = "new_message"
	// LiveHumanAssigned signals that a human agent took the
	// conversation over. Carries no message; the client refetches the
	// snapshot to learn the new state.
	LiveHumanAssigned LiveEventType = "human_assigned"
)

// LiveEvent is a push event scoped to a conversation.
type LiveEvent struct {
	Type    LiveEventType `json:"type"`
	ChatID  string        `json:"chatId,omitempty"`
	Message *Message      `json:"message,omitempty"`
}

// ParseLiveEvent decodes an inbound live-update frame.
// Unknown event types decode without error; callers drop them.
func ParseLiveEvent(data []byte) (LiveEvent, error) {
	var ev LiveEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return LiveEvent{}, err
	}
	return ev, nil
}
