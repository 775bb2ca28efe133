// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the widget client.
package model

import "time"

// =============================================================================
// PROJECT TYPE
// =============================================================================

// Project is the tenant configuration returned by GET /projects/current.
type Project struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	ChatWidgetConfig WidgetConfig `json:"chatWidgetConfig"`
}

// WidgetConfig drives the widget's appearance and the welcome message.
type WidgetConfig struct {
	WelcomeMessage             string `json:"welcomeMessage"`
	BrandColor                 string `json:"brandColor"`
	BrandColorDark             string `json:"brandColorDark,omitempty"`
	UserMessageBubbleColor     string `json:"userMessageBubbleColor"`
	UserMessageBubbleColorDark string `json:"userMessageBubbleColorDark,omitempty"`
	BaseFontSize               int    `json:"baseFontSize,omitempty"`
}

// WelcomeUIMessage builds the synthetic assistant greeting shown at the top
// of every conversation. It carries a fixed id so replays never duplicate
// it, and it accepts no feedback.
func (c WidgetConfig) WelcomeUIMessage() *Message {
	return &Message{
		Object:      "message",
		ID:          "welcome-message",
		Role:        RoleAssistant,
		Parts:       []Part{TextPart(c.WelcomeMessage)},
		Status:      StatusComplete,
		HideActions: true,
	}
}

// =============================================================================
// VISITOR TYPE
// =============================================================================

// Visitor is the identity bootstrapped via /identity/init.
type Visitor struct {
	ID         string `json:"id"`
	ExternalID string `json:"externalId,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
}

// =============================================================================
// QNA TYPES
// =============================================================================

// QnA is a published help article.
type QnA struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Answer    string    `json:"answer"`
	Author    *Agent    `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
