// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the SiteAssist chat API.
package api

import "github.com/siteassist/siteassist-widgets/internal/model"

// =============================================================================
// LIST PARAMETERS
// =============================================================================

// ListOptions control pagination and filtering of list endpoints.
type ListOptions struct {
	// Status filters conversations ("open" or "closed"). Empty = all.
	Status model.ConversationStatus

	// Limit per page. Zero uses the server default (20).
	Limit int

	// Offset of the first item.
	Offset int
}

// =============================================================================
// RESPONSE ENVELOPES
// =============================================================================

// ConversationsPage is one page of GET /conversations.
type ConversationsPage struct {
	Data   []*model.Conversation `json:"data"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// HasMore reports whether another page exists after this one.
func (p *ConversationsPage) HasMore() bool {
	return p.Total > p.Offset+p.Limit
}

// NextOffset returns the offset of the next page.
func (p *ConversationsPage) NextOffset() int {
	return p.Offset + p.Limit
}

// QnAsPage is one page of GET /projects/{projectId}/qnas.
type QnAsPage struct {
	Data   []*model.QnA `json:"data"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// HasMore reports whether another page exists after this one.
func (p *QnAsPage) HasMore() bool {
	return p.Total > p.Offset+p.Limit
}

// NextOffset returns the offset of the next page.
func (p *QnAsPage) NextOffset() int {
	return p.Offset + p.Limit
}

// IdentityInitResponse is the body of POST /identity/init.
type IdentityInitResponse struct {
	SessionToken string         `json:"sessionToken"`
	Visitor      *model.Visitor `json:"visitor"`
}

// =============================================================================
// REQUEST BODIES
// =============================================================================

// SendMessageRequest is the body of POST /conversations/{id}/messages.
type SendMessageRequest struct {
	Content string         `json:"content"`
	Context *SendContext   `json:"context,omitempty"`
	Stream  bool           `json:"stream,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// SendContext carries the hosting-page context for a send.
type SendContext struct {
	PageURL string `json:"pageUrl,omitempty"`
}

// FeedbackRequest is the body of POST /messages/{id}/feedback.
// A null feedback value clears a previous rating.
type FeedbackRequest struct {
	Feedback *model.Feedback `json:"feedback"`
}

// identityInitRequest is the body of POST /identity/init.
type identityInitRequest struct {
	APIKey     string `json:"apiKey"`
	SaVID      string `json:"saVid"`
	ExternalID string `json:"externalId,omitempty"`
}
