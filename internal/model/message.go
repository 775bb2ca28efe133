// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the widget client.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleHumanAgent Role = "human_agent"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleHumanAgent:
		return "Agent"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE STATUS AND FEEDBACK
// =============================================================================

// MessageStatus tracks the delivery state of a message.
type MessageStatus string

const (
	// StatusComplete means the message content is final.
	StatusComplete MessageStatus = "complete"
	// StatusInProgress means assistant tokens are still streaming in.
	StatusInProgress MessageStatus = "in_progress"
)

// Feedback is the visitor's rating of an assistant message.
// The empty string means no feedback has been given.
type Feedback string

const (
	FeedbackLike    Feedback = "like"
	FeedbackDislike Feedback = "dislike"
	FeedbackNone    Feedback = ""
)

// =============================================================================
// CONTENT PARTS
// =============================================================================

// PartType identifies the kind of a content part.
type PartType string

const (
	// PartText is plain text content. Other part kinds (tool calls,
	// actions) may be added by the API; unknown kinds are preserved
	// verbatim and skipped during text extraction.
	PartText PartType = "text"
)

// Part is one element of a message's ordered content sequence.
type Part struct {
	Type PartType `json:"type"`
	Text string   `json:"text,omitempty"`
}

// TextPart builds a plain-text content part.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// =============================================================================
// AGENT TYPE
// =============================================================================

// Agent identifies the human agent a conversation was handed off to.
type Agent struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
//
// Identity is immutable: once an id is assigned (client- or
// server-generated) it never changes. Messages are append-only except
// for feedback updates and content mutation of the last message while
// its status is StatusInProgress.
type Message struct {
	Object string `json:"object"`

	// Identity
	ID     string `json:"id"`
	ChatID string `json:"chatId,omitempty"`
	Role   Role   `json:"role"`

	// Content
	Parts  []Part        `json:"parts"`
	Status MessageStatus `json:"status,omitempty"`

	// Feedback
	Feedback   Feedback   `json:"feedback,omitempty"`
	FeedbackAt *time.Time `json:"feedbackAt,omitempty"`

	// Attribution
	HumanAgent *Agent `json:"humanAgent,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"createdAt"`

	// Error carries a send failure. Set locally when an optimistic
	// message could not be delivered; never cleared silently.
	Error string `json:"error,omitempty"`

	// Metadata captures the page context the message was sent from.
	Metadata *Metadata `json:"metadata,omitempty"`

	// HideActions suppresses feedback affordances (welcome message).
	HideActions bool `json:"-"`
}

// Metadata holds the hosting-page context attached to a message.
type Metadata struct {
	PageContext *PageContext `json:"pageContext,omitempty"`
}

// PageContext describes where on the hosting page a message originated.
type PageContext struct {
	TextSelection string `json:"textSelection,omitempty"`
	PageTitle     string `json:"pageTitle,omitempty"`
	PageURL       string `json:"pageUrl,omitempty"`
}

// NewUserMessage creates an optimistic user message with a generated id.
func NewUserMessage(content string) *Message {
	return &Message{
		Object:    "message",
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Parts:     []Part{TextPart(content)},
		Status:    StatusComplete,
		CreatedAt: time.Now(),
	}
}

// NewStreamingAssistantMessage creates an empty assistant message that
// will receive incremental token appends.
func NewStreamingAssistantMessage() *Message {
	return &Message{
		Object:    "message",
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Parts:     []Part{TextPart("")},
		Status:    StatusInProgress,
		CreatedAt: time.Now(),
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Text returns the concatenated text content of the message.
func (m *Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// AppendText appends a streamed token to the last text part.
// It does nothing unless the message is still in progress.
func (m *Message) AppendText(token string) {
	if m.Status != StatusInProgress {
		return
	}
	for i := len(m.Parts) - 1; i >= 0; i-- {
		if m.Parts[i].Type == PartText {
			m.Parts[i].Text += token
			return
		}
	}
	m.Parts = append(m.Parts, TextPart(token))
}

// Finalize marks a streaming message as complete.
func (m *Message) Finalize() {
	if m.Status == StatusInProgress {
		m.Status = StatusComplete
	}
}

// IsStreaming returns true while assistant tokens are still arriving.
func (m *Message) IsStreaming() bool {
	return m.Status == StatusInProgress
}

// Preview returns a truncated single-line preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := strings.ReplaceAll(m.Text(), "\n", " ")
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no text content.
func (m *Message) IsEmpty() bool {
	return m.Text() == ""
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	cp := *m
	cp.Parts = make([]Part, len(m.Parts))
	copy(cp.Parts, m.Parts)
	if m.HumanAgent != nil {
		agent := *m.HumanAgent
		cp.HumanAgent = &agent
	}
	if m.FeedbackAt != nil {
		at := *m.FeedbackAt
		cp.FeedbackAt = &at
	}
	if m.Metadata != nil {
		md := *m.Metadata
		if m.Metadata.PageContext != nil {
			pc := *m.Metadata.PageContext
			md.PageContext = &pc
		}
		cp.Metadata = &md
	}
	return &cp
}
