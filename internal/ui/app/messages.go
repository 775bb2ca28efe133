// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/siteassist/siteassist-widgets/internal/api"
	"github.com/siteassist/siteassist-widgets/internal/bridge"
	"github.com/siteassist/siteassist-widgets/internal/config"
	"github.com/siteassist/siteassist-widgets/internal/live"
	"github.com/siteassist/siteassist-widgets/internal/loader"
	"github.com/siteassist/siteassist-widgets/internal/model"
)

// =============================================================================
// NAVIGATION MESSAGES
// =============================================================================

// NavigateMsg switches the active screen.
type NavigateMsg struct {
	Route Route

	// Pending carries the first message of a brand-new conversation
	// into the chat screen.
	Pending *model.PendingMessage

	// AutoFocus puts the cursor in the input immediately.
	AutoFocus bool
}

// =============================================================================
// BOOT MESSAGES
// =============================================================================

// BootedMsg delivers the loader's boot result.
type BootedMsg struct {
	Boot *loader.Bootstrap
	Err  error
}

// ProjectRefreshedMsg delivers a background project refresh.
type ProjectRefreshedMsg struct {
	Project *model.Project
}

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// ConversationLoadedMsg delivers a snapshot fetch (or refresh).
type ConversationLoadedMsg struct {
	Conversation *model.Conversation
	Refresh      bool
	Err          error
}

// ConversationCreatedMsg delivers a freshly created conversation.
type ConversationCreatedMsg struct {
	Conversation *model.Conversation
	FirstMessage string
	Err          error
}

// ConversationsPageMsg delivers one history page.
type ConversationsPageMsg struct {
	Page *api.ConversationsPage
	Err  error
}

// SendDeliveredMsg settles a plain REST send.
type SendDeliveredMsg struct {
	MessageID string
	Err       error
}

// ClosedMsg reports the result of closing the conversation.
type ClosedMsg struct {
	Err error
}

// FeedbackSettledMsg reports feedback reconciliation.
type FeedbackSettledMsg struct {
	MessageID string
	Previous  model.Feedback
	Server    *model.Message
	Err       error
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamChunkMsg delivers one streaming reply chunk.
type StreamChunkMsg struct {
	Chunk api.StreamChunk
}

// =============================================================================
// LIVE-UPDATE MESSAGES
// =============================================================================

// LiveEventMsg delivers one push event from the live channel.
type LiveEventMsg struct {
	Event model.LiveEvent
}

// LiveClosedMsg reports that the live channel ended for good.
type LiveClosedMsg struct {
	State live.State
}

// =============================================================================
// HELP CENTER MESSAGES
// =============================================================================

// QnAsPageMsg delivers one help-article page.
type QnAsPageMsg struct {
	Page *api.QnAsPage
	Err  error
}

// QnALoadedMsg delivers one help article.
type QnALoadedMsg struct {
	QnA *model.QnA
	Err error
}

// =============================================================================
// HOST BRIDGE MESSAGES
// =============================================================================

// BridgeEnvelopeMsg delivers one inbound host envelope.
type BridgeEnvelopeMsg struct {
	Envelope bridge.Envelope
}

// BridgeClosedMsg reports that the host pipe ended.
type BridgeClosedMsg struct{}

// FocusMsg asks the active screen to focus its input.
type FocusMsg struct{}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a hot-reloaded configuration file.
type ConfigReloadedMsg struct {
	Config *config.Config
}
