// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/siteassist/siteassist-widgets/internal/api"
	"github.com/siteassist/siteassist-widgets/internal/bridge"
	"github.com/siteassist/siteassist-widgets/internal/live"
	"github.com/siteassist/siteassist-widgets/internal/loader"
	"github.com/siteassist/siteassist-widgets/internal/model"
)

// requestTimeout bounds every one-shot REST command.
const requestTimeout = 30 * time.Second

// =============================================================================
// BOOT COMMANDS
// =============================================================================

// BootCmd runs the loader's boot sequence.
func BootCmd(l *loader.Loader) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		boot, err := l.Load(ctx)
		return BootedMsg{Boot: boot, Err: err}
	}
}

// RefreshProjectCmd refetches the project configuration in the
// background after a cached boot.
func RefreshProjectCmd(l *loader.Loader) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		project, err := l.RefreshProject(ctx)
		if err != nil {
			// The cached copy stays in effect.
			return nil
		}
		return ProjectRefreshedMsg{Project: project}
	}
}

// =============================================================================
// CONVERSATION COMMANDS
// =============================================================================

// LoadConversationCmd fetches the authoritative snapshot.
func LoadConversationCmd(client *api.Client, id string, refresh bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		conv, err := client.GetConversation(ctx, id)
		return ConversationLoadedMsg{Conversation: conv, Refresh: refresh, Err: err}
	}
}

// CreateConversationCmd opens a new conversation; firstMessage rides
// along so the chat screen can queue it as the pending message.
func CreateConversationCmd(client *api.Client, firstMessage string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		conv, err := client.CreateConversation(ctx)
		return ConversationCreatedMsg{Conversation: conv, FirstMessage: firstMessage, Err: err}
	}
}

// ListConversationsCmd fetches one history page.
func ListConversationsCmd(client *api.Client, opts api.ListOptions) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		page, err := client.ListConversations(ctx, opts)
		return ConversationsPageMsg{Page: page, Err: err}
	}
}

// SendRESTCmd posts a message without streaming (human-handled path).
func SendRESTCmd(client *api.Client, conversationID, messageID, content, pageURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		body := api.SendMessageRequest{Content: content}
		if pageURL != "" {
			body.Context = &api.SendContext{PageURL: pageURL}
		}
		_, err := client.SendMessage(ctx, conversationID, body)
		return SendDeliveredMsg{MessageID: messageID, Err: err}
	}
}

// CloseConversationCmd closes the conversation on the server.
func CloseConversationCmd(client *api.Client, conversationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return ClosedMsg{Err: client.CloseConversation(ctx, conversationID)}
	}
}

// SendFeedbackCmd submits a rating; previous rides along for rollback.
func SendFeedbackCmd(client *api.Client, messageID string, rating, previous model.Feedback) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		server, err := client.SendFeedback(ctx, messageID, rating)
		return FeedbackSettledMsg{MessageID: messageID, Previous: previous, Server: server, Err: err}
	}
}

// =============================================================================
// STREAMING COMMANDS
// =============================================================================

// StartStreamCmd opens the streaming send and returns its chunk
// channel wrapped in the first pump command. The context should be the
// owning screen's, so navigating away releases the stream goroutine
// and its response body.
func StartStreamCmd(ctx context.Context, client *api.Client, conversationID, content, pageURL string) (tea.Cmd, <-chan api.StreamChunk) {
	ch := client.StreamMessageChan(ctx, conversationID, content, pageURL)
	return PumpStreamCmd(ch), ch
}

// PumpStreamCmd waits for the next chunk. Re-issued by the chat screen
// after each chunk until Done.
func PumpStreamCmd(ch <-chan api.StreamChunk) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-ch
		if !ok {
			return StreamChunkMsg{Chunk: api.StreamChunk{Done: true}}
		}
		return StreamChunkMsg{Chunk: chunk}
	}
}

// =============================================================================
// LIVE-UPDATE COMMANDS
// =============================================================================

// PumpLiveCmd waits for the next push event. Re-issued after each
// event until the channel closes.
func PumpLiveCmd(ch *live.Channel) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch.Events()
		if !ok {
			return LiveClosedMsg{State: ch.State()}
		}
		return LiveEventMsg{Event: event}
	}
}

// =============================================================================
// HELP CENTER COMMANDS
// =============================================================================

// ListQnAsCmd fetches one help-article page.
func ListQnAsCmd(client *api.Client, projectID string, opts api.ListOptions) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		page, err := client.ListQnAs(ctx, projectID, opts)
		return QnAsPageMsg{Page: page, Err: err}
	}
}

// LoadQnACmd fetches one help article.
func LoadQnACmd(client *api.Client, projectID, qnaID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		qna, err := client.GetQnA(ctx, projectID, qnaID)
		return QnALoadedMsg{QnA: qna, Err: err}
	}
}

// =============================================================================
// HOST BRIDGE COMMANDS
// =============================================================================

// PumpBridgeCmd waits for the next host envelope from the pump
// channel fed by the bridge handler.
func PumpBridgeCmd(ch <-chan bridge.Envelope, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case env := <-ch:
			return BridgeEnvelopeMsg{Envelope: env}
		case <-done:
			return BridgeClosedMsg{}
		}
	}
}

// NavigateCmd emits a navigation message.
func NavigateCmd(route Route) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Route: route}
	}
}
