// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the SiteAssist chat API.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/siteassist/siteassist-widgets/internal/model"
)

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// ListConversations fetches one page of the visitor's conversations,
// ordered by last interaction, most recent first.
func (c *Client) ListConversations(ctx context.Context, opts ListOptions) (*ConversationsPage, error) {
	q := url.Values{}
	q.Set("orderBy", "lastInterationAt")
	q.Set("orderDir", "desc")
	if opts.Status != "" {
		q.Set("status", string(opts.Status))
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(opts.Offset))

	req, err := c.newRequest(ctx, http.MethodGet, "/conversations?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var page ConversationsPage
	if err := c.do(req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetConversation fetches the authoritative snapshot of a conversation,
// including its full message history.
func (c *Client) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/conversations/"+url.PathEscape(conversationID), nil)
	if err != nil {
		return nil, err
	}

	var conv model.Conversation
	if err := c.do(req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// CreateConversation opens a new, empty conversation for the visitor.
func (c *Client) CreateConversation(ctx context.Context) (*model.Conversation, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/conversations", nil)
	if err != nil {
		return nil, err
	}

	var conv model.Conversation
	if err := c.do(req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// SendMessage posts a message without streaming. Used for human-handled
// conversations, where the reply arrives over the live-update channel.
func (c *Client) SendMessage(ctx context.Context, conversationID string, body SendMessageRequest) (*model.Message, error) {
	body.Stream = false
	req, err := c.newRequest(ctx, http.MethodPost, "/conversations/"+url.PathEscape(conversationID)+"/messages", body)
	if err != nil {
		return nil, err
	}

	var msg model.Message
	if err := c.do(req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CloseConversation transitions a conversation to its terminal closed
// state. Closed conversations stay readable but accept no more sends.
func (c *Client) CloseConversation(ctx context.Context, conversationID string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/conversations/"+url.PathEscape(conversationID)+"/close", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// SendFeedback rates a message. Passing FeedbackNone clears the rating.
// Returns the server's reconciled message so optimistic state can settle
// against it.
func (c *Client) SendFeedback(ctx context.Context, messageID string, feedback model.Feedback) (*model.Message, error) {
	body := FeedbackRequest{}
	if feedback != model.FeedbackNone {
		body.Feedback = &feedback
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/messages/"+url.PathEscape(messageID)+"/feedback", body)
	if err != nil {
		return nil, err
	}

	var msg model.Message
	if err := c.do(req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
