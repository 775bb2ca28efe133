// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/siteassist/siteassist-widgets/internal/model"
)

// =============================================================================
// PROJECT OPERATIONS
// =============================================================================

// GetProject fetches the tenant configuration for an API key.
// This endpoint is public; no session token is required.
func (c *Client) GetProject(ctx context.Context, apiKey string) (*model.Project, error) {
	q := url.Values{}
	q.Set("apiKey", apiKey)

	req, err := c.newRequest(ctx, http.MethodGet, "/projects/current?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var project model.Project
	if err := c.do(req, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListQnAs fetches one page of a project's published help articles.
func (c *Client) ListQnAs(ctx context.Context, projectID string, opts ListOptions) (*QnAsPage, error) {
	q := url.Values{}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(opts.Offset))

	path := "/projects/" + url.PathEscape(projectID) + "/qnas?" + q.Encode()
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var page QnAsPage
	if err := c.do(req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetQnA fetches a single help article.
func (c *Client) GetQnA(ctx context.Context, projectID, qnaID string) (*model.QnA, error) {
	path := "/projects/" + url.PathEscape(projectID) + "/qnas/" + url.PathEscape(qnaID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var qna model.QnA
	if err := c.do(req, &qna); err != nil {
		return nil, err
	}
	return &qna, nil
}

// =============================================================================
// IDENTITY OPERATIONS
// =============================================================================

// GetVisitor fetches the visitor identity behind the current session
// token. Fails with ErrUnauthorized when the token is missing or stale.
func (c *Client) GetVisitor(ctx context.Context) (*model.Visitor, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/identity/me", nil)
	if err != nil {
		return nil, err
	}

	var visitor model.Visitor
	if err := c.do(req, &visitor); err != nil {
		return nil, err
	}
	return &visitor, nil
}

// InitIdentity bootstraps a visitor session from the API key and the
// durable per-browser visitor id, returning a fresh session token.
func (c *Client) InitIdentity(ctx context.Context, apiKey, saVID, externalID string) (*IdentityInitResponse, error) {
	body := identityInitRequest{
		APIKey:     apiKey,
		SaVID:      saVID,
		ExternalID: externalID,
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/identity/init", body)
	if err != nil {
		return nil, err
	}

	var resp IdentityInitResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
