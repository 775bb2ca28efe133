// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the SiteAssist chat API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the chat API client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel ClientErrors by type.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeNotFound
	ErrTypeUnauthorized
	ErrTypeInvalidResponse
	ErrTypeServer
)

// Sentinel errors for easy checking.
var (
	ErrTimeout      = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrNotFound     = &ClientError{Type: ErrTypeNotFound, Message: "not found"}
	ErrUnauthorized = &ClientError{Type: ErrTypeUnauthorized, Message: "unauthorized"}
)

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if an error indicates a missing or expired session.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// TokenSource supplies the bearer session token for a request.
// The empty string means no token is available yet.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource wrapping a fixed token string.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() string { return string(t) }

// ClientConfig holds configuration options for the API client.
type ClientConfig struct {
	// BaseURL is the chat API base URL, without trailing slash.
	BaseURL string

	// Tokens supplies the bearer session token. Optional.
	Tokens TokenSource

	// Timeout for non-streaming requests (default: 30s).
	Timeout time.Duration

	// UserAgent sent on every request.
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   "https://chat-api.siteassist.io",
		Timeout:   30 * time.Second,
		UserAgent: "siteassist-widget/go",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the SiteAssist chat API.
//
// The Client is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a client with custom configuration. Zero values are
// filled in from DefaultConfig.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://chat-api.siteassist.io"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "siteassist-widget/go"
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// newRequest builds a request with auth and content-type headers set.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	if c.config.Tokens != nil {
		if token := c.config.Tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

// do executes the request and decodes a 2xx JSON body into out (when
// out is non-nil). Non-2xx statuses convert to typed errors.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// apiError is the error envelope the API returns on failures.
type apiError struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// checkStatus maps non-2xx responses to typed errors, preferring the
// server's own error message when one is present.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := "request failed: " + resp.Status
	var body apiError
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Message != "" {
			msg = body.Message
		} else if body.Error != "" {
			msg = body.Error
		}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &ClientError{Type: ErrTypeNotFound, Message: msg}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ClientError{Type: ErrTypeUnauthorized, Message: msg}
	case resp.StatusCode >= 500:
		return &ClientError{Type: ErrTypeServer, Message: msg}
	default:
		return &ClientError{Type: ErrTypeInvalidResponse, Message: msg}
	}
}
