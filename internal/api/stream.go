// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the SiteAssist chat API.
package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// =============================================================================
// STREAM TYPES
// =============================================================================

// StreamChunk represents a single piece of a streaming assistant reply.
type StreamChunk struct {
	// Delta is the text fragment carried by this chunk. May be empty
	// for control events.
	Delta string

	// MessageID is the server-assigned id of the assistant message,
	// when the stream announces one.
	MessageID string

	// Done is true on the final chunk of the stream.
	Done bool

	// Error is set when the stream ended abnormally. Always paired
	// with Done=true.
	Error error
}

// StreamCallback is called for each chunk during streaming.
type StreamCallback func(chunk StreamChunk)

// streamEvent is one "data:" payload of the reply stream. The server
// emits more event types than we consume; unknown types are skipped.
type streamEvent struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Delta     string `json:"delta,omitempty"`
	ErrorText string `json:"errorText,omitempty"`
}

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader parses an event-stream reply body line by line.
type StreamReader struct {
	reader *bufio.Reader
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	accumulator strings.Builder
	messageID   string
	done        bool
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Text returns the reply text accumulated so far.
func (s *StreamReader) Text() string {
	return s.accumulator.String()
}

// Process reads the stream and calls the callback for each chunk.
// Blocks until the stream is complete or the context is cancelled.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			chunk, err := s.readChunk()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			if chunk != nil {
				callback(*chunk)
				if chunk.Done {
					return nil
				}
			}
		}
	}
}

// readChunk reads and parses a single line from the stream.
func (s *StreamReader) readChunk() (*StreamChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			// A truncated stream still finalizes with whatever text
			// arrived; the done chunk is synthesized exactly once.
			if s.done {
				return nil, io.EOF
			}
			s.done = true
			return &StreamChunk{MessageID: s.messageID, Done: true}, nil
		}
		if len(line) == 0 {
			return nil, err
		}
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	// Event-stream framing: payload lines carry a "data: " prefix,
	// everything else (comments, retry hints) is ignored.
	data, ok := bytes.CutPrefix(line, []byte("data:"))
	if !ok {
		return nil, nil
	}
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("[DONE]")) {
		s.done = true
		return &StreamChunk{MessageID: s.messageID, Done: true}, nil
	}

	var event streamEvent
	if err := json.Unmarshal(data, &event); err != nil {
		// Skip malformed lines
		return nil, nil
	}

	switch event.Type {
	case "start":
		if event.MessageID != "" {
			s.messageID = event.MessageID
		}
		return nil, nil

	case "text-start", "text-end":
		return nil, nil

	case "text-delta":
		if event.Delta == "" {
			return nil, nil
		}
		s.accumulator.WriteString(event.Delta)
		return &StreamChunk{Delta: event.Delta, MessageID: s.messageID}, nil

	case "error":
		msg := event.ErrorText
		if msg == "" {
			msg = "stream failed"
		}
		s.done = true
		return &StreamChunk{
			MessageID: s.messageID,
			Done:      true,
			Error:     &ClientError{Type: ErrTypeServer, Message: msg},
		}, nil

	case "finish":
		s.done = true
		return &StreamChunk{MessageID: s.messageID, Done: true}, nil

	default:
		// Unknown event types (reasoning, sources, tool parts) are
		// tolerated so server protocol additions never break clients.
		return nil, nil
	}
}

// =============================================================================
// STREAMING SEND
// =============================================================================

// StreamMessage sends a visitor message and streams the assistant reply.
// The callback is called for each chunk received. Blocks until the
// stream completes, fails, or the context is cancelled.
func (c *Client) StreamMessage(ctx context.Context, conversationID, content, pageURL string, callback StreamCallback) error {
	reqBody := SendMessageRequest{
		Content: content,
		Stream:  true,
	}
	if pageURL != "" {
		reqBody.Context = &SendContext{PageURL: pageURL}
	}

	path := "/v2/conversations/" + url.PathEscape(conversationID) + "/messages"
	req, err := c.newRequest(ctx, http.MethodPost, path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// Use a client without timeout for streaming (we handle timeout
	// via context); replies can legitimately take minutes.
	streamClient := &http.Client{}

	resp, err := streamClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return ErrTimeout
		}
		return &ClientError{Type: ErrTypeConnection, Message: "stream request failed", Cause: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	return NewStreamReader(resp.Body).Process(ctx, callback)
}

// StreamMessageChan sends a visitor message and returns a channel of
// reply chunks. The channel is closed when streaming is complete or an
// error occurs. Errors are delivered as chunks with the Error field set.
func (c *Client) StreamMessageChan(ctx context.Context, conversationID, content, pageURL string) <-chan StreamChunk {
	ch := make(chan StreamChunk)

	go func() {
		defer close(ch)

		err := c.StreamMessage(ctx, conversationID, content, pageURL, func(chunk StreamChunk) {
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
		})

		if err != nil {
			select {
			case ch <- StreamChunk{Error: err, Done: true}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}
