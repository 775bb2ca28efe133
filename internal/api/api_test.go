// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the SiteAssist chat API.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/siteassist/siteassist-widgets/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(&ClientConfig{
		BaseURL: server.URL,
		Tokens:  StaticToken("test-session-token"),
	})
	return client, server
}

// =============================================================================
// REQUEST SHAPE TESTS
// =============================================================================

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotAgent string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		json.NewEncoder(w).Encode(model.Visitor{ID: "v1"})
	})

	if _, err := client.GetVisitor(context.Background()); err != nil {
		t.Fatalf("GetVisitor() error = %v", err)
	}

	if gotAuth != "Bearer test-session-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotAgent != "siteassist-widget/go" {
		t.Errorf("User-Agent = %q", gotAgent)
	}
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(model.Project{ID: "p1"})
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{BaseURL: server.URL})
	if _, err := client.GetProject(context.Background(), "pk_test"); err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}

	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestListConversationsQuery(t *testing.T) {
	var gotQuery map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		json.NewEncoder(w).Encode(ConversationsPage{Total: 0, Limit: 20})
	})

	_, err := client.ListConversations(context.Background(), ListOptions{
		Status: model.ConversationOpen,
		Offset: 40,
	})
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}

	want := map[string]string{
		// "lastInterationAt" matches the server's field name as-is.
		"orderBy":  "lastInterationAt",
		"orderDir": "desc",
		"status":   "open",
		"limit":    "20",
		"offset":   "40",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}
}

func TestPaging(t *testing.T) {
	tests := []struct {
		name     string
		page     ConversationsPage
		hasMore  bool
		nextOffs int
	}{
		{"first of many", ConversationsPage{Total: 50, Limit: 20, Offset: 0}, true, 20},
		{"last page", ConversationsPage{Total: 50, Limit: 20, Offset: 40}, false, 60},
		{"exact boundary", ConversationsPage{Total: 40, Limit: 20, Offset: 20}, false, 40},
		{"empty", ConversationsPage{Total: 0, Limit: 20, Offset: 0}, false, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.page.HasMore(); got != tt.hasMore {
				t.Errorf("HasMore() = %v, want %v", got, tt.hasMore)
			}
			if got := tt.page.NextOffset(); got != tt.nextOffs {
				t.Errorf("NextOffset() = %d, want %d", got, tt.nextOffs)
			}
		})
	}
}

func TestSendFeedbackBody(t *testing.T) {
	tests := []struct {
		name     string
		feedback model.Feedback
		wantBody string
	}{
		{"like", model.FeedbackLike, `{"feedback":"like"}`},
		{"dislike", model.FeedbackDislike, `{"feedback":"dislike"}`},
		{"clear sends null", model.FeedbackNone, `{"feedback":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBody string
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				data, _ := io.ReadAll(r.Body)
				gotBody = strings.TrimSpace(string(data))
				json.NewEncoder(w).Encode(model.Message{ID: "m1", Feedback: tt.feedback})
			})

			msg, err := client.SendFeedback(context.Background(), "m1", tt.feedback)
			if err != nil {
				t.Fatalf("SendFeedback() error = %v", err)
			}
			if gotBody != tt.wantBody {
				t.Errorf("body = %s, want %s", gotBody, tt.wantBody)
			}
			if msg.Feedback != tt.feedback {
				t.Errorf("reconciled feedback = %q, want %q", msg.Feedback, tt.feedback)
			}
		})
	}
}

func TestSendMessageForcesNonStreaming(t *testing.T) {
	var gotReq SendMessageRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(model.Message{ID: "m1"})
	})

	_, err := client.SendMessage(context.Background(), "c1", SendMessageRequest{
		Content: "hello",
		Stream:  true,
		Context: &SendContext{PageURL: "https://example.com/pricing"},
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if gotReq.Stream {
		t.Error("Stream = true, want false on the non-streaming path")
	}
	if gotReq.Context == nil || gotReq.Context.PageURL != "https://example.com/pricing" {
		t.Errorf("Context = %+v, want page URL preserved", gotReq.Context)
	}
}

// =============================================================================
// ERROR TAXONOMY TESTS
// =============================================================================

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"404 is not found", http.StatusNotFound, `{"message":"no such conversation"}`, IsNotFound},
		{"401 is unauthorized", http.StatusUnauthorized, `{"error":"session expired"}`, IsUnauthorized},
		{"403 is unauthorized", http.StatusForbidden, `{}`, IsUnauthorized},
		{"500 is server error", http.StatusInternalServerError, "boom", func(err error) bool {
			var ce *ClientError
			return asClientError(err, &ce) && ce.Type == ErrTypeServer
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.GetConversation(context.Background(), "c1")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.check(err) {
				t.Errorf("error %v failed taxonomy check", err)
			}
		})
	}
}

func TestErrorUsesServerMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"conversation gone"}`)
	})

	_, err := client.GetConversation(context.Background(), "c1")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "conversation gone") {
		t.Errorf("error = %q, want server message surfaced", err.Error())
	}
}

func asClientError(err error, out **ClientError) bool {
	for err != nil {
		if ce, ok := err.(*ClientError); ok {
			*out = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// =============================================================================
// STREAM READER TESTS
// =============================================================================

func TestStreamReaderDeltas(t *testing.T) {
	body := strings.Join([]string{
		`data: {"type":"start","messageId":"m-42"}`,
		`data: {"type":"text-start","id":"t1"}`,
		`data: {"type":"text-delta","id":"t1","delta":"Hello"}`,
		`data: {"type":"text-delta","id":"t1","delta":", world"}`,
		`data: {"type":"text-end","id":"t1"}`,
		`data: {"type":"finish"}`,
		`data: [DONE]`,
	}, "\n") + "\n"

	reader := NewStreamReader(strings.NewReader(body))

	var deltas []string
	var doneCount int
	var messageID string
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		if chunk.Delta != "" {
			deltas = append(deltas, chunk.Delta)
		}
		if chunk.Done {
			doneCount++
			messageID = chunk.MessageID
		}
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if got := strings.Join(deltas, ""); got != "Hello, world" {
		t.Errorf("deltas = %q, want 'Hello, world'", got)
	}
	if doneCount != 1 {
		t.Errorf("done chunks = %d, want 1", doneCount)
	}
	if messageID != "m-42" {
		t.Errorf("MessageID = %q, want 'm-42'", messageID)
	}
	if reader.Text() != "Hello, world" {
		t.Errorf("Text() = %q", reader.Text())
	}
}

func TestStreamReaderSkipsMalformedLines(t *testing.T) {
	body := strings.Join([]string{
		`data: {not json`,
		``,
		`: event-stream comment`,
		`data: {"type":"text-delta","delta":"ok"}`,
		`data: {"type":"unknown-future-event","delta":"ignored"}`,
		`data: {"type":"finish"}`,
	}, "\n") + "\n"

	reader := NewStreamReader(strings.NewReader(body))
	var text strings.Builder
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		text.WriteString(chunk.Delta)
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if text.String() != "ok" {
		t.Errorf("text = %q, want 'ok'", text.String())
	}
}

func TestStreamReaderErrorEvent(t *testing.T) {
	body := `data: {"type":"text-delta","delta":"partial"}` + "\n" +
		`data: {"type":"error","errorText":"model overloaded"}` + "\n"

	reader := NewStreamReader(strings.NewReader(body))
	var final StreamChunk
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		if chunk.Done {
			final = chunk
		}
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if final.Error == nil {
		t.Fatal("expected error chunk")
	}
	if !strings.Contains(final.Error.Error(), "model overloaded") {
		t.Errorf("Error = %v", final.Error)
	}
	if reader.Text() != "partial" {
		t.Errorf("Text() = %q, want partial text retained", reader.Text())
	}
}

func TestStreamReaderTruncatedStream(t *testing.T) {
	// No finish event and no [DONE]: the reader still reports done once.
	body := `data: {"type":"text-delta","delta":"cut off"}` + "\n"

	reader := NewStreamReader(strings.NewReader(body))
	var doneCount int
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		if chunk.Done {
			doneCount++
		}
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if doneCount != 1 {
		t.Errorf("done chunks = %d, want 1", doneCount)
	}
	if reader.Text() != "cut off" {
		t.Errorf("Text() = %q", reader.Text())
	}
}

func TestStreamReaderCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := NewStreamReader(strings.NewReader(`data: {"type":"finish"}` + "\n"))
	err := reader.Process(ctx, func(StreamChunk) {})
	if err != context.Canceled {
		t.Errorf("Process() error = %v, want context.Canceled", err)
	}
}

// =============================================================================
// STREAMING SEND TESTS
// =============================================================================

func TestStreamMessage(t *testing.T) {
	var gotPath string
	var gotReq SendMessageRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, `data: {"type":"start","messageId":"m-1"}`+"\n")
		io.WriteString(w, `data: {"type":"text-delta","delta":"streamed"}`+"\n")
		io.WriteString(w, `data: {"type":"finish"}`+"\n")
	})

	var text strings.Builder
	err := client.StreamMessage(context.Background(), "c1", "hi", "https://example.com", func(chunk StreamChunk) {
		text.WriteString(chunk.Delta)
	})
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	if gotPath != "/v2/conversations/c1/messages" {
		t.Errorf("path = %q", gotPath)
	}
	if !gotReq.Stream {
		t.Error("Stream = false, want true")
	}
	if gotReq.Context == nil || gotReq.Context.PageURL != "https://example.com" {
		t.Errorf("Context = %+v", gotReq.Context)
	}
	if text.String() != "streamed" {
		t.Errorf("text = %q", text.String())
	}
}

func TestStreamMessageChanReleasedByCancel(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for {
			select {
			case <-r.Context().Done():
				return
			default:
			}
			io.WriteString(w, `data: {"type":"text-delta","delta":"x"}`+"\n")
			flusher.Flush()
			time.Sleep(10 * time.Millisecond)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	ch := client.StreamMessageChan(ctx, "c1", "hi", "")

	// Wait for the stream to be live, then abandon it mid-reply. The
	// producer goroutine must not stay parked on an unread send.
	<-ch
	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("stream channel still open after cancel")
		}
	}
}

func TestStreamMessageChanDeliversError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"session expired"}`)
	})

	var final StreamChunk
	for chunk := range client.StreamMessageChan(context.Background(), "c1", "hi", "") {
		final = chunk
	}

	if final.Error == nil {
		t.Fatal("expected error chunk before close")
	}
	if !IsUnauthorized(final.Error) {
		t.Errorf("Error = %v, want unauthorized", final.Error)
	}
}
