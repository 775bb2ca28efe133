// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the widget client.
package model

import (
	"encoding/json"
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("Hello")

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want 'user'", msg.Role)
	}
	if msg.Text() != "Hello" {
		t.Errorf("Text() = %q, want 'Hello'", msg.Text())
	}
	if msg.Status != StatusComplete {
		t.Errorf("Status = %q, want 'complete'", msg.Status)
	}
	if msg.ID == "" {
		t.Error("ID should be generated")
	}
}

func TestNewUserMessage_UniqueIDs(t *testing.T) {
	a := NewUserMessage("a")
	b := NewUserMessage("b")
	if a.ID == b.ID {
		t.Errorf("two messages share id %q", a.ID)
	}
}

func TestMessage_AppendText(t *testing.T) {
	msg := NewStreamingAssistantMessage()

	msg.AppendText("Hel")
	msg.AppendText("lo")

	if msg.Text() != "Hello" {
		t.Errorf("Text() = %q, want 'Hello'", msg.Text())
	}
	if !msg.IsStreaming() {
		t.Error("message should still be streaming")
	}

	msg.Finalize()
	if msg.IsStreaming() {
		t.Error("message should not be streaming after Finalize")
	}

	// Appends after finalize are dropped
	msg.AppendText("!")
	if msg.Text() != "Hello" {
		t.Errorf("Text() after finalize = %q, want 'Hello'", msg.Text())
	}
}

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short", "hi", 10, "hi"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"newlines flattened", "a\nb", 10, "a b"},
		{"unicode", "héllo wörld", 8, "héllo..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := NewUserMessage(tc.content)
			if got := msg.Preview(tc.maxLen); got != tc.want {
				t.Errorf("Preview(%d) = %q, want %q", tc.maxLen, got, tc.want)
			}
		})
	}
}

func TestMessage_Clone(t *testing.T) {
	orig := NewUserMessage("hello")
	orig.HumanAgent = &Agent{Name: "Sam"}

	clone := orig.Clone()
	clone.Parts[0].Text = "changed"
	clone.HumanAgent.Name = "Alex"

	if orig.Text() != "hello" {
		t.Errorf("clone mutation leaked into original: %q", orig.Text())
	}
	if orig.HumanAgent.Name != "Sam" {
		t.Errorf("clone agent mutation leaked into original: %q", orig.HumanAgent.Name)
	}
}

func TestMessage_DecodeNullFeedback(t *testing.T) {
	data := []byte(`{"object":"message","id":"m1","role":"assistant",` +
		`"parts":[{"type":"text","text":"hi"}],"feedback":null,"createdAt":"2025-01-02T03:04:05Z"}`)

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if msg.Feedback != FeedbackNone {
		t.Errorf("Feedback = %q, want none", msg.Feedback)
	}
	if msg.Text() != "hi" {
		t.Errorf("Text() = %q, want 'hi'", msg.Text())
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_MessageByID(t *testing.T) {
	conv := &Conversation{
		ID:     "c1",
		Status: ConversationOpen,
		Messages: []*Message{
			NewUserMessage("one"),
			NewUserMessage("two"),
		},
	}

	want := conv.Messages[1]
	if got := conv.MessageByID(want.ID); got != want {
		t.Errorf("MessageByID(%q) = %v, want %v", want.ID, got, want)
	}
	if got := conv.MessageByID("missing"); got != nil {
		t.Errorf("MessageByID(missing) = %v, want nil", got)
	}
}

func TestConversation_IsClosed(t *testing.T) {
	conv := &Conversation{Status: ConversationOpen}
	if conv.IsClosed() {
		t.Error("open conversation reported closed")
	}

	now := time.Now()
	conv.Status = ConversationClosed
	conv.ClosedAt = &now
	if !conv.IsClosed() {
		t.Error("closed conversation reported open")
	}
}

// =============================================================================
// LIVE EVENT TESTS
// =============================================================================

func TestParseLiveEvent(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantType LiveEventType
		wantMsg  bool
		wantErr  bool
	}{
		{
			name:     "new message",
			data:     `{"type":"new_message","message":{"object":"message","id":"m1","role":"human_agent","parts":[{"type":"text","text":"hi"}]}}`,
			wantType: LiveNewMessage,
			wantMsg:  true,
		},
		{
			name:     "human assigned",
			data:     `{"type":"human_assigned"}`,
			wantType: LiveHumanAssigned,
		},
		{
			name:     "unknown type tolerated",
			data:     `{"type":"typing"}`,
			wantType: LiveEventType("typing"),
		},
		{
			name:    "malformed",
			data:    `{"type":`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := ParseLiveEvent([]byte(tc.data))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLiveEvent failed: %v", err)
			}
			if ev.Type != tc.wantType {
				t.Errorf("Type = %q, want %q", ev.Type, tc.wantType)
			}
			if tc.wantMsg && ev.Message == nil {
				t.Error("Message should be present")
			}
		})
	}
}

// =============================================================================
// PROJECT TESTS
// =============================================================================

func TestWidgetConfig_WelcomeUIMessage(t *testing.T) {
	cfg := WidgetConfig{WelcomeMessage: "Hi there! How can we help?"}

	msg := cfg.WelcomeUIMessage()
	if msg.ID != "welcome-message" {
		t.Errorf("ID = %q, want 'welcome-message'", msg.ID)
	}
	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want 'assistant'", msg.Role)
	}
	if !msg.HideActions {
		t.Error("welcome message should hide actions")
	}
	if msg.Text() != cfg.WelcomeMessage {
		t.Errorf("Text() = %q, want %q", msg.Text(), cfg.WelcomeMessage)
	}
}
