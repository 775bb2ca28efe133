// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/siteassist/siteassist-widgets/internal/model"
)

// =============================================================================
// BACKOFF TESTS
// =============================================================================

func TestBackoffDelay(t *testing.T) {
	config := (&Config{}).withDefaults()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second}, // 32s clamps to the cap
		{6, 30 * time.Second},
		{20, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := config.BackoffDelay(tt.attempt); got != tt.want {
			t.Errorf("BackoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffDelayCustomBase(t *testing.T) {
	config := (&Config{BackoffBase: 10 * time.Millisecond, BackoffCap: 35 * time.Millisecond}).withDefaults()

	if got := config.BackoffDelay(0); got != 10*time.Millisecond {
		t.Errorf("BackoffDelay(0) = %v", got)
	}
	if got := config.BackoffDelay(1); got != 20*time.Millisecond {
		t.Errorf("BackoffDelay(1) = %v", got)
	}
	if got := config.BackoffDelay(2); got != 35*time.Millisecond {
		t.Errorf("BackoffDelay(2) = %v, want cap", got)
	}
}

// =============================================================================
// STATE TESTS
// =============================================================================

func TestStateString(t *testing.T) {
	states := map[State]string{
		StateIdle:       "idle",
		StateConnecting: "connecting",
		StateOpen:       "open",
		StateBackoff:    "backoff",
		StateFailed:     "failed",
		StateStopped:    "stopped",
	}
	for state, want := range states {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestStopBeforeStart(t *testing.T) {
	ch := NewChannel(Config{URL: "ws://127.0.0.1:1/live"})
	ch.Stop()

	if got := ch.State(); got != StateStopped {
		t.Errorf("State() = %v, want stopped", got)
	}
	if _, open := <-ch.Events(); open {
		t.Error("Events() still open after Stop")
	}
}

// =============================================================================
// INTEGRATION TESTS
// =============================================================================

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsURL converts an httptest server URL to a ws:// URL.
func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestChannelDeliversEvents(t *testing.T) {
	var gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.URL.Query().Get("apiKey")
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		payload, _ := json.Marshal(model.LiveEvent{
			Type:   model.LiveNewMessage,
			ChatID: "c1",
			Message: &model.Message{
				ID:   "m1",
				Role: model.RoleHumanAgent,
			},
		})
		conn.WriteMessage(websocket.TextMessage, payload)

		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	ch := NewChannel(Config{
		URL:    wsURL(server),
		APIKey: "pk_test",
	})
	ch.Start(context.Background())
	defer ch.Stop()

	select {
	case event := <-ch.Events():
		if event.Type != model.LiveNewMessage {
			t.Errorf("event type = %q", event.Type)
		}
		if event.ChatID != "c1" {
			t.Errorf("chat id = %q", event.ChatID)
		}
		if event.Message == nil || event.Message.ID != "m1" {
			t.Errorf("message = %+v", event.Message)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered")
	}

	if gotAPIKey != "pk_test" {
		t.Errorf("dial apiKey = %q, want 'pk_test'", gotAPIKey)
	}
}

func TestChannelIgnoresNoiseFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, []byte("pong"))
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"unknown_event"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"human_assigned","chatId":"c9"}`))

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	ch := NewChannel(Config{URL: wsURL(server)})
	ch.Start(context.Background())
	defer ch.Stop()

	select {
	case event := <-ch.Events():
		// Only the parseable, known-type frame survives.
		if event.Type != model.LiveHumanAssigned || event.ChatID != "c9" {
			t.Errorf("event = %+v", event)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestChannelAnswersServerPing(t *testing.T) {
	got := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, []byte("ping"))
		_, data, err := conn.ReadMessage()
		if err == nil {
			got <- string(data)
		}
	}))
	defer server.Close()

	ch := NewChannel(Config{URL: wsURL(server)})
	ch.Start(context.Background())
	defer ch.Stop()

	select {
	case reply := <-got:
		if reply != "pong" {
			t.Errorf("reply = %q, want 'pong'", reply)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no pong received")
	}
}

func TestChannelSendsHeartbeat(t *testing.T) {
	got := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err == nil {
			got <- string(data)
		}
	}))
	defer server.Close()

	ch := NewChannel(Config{
		URL:               wsURL(server),
		HeartbeatInterval: 20 * time.Millisecond,
	})
	ch.Start(context.Background())
	defer ch.Stop()

	select {
	case frame := <-got:
		if frame != "ping" {
			t.Errorf("heartbeat frame = %q, want 'ping'", frame)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no heartbeat sent")
	}
}

func TestChannelReconnectsAfterDrop(t *testing.T) {
	var mu sync.Mutex
	dials := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		dials++
		n := dials
		mu.Unlock()

		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if n == 1 {
			// First connection drops immediately.
			conn.Close()
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"new_message","chatId":"c1"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	var states []State
	var stateMu sync.Mutex
	ch := NewChannel(Config{
		URL:         wsURL(server),
		BackoffBase: 10 * time.Millisecond,
		BackoffCap:  50 * time.Millisecond,
		OnState: func(s State) {
			stateMu.Lock()
			states = append(states, s)
			stateMu.Unlock()
		},
	})
	ch.Start(context.Background())
	defer ch.Stop()

	select {
	case event := <-ch.Events():
		if event.ChatID != "c1" {
			t.Errorf("event = %+v", event)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event after reconnect")
	}

	mu.Lock()
	if dials < 2 {
		t.Errorf("dials = %d, want at least 2", dials)
	}
	mu.Unlock()

	stateMu.Lock()
	sawBackoff := false
	for _, s := range states {
		if s == StateBackoff {
			sawBackoff = true
		}
	}
	stateMu.Unlock()
	if !sawBackoff {
		t.Error("never entered backoff between connections")
	}
}

func TestChannelFailsAfterMaxAttempts(t *testing.T) {
	// Nothing listens here; every dial fails fast.
	ch := NewChannel(Config{
		URL:         "ws://127.0.0.1:1/live",
		BackoffBase: time.Millisecond,
		BackoffCap:  5 * time.Millisecond,
		MaxAttempts: 3,
	})
	ch.Start(context.Background())

	deadline := time.After(5 * time.Second)
	for {
		if ch.State() == StateFailed {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("state = %v, never failed", ch.State())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if _, open := <-ch.Events(); open {
		t.Error("Events() still open after permanent failure")
	}
}
