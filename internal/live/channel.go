// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package live

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mudler/xlog"

	"github.com/siteassist/siteassist-widgets/internal/model"
)

// =============================================================================
// STATES
// =============================================================================

// State is the lifecycle state of the live channel.
type State int

const (
	// StateIdle means Start has not been called yet.
	StateIdle State = iota

	// StateConnecting means a dial is in flight.
	StateConnecting

	// StateOpen means the connection is established and healthy.
	StateOpen

	// StateBackoff means the last connection failed and a retry is
	// scheduled.
	StateBackoff

	// StateFailed means the retry budget is exhausted. Terminal.
	StateFailed

	// StateStopped means Stop was called. Terminal.
	StateStopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateBackoff:
		return "backoff"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds channel configuration. Zero values take defaults.
type Config struct {
	// URL is the WebSocket endpoint (ws:// or wss://).
	URL string

	// APIKey is sent as the apiKey query parameter on dial. Optional.
	APIKey string

	// HeartbeatInterval between outbound pings (default: 30s).
	HeartbeatInterval time.Duration

	// HeartbeatTimeout is how long the connection may stay silent
	// before it is considered dead (default: 60s).
	HeartbeatTimeout time.Duration

	// BackoffBase is the first retry delay (default: 1s).
	BackoffBase time.Duration

	// BackoffCap clamps the retry delay (default: 30s).
	BackoffCap time.Duration

	// MaxAttempts bounds consecutive failed connections. Zero retries
	// forever.
	MaxAttempts int

	// Dialer overrides the WebSocket dialer. Nil uses the default.
	Dialer *websocket.Dialer

	// OnState is called on every state transition, from the channel's
	// internal goroutine. Optional.
	OnState func(State)
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.HeartbeatInterval == 0 {
		out.HeartbeatInterval = 30 * time.Second
	}
	if out.HeartbeatTimeout == 0 {
		out.HeartbeatTimeout = 60 * time.Second
	}
	if out.BackoffBase == 0 {
		out.BackoffBase = time.Second
	}
	if out.BackoffCap == 0 {
		out.BackoffCap = 30 * time.Second
	}
	if out.Dialer == nil {
		out.Dialer = websocket.DefaultDialer
	}
	return out
}

// BackoffDelay returns the delay before retry number attempt (0-based):
// the base delay doubled per attempt, clamped at the cap.
func (c *Config) BackoffDelay(attempt int) time.Duration {
	delay := c.BackoffBase
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= c.BackoffCap {
			return c.BackoffCap
		}
	}
	if delay > c.BackoffCap {
		return c.BackoffCap
	}
	return delay
}

// =============================================================================
// CHANNEL
// =============================================================================

// Channel is a self-healing WebSocket subscription for live updates.
type Channel struct {
	config Config

	events chan model.LiveEvent

	mu    sync.Mutex
	state State
	conn  *websocket.Conn

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannel creates a channel. Call Start to connect.
func NewChannel(config Config) *Channel {
	return &Channel{
		config: config.withDefaults(),
		events: make(chan model.LiveEvent, 16),
		done:   make(chan struct{}),
	}
}

// Events returns the stream of parsed live events. The channel is
// closed when the Channel stops or fails permanently.
func (c *Channel) Events() <-chan model.LiveEvent {
	return c.events
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start connects and keeps the channel alive until the context is
// cancelled or Stop is called. Non-blocking.
func (c *Channel) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		cancel()
		return
	}
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(ctx)
}

// Stop tears the connection down and ends the retry loop.
func (c *Channel) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	c.mu.Unlock()

	if cancel == nil {
		// Never started.
		c.setState(StateStopped)
		c.closeOnce.Do(func() { close(c.events) })
		return
	}
	cancel()
	if conn != nil {
		conn.Close()
	}
	<-c.done
}

// =============================================================================
// CONNECTION LOOP
// =============================================================================

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)
	defer c.closeOnce.Do(func() { close(c.events) })

	attempt := 0
	for {
		if ctx.Err() != nil {
			c.setState(StateStopped)
			return
		}

		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err != nil {
			xlog.Debug("live connect failed", "attempt", attempt, "error", err)

			attempt++
			if c.config.MaxAttempts > 0 && attempt >= c.config.MaxAttempts {
				c.setState(StateFailed)
				return
			}

			c.setState(StateBackoff)
			delay := c.config.BackoffDelay(attempt - 1)
			select {
			case <-ctx.Done():
				c.setState(StateStopped)
				return
			case <-time.After(delay):
			}
			continue
		}

		// Healthy connection resets the retry budget.
		attempt = 0
		c.setConn(conn)
		c.setState(StateOpen)
		xlog.Debug("live channel open", "url", c.config.URL)

		c.serve(ctx, conn)
		c.setConn(nil)
		conn.Close()

		if ctx.Err() != nil {
			c.setState(StateStopped)
			return
		}

		// The drop itself counts as the first failed attempt.
		attempt = 1
		if c.config.MaxAttempts > 0 && attempt >= c.config.MaxAttempts {
			c.setState(StateFailed)
			return
		}

		c.setState(StateBackoff)
		select {
		case <-ctx.Done():
			c.setState(StateStopped)
			return
		case <-time.After(c.config.BackoffDelay(0)):
		}
	}
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	dialURL := c.config.URL
	if c.config.APIKey != "" {
		u, err := url.Parse(dialURL)
		if err == nil {
			q := u.Query()
			q.Set("apiKey", c.config.APIKey)
			u.RawQuery = q.Encode()
			dialURL = u.String()
		}
	}

	conn, resp, err := c.config.Dialer.DialContext(ctx, dialURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// serve pumps one established connection until it breaks or the context
// ends. Writes are serialized by a mutex; reads happen on this
// goroutine only.
func (c *Channel) serve(ctx context.Context, conn *websocket.Conn) {
	var writeMu sync.Mutex
	send := func(payload string) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, []byte(payload))
	}

	// Heartbeat writer. Any inbound frame extends the read deadline,
	// so a missing pong surfaces as a read timeout. Context
	// cancellation closes the conn to unblock the read loop promptly.
	hbCtx, hbCancel := context.WithCancel(ctx)
	defer hbCancel()
	go func() {
		ticker := time.NewTicker(c.config.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				if ctx.Err() != nil {
					conn.Close()
				}
				return
			case <-ticker.C:
				if err := send("ping"); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(c.config.HeartbeatTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				xlog.Debug("live read failed", "error", err)
			}
			return
		}

		switch string(data) {
		case "pong":
			continue
		case "ping":
			// The server may heartbeat too; answer in kind.
			if err := send("pong"); err != nil {
				return
			}
			continue
		}

		event, err := model.ParseLiveEvent(data)
		if err != nil {
			xlog.Debug("live event discarded", "error", err)
			continue
		}
		if event.Type == "" {
			continue
		}

		select {
		case c.events <- event:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Channel) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()

	if c.config.OnState != nil {
		c.config.OnState(s)
	}
}
