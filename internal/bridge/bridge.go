// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/mudler/xlog"

	"github.com/siteassist/siteassist-widgets/internal/model"
)

// =============================================================================
// ENVELOPE
// =============================================================================

// Message types the host may send.
const (
	TypePreviewProject = "preview-project"
	TypeChangeTheme    = "changeTheme"
	TypePageURL        = "page_url"
	TypeFocus          = "focus"
)

// Message types the widget sends.
const (
	TypeReady      = "ready"
	TypeGetPageURL = "get_page_url"
)

// PageURLPollInterval is how often the widget asks the host for its
// current page URL.
const PageURLPollInterval = 3 * time.Second

// Envelope is one framed bridge message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// frame is the wire wrapper that marks an envelope as ours.
type frame struct {
	SA *Envelope `json:"__SA"`
}

// =============================================================================
// PAYLOAD PARSERS
// =============================================================================

// ParseTheme extracts a theme name from a changeTheme payload.
// Anything but "light" or "dark" means automatic.
func ParseTheme(payload json.RawMessage) (string, bool) {
	var theme string
	if err := json.Unmarshal(payload, &theme); err != nil {
		return "", false
	}
	switch theme {
	case "light", "dark":
		return theme, true
	default:
		return "auto", true
	}
}

// ParsePageURL extracts the hosting page URL from a page_url payload.
func ParsePageURL(payload json.RawMessage) (string, bool) {
	var pageURL string
	if err := json.Unmarshal(payload, &pageURL); err != nil || pageURL == "" {
		return "", false
	}
	return pageURL, true
}

// ParsePreviewProject extracts the draft project configuration pushed
// by the dashboard's live preview.
func ParsePreviewProject(payload json.RawMessage) (*model.Project, bool) {
	var project model.Project
	if err := json.Unmarshal(payload, &project); err != nil {
		return nil, false
	}
	return &project, true
}

// =============================================================================
// BRIDGE
// =============================================================================

// Handler receives every valid inbound envelope, in arrival order.
type Handler func(Envelope)

// Bridge frames envelopes over a host pipe.
type Bridge struct {
	writer io.Writer
	reader *bufio.Scanner

	writeMu sync.Mutex
	handler Handler

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a bridge over the given pipe ends. The handler is called
// from the bridge's read goroutine once Start runs.
func New(r io.Reader, w io.Writer, handler Handler) *Bridge {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Bridge{
		writer:  w,
		reader:  scanner,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Start announces readiness, begins dispatching inbound envelopes and
// polls the host for its page URL until the context ends or the pipe
// closes.
func (b *Bridge) Start(ctx context.Context) {
	if err := b.Send(TypeReady, nil); err != nil {
		xlog.Debug("bridge ready announce failed", "error", err)
	}

	go b.pollPageURL(ctx)
	go b.readLoop(ctx)
}

// Done is closed when the inbound side of the pipe has ended.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Send frames and writes one outbound envelope.
func (b *Bridge) Send(msgType string, payload any) error {
	env := &Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		env.Payload = raw
	}

	data, err := json.Marshal(frame{SA: env})
	if err != nil {
		return err
	}
	data = append(data, '\n')

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	_, err = b.writer.Write(data)
	return err
}

func (b *Bridge) pollPageURL(ctx context.Context) {
	ticker := time.NewTicker(PageURLPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-ticker.C:
			if err := b.Send(TypeGetPageURL, nil); err != nil {
				xlog.Debug("page url poll failed", "error", err)
				return
			}
		}
	}
}

func (b *Bridge) readLoop(ctx context.Context) {
	defer b.closeOnce.Do(func() { close(b.done) })

	for b.reader.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := b.reader.Bytes()
		if len(line) == 0 {
			continue
		}

		var f frame
		if err := json.Unmarshal(line, &f); err != nil || f.SA == nil || f.SA.Type == "" {
			// Not ours, or malformed. Either way: ignore.
			continue
		}

		b.handler(*f.SA)
	}
}
