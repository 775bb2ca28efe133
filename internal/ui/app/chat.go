// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/time/rate"

	"github.com/siteassist/siteassist-widgets/internal/api"
	"github.com/siteassist/siteassist-widgets/internal/conversation"
	"github.com/siteassist/siteassist-widgets/internal/live"
	"github.com/siteassist/siteassist-widgets/internal/model"
	"github.com/siteassist/siteassist-widgets/internal/util"
)

// refreshInterval caps how often push events may trigger a snapshot
// refetch. Bursts of human-agent activity collapse into one refresh.
const refreshInterval = 2 * time.Second

// =============================================================================
// CHAT SCREEN
// =============================================================================

// chatModel is the conversation screen. It owns the reconciler, the
// live websocket channel and the in-flight streaming reply.
type chatModel struct {
	shared *Shared

	rec     *conversation.Reconciler
	channel *live.Channel

	// ctx spans the screen's lifetime; Teardown cancels it, releasing
	// the live channel and any in-flight stream.
	ctx    context.Context
	cancel context.CancelFunc

	// streamCh is the in-flight streaming reply, nil when idle.
	streamCh <-chan api.StreamChunk

	// refreshLimiter gates push-triggered snapshot refetches.
	refreshLimiter *rate.Limiter

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	liveDegraded bool
	loaded       bool
}

func newChat(shared *Shared, conversationID string, pending *model.PendingMessage, autoFocus bool) *chatModel {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 4000
	if autoFocus {
		input.Focus()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = shared.Theme.Spinner

	rec := conversation.NewReconciler(conversationID, shared.WelcomeMessage())
	if pending != nil {
		rec.SetPending(pending)
	}

	m := &chatModel{
		shared:         shared,
		rec:            rec,
		channel:        live.NewChannel(shared.LiveConfig(conversationID)),
		refreshLimiter: rate.NewLimiter(rate.Every(refreshInterval), 1),
		input:          input,
		spinner:        sp,
	}

	// Returning here resumes this conversation on the next start.
	_ = shared.Store.SetActiveConversationID(shared.Config.APIKey, conversationID)

	return m
}

func (m *chatModel) Init() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.ctx = ctx
	m.cancel = cancel
	m.channel.Start(ctx)

	return tea.Batch(
		LoadConversationCmd(m.shared.Client, m.rec.ConversationID(), false),
		PumpLiveCmd(m.channel),
		m.spinner.Tick,
		textinput.Blink,
	)
}

// Teardown stops the websocket channel when the screen is left.
func (m *chatModel) Teardown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.channel.Stop()
}

func (m *chatModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6

	headerHeight := 2
	footerHeight := 4
	if !m.ready {
		m.viewport = viewport.New(width, height-headerHeight-footerHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height - headerHeight - footerHeight
	}
	m.syncViewport()
}

func (m *chatModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.syncViewport()
		return cmd

	case ConversationLoadedMsg:
		return m.handleLoaded(msg)

	case SendDeliveredMsg:
		if msg.Err != nil {
			m.rec.MarkSendFailed(msg.MessageID, msg.Err)
			m.shared.Toasts.AddError("Message not delivered")
		} else {
			m.rec.MarkSendDelivered()
		}
		m.syncViewport()
		return nil

	case StreamChunkMsg:
		return m.handleStreamChunk(msg.Chunk)

	case LiveEventMsg:
		cmds := []tea.Cmd{PumpLiveCmd(m.channel)}
		if m.rec.ApplyPush(msg.Event) && m.refreshLimiter.Allow() {
			cmds = append(cmds, LoadConversationCmd(m.shared.Client, m.rec.ConversationID(), true))
		}
		m.syncViewport()
		return tea.Batch(cmds...)

	case FocusMsg:
		return m.input.Focus()

	case LiveClosedMsg:
		if msg.State == live.StateFailed {
			m.liveDegraded = true
		}
		return nil

	case ClosedMsg:
		if msg.Err != nil {
			m.shared.Toasts.AddError("Could not close the conversation")
			return nil
		}
		m.rec.ConfirmClose()
		_ = m.shared.Store.ClearActiveConversationID(m.shared.Config.APIKey)
		m.shared.Toasts.AddSuccess("Conversation closed")
		return func() tea.Msg {
			return NavigateMsg{Route: Route{Kind: RouteHome}, AutoFocus: true}
		}

	case FeedbackSettledMsg:
		if msg.Err != nil {
			m.rec.RevertFeedback(msg.MessageID, msg.Previous)
			m.shared.Toasts.AddError("Feedback not saved")
		} else {
			m.rec.ReconcileFeedback(msg.Server)
		}
		m.syncViewport()
		return nil
	}

	// Typed keys go to the input only; the viewport scrolls via the
	// keys intercepted in handleKey and via mouse events.
	var cmd tea.Cmd
	if _, isKey := msg.(tea.KeyMsg); isKey {
		m.input, cmd = m.input.Update(msg)
		return cmd
	}
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

func (m *chatModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "enter":
		return m.send(strings.TrimSpace(m.input.Value())), true

	case "esc":
		return NavigateCmd(Route{Kind: RouteHome}), true

	case "ctrl+l":
		return NavigateCmd(Route{Kind: RouteChats}), true

	case "ctrl+x":
		return m.close(), true

	case "ctrl+r":
		return m.retry(), true

	case "ctrl+k":
		return m.rate(model.FeedbackLike), true

	case "ctrl+j":
		return m.rate(model.FeedbackDislike), true

	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd, true
	}
	return nil, false
}

// handleLoaded folds a snapshot fetch into the reconciler and, on the
// first load, fires the queued pending message.
func (m *chatModel) handleLoaded(msg ConversationLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		if api.IsNotFound(msg.Err) {
			m.rec.ApplyNotFound()
			if m.rec.State() == conversation.SessionNotFound {
				_ = m.shared.Store.ClearActiveConversationID(m.shared.Config.APIKey)
				return NavigateCmd(Route{Kind: RouteNotFound})
			}
			return nil
		}
		if !msg.Refresh {
			m.shared.Toasts.AddError("Could not load the conversation")
		}
		return nil
	}

	m.rec.ApplySnapshot(msg.Conversation)
	m.syncViewport()

	var cmd tea.Cmd
	if !m.loaded {
		m.loaded = true
		if pending := m.rec.TakePending(); pending != nil {
			cmd = m.send(pending.Content)
		}
	}
	return cmd
}

// send runs the optimistic send flow: streaming against the assistant,
// plain REST when a human agent owns the conversation.
func (m *chatModel) send(content string) tea.Cmd {
	if content == "" || !m.rec.CanSend() {
		return nil
	}
	if m.shared.BlockMutation() {
		return nil
	}

	userMsg := m.rec.BeginSend(content)
	if userMsg == nil {
		return nil
	}
	m.input.SetValue("")

	pageURL := m.shared.CurrentPageURL()
	if m.rec.HumanHandled() {
		m.syncViewport()
		return SendRESTCmd(m.shared.Client, m.rec.ConversationID(), userMsg.ID, content, pageURL)
	}

	return m.startStream(content, pageURL)
}

func (m *chatModel) handleStreamChunk(chunk api.StreamChunk) tea.Cmd {
	if chunk.MessageID != "" {
		m.rec.AdoptStreamID(chunk.MessageID)
	}
	if chunk.Delta != "" {
		m.rec.ApplyStreamDelta(chunk.Delta)
	}

	if chunk.Error != nil {
		m.rec.FailStream(chunk.Error)
		m.streamCh = nil
		m.shared.Toasts.AddError("The reply was interrupted")
		m.syncViewport()
		return nil
	}
	if chunk.Done {
		m.rec.FinishStream()
		m.streamCh = nil
		m.syncViewport()
		return nil
	}

	m.syncViewport()
	return PumpStreamCmd(m.streamCh)
}

// retry recovers from a failed send or interrupted reply: a message
// that never reached the server is redelivered as-is; a delivered one
// gets a fresh reply stream. Partial tokens stay on screen.
func (m *chatModel) retry() tea.Cmd {
	if m.rec.Status() != conversation.StreamError {
		return nil
	}
	if m.shared.BlockMutation() {
		return nil
	}
	target := m.lastUserMessage()
	if target == nil {
		return nil
	}
	pageURL := m.shared.CurrentPageURL()

	if target.Error != "" {
		msg := m.rec.RetryDelivery(target.ID)
		if msg == nil {
			return nil
		}
		if m.rec.HumanHandled() {
			m.syncViewport()
			return SendRESTCmd(m.shared.Client, m.rec.ConversationID(), msg.ID, msg.Text(), pageURL)
		}
		return m.startStream(msg.Text(), pageURL)
	}

	m.rec.RetrySend()
	return m.startStream(target.Text(), pageURL)
}

func (m *chatModel) startStream(content, pageURL string) tea.Cmd {
	m.rec.BeginStream()
	cmd, ch := StartStreamCmd(m.ctx, m.shared.Client, m.rec.ConversationID(), content, pageURL)
	m.streamCh = ch
	m.syncViewport()
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *chatModel) lastUserMessage() *model.Message {
	msgs := m.rec.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleUser {
			return msgs[i]
		}
	}
	return nil
}

func (m *chatModel) close() tea.Cmd {
	if !m.rec.CanClose() {
		m.shared.Toasts.AddStatus("Wait for the reply to finish first")
		return nil
	}
	if m.shared.BlockMutation() {
		return nil
	}
	return CloseConversationCmd(m.shared.Client, m.rec.ConversationID())
}

// rate toggles feedback on the most recent assistant message.
func (m *chatModel) rate(rating model.Feedback) tea.Cmd {
	target := m.lastAssistantMessage()
	if target == nil {
		return nil
	}
	if m.shared.BlockMutation() {
		return nil
	}

	previous := target.Feedback
	next, ok := m.rec.ToggleFeedback(target.ID, rating)
	if !ok {
		return nil
	}
	m.syncViewport()
	return SendFeedbackCmd(m.shared.Client, target.ID, next, previous)
}

func (m *chatModel) lastAssistantMessage() *model.Message {
	msgs := m.rec.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAssistant && !msgs[i].HideActions && !msgs[i].IsStreaming() {
			return msgs[i]
		}
	}
	return nil
}

func (m *chatModel) syncViewport() {
	if !m.ready {
		return
	}
	renderer := m.shared.Renderer
	renderer.SetWidth(m.viewport.Width)

	var b strings.Builder
	b.WriteString(renderer.RenderAll(m.rec.Messages()))

	switch m.rec.Status() {
	case conversation.StreamSubmitted:
		b.WriteString("\n" + m.spinner.View() + " sending...")
	case conversation.StreamStreaming:
		b.WriteString("\n" + m.spinner.View())
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(b.String())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *chatModel) View() string {
	t := m.shared.Theme

	title := "Conversation"
	if m.rec.HumanHandled() {
		if snap := m.rec.Snapshot(); snap != nil && snap.HumanAgent != nil && snap.HumanAgent.Name != "" {
			title = "Chatting with " + snap.HumanAgent.Name
		} else {
			title = "Chatting with support"
		}
	}
	header := t.Header.Render(title)
	if m.liveDegraded {
		header += " " + t.LiveDegraded.Render("● live updates unavailable")
	}

	var body string
	switch m.rec.State() {
	case conversation.SessionLoading:
		body = "\n " + m.spinner.View() + " loading conversation..."
	default:
		body = m.viewport.View()
	}

	footer := m.input.View()
	help := "enter send · ctrl+k/ctrl+j rate · ctrl+x close · esc back"
	if m.rec.Status() == conversation.StreamError {
		help = "ctrl+r retry · " + help
	}
	if m.rec.State() == conversation.SessionClosed {
		closed := "This conversation is closed."
		if snap := m.rec.Snapshot(); snap != nil && snap.ClosedAt != nil {
			closed = "Closed " + util.RelativeTime(*snap.ClosedAt, time.Now()) + "."
		}
		footer = t.MutedText.Render(closed)
		help = "esc back · ctrl+l history"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		footer,
		t.HelpText.Render(help),
	)
}
