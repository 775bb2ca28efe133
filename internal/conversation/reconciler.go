// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"time"

	"github.com/siteassist/siteassist-widgets/internal/model"
)

// =============================================================================
// SESSION STATES
// =============================================================================

// SessionState is the client's view of one conversation session.
type SessionState int

const (
	// SessionLoading means the first snapshot fetch is outstanding.
	SessionLoading SessionState = iota

	// SessionReadyAI means an open conversation handled by the AI.
	SessionReadyAI

	// SessionReadyHuman means a human agent handles the conversation;
	// sends go over plain REST and replies arrive as push events.
	SessionReadyHuman

	// SessionNotFound means the snapshot fetch failed. Recoverable by
	// an explicit retry only.
	SessionNotFound

	// SessionClosed means the conversation is closed. History stays
	// viewable, sending is disabled.
	SessionClosed
)

// String returns a human-readable state name.
func (s SessionState) String() string {
	switch s {
	case SessionLoading:
		return "loading"
	case SessionReadyAI:
		return "ready-ai"
	case SessionReadyHuman:
		return "ready-human"
	case SessionNotFound:
		return "not-found"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StreamStatus is the state of the send pipeline.
type StreamStatus int

const (
	// StreamReady means no send is in flight.
	StreamReady StreamStatus = iota

	// StreamSubmitted means a send was issued and no reply token has
	// arrived yet.
	StreamSubmitted

	// StreamStreaming means assistant tokens are arriving.
	StreamStreaming

	// StreamError means the last send or stream failed; the visitor
	// may retry explicitly.
	StreamError
)

// String returns a human-readable status name.
func (s StreamStatus) String() string {
	switch s {
	case StreamReady:
		return "ready"
	case StreamSubmitted:
		return "submitted"
	case StreamStreaming:
		return "streaming"
	case StreamError:
		return "error"
	default:
		return "unknown"
	}
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler merges the REST snapshot, the streaming send pipeline and
// live push events into one display list for a single conversation.
//
// Not safe for concurrent use: all inputs arrive on the UI event loop.
type Reconciler struct {
	conversationID string

	// welcome is a synthetic greeting shown before the history. Never
	// part of snapshot or stream.
	welcome *model.Message

	// snapshot is the last authoritative REST state.
	snapshot *model.Conversation

	// stream is the display list for AI-handled sessions. Seeded from
	// the first snapshot, then owned by the send pipeline and push
	// upserts.
	stream []*model.Message

	// index maps message id to its position in stream. Keeps push
	// upserts O(1) and replays idempotent.
	index map[string]int

	state  SessionState
	status StreamStatus
	err    error

	pending     *model.PendingMessage
	pendingSent bool
}

// NewReconciler creates a reconciler in the loading state.
func NewReconciler(conversationID string, welcome *model.Message) *Reconciler {
	return &Reconciler{
		conversationID: conversationID,
		welcome:        welcome,
		index:          make(map[string]int),
		state:          SessionLoading,
		status:         StreamReady,
	}
}

// ConversationID returns the id this reconciler is bound to.
func (r *Reconciler) ConversationID() string {
	return r.conversationID
}

// State returns the session state.
func (r *Reconciler) State() SessionState {
	return r.state
}

// Status returns the send-pipeline status.
func (r *Reconciler) Status() StreamStatus {
	return r.status
}

// Err returns the last send or stream failure, if the pipeline is in
// the error state.
func (r *Reconciler) Err() error {
	return r.err
}

// Snapshot returns the last authoritative conversation state, or nil
// before the first fetch succeeds.
func (r *Reconciler) Snapshot() *model.Conversation {
	return r.snapshot
}

// HumanHandled reports whether a human agent owns the conversation.
func (r *Reconciler) HumanHandled() bool {
	return r.snapshot != nil && r.snapshot.IsHumanHandled
}

// =============================================================================
// SNAPSHOT INPUT
// =============================================================================

// ApplySnapshot installs an authoritative REST snapshot. The first
// snapshot seeds the streaming list; later refreshes only replace the
// snapshot, so in-flight optimistic sends and streamed tokens survive
// a refresh untouched.
func (r *Reconciler) ApplySnapshot(conv *model.Conversation) {
	seed := r.snapshot == nil
	r.snapshot = conv

	if seed {
		r.stream = make([]*model.Message, 0, len(conv.Messages))
		for _, msg := range conv.Messages {
			r.appendStream(msg)
		}
	}

	switch {
	case conv.IsClosed():
		r.state = SessionClosed
	case conv.IsHumanHandled:
		r.state = SessionReadyHuman
	default:
		r.state = SessionReadyAI
	}
}

// ApplyNotFound records a failed snapshot fetch. The screen offers a
// manual retry; nothing is retried automatically.
func (r *Reconciler) ApplyNotFound() {
	if r.snapshot != nil {
		// A refresh failure never regresses an established session.
		return
	}
	r.state = SessionNotFound
}

// =============================================================================
// SEND PIPELINE INPUT
// =============================================================================

// BeginSend appends an optimistic user message and marks the pipeline
// submitted. The message lands in both the stream and the snapshot so
// human-handled sessions show it too. Returns nil when sending is not
// allowed in the current state.
func (r *Reconciler) BeginSend(content string) *model.Message {
	if !r.CanSend() {
		return nil
	}

	msg := model.NewUserMessage(content)
	msg.ChatID = r.conversationID
	r.appendStream(msg)
	if r.snapshot != nil {
		r.snapshot.Messages = append(r.snapshot.Messages, msg)
	}

	r.status = StreamSubmitted
	r.err = nil
	return msg
}

// MarkSendFailed records a failed send on the optimistic message. The
// message stays in the list with its error set; it is never dropped.
func (r *Reconciler) MarkSendFailed(messageID string, err error) {
	if msg := r.messageByID(messageID); msg != nil {
		msg.Error = err.Error()
	}
	r.status = StreamError
	r.err = err
}

// MarkSendDelivered settles a plain REST send (human-handled path).
// The reply arrives later as a push event.
func (r *Reconciler) MarkSendDelivered() {
	if r.status == StreamSubmitted {
		r.status = StreamReady
	}
}

// BeginStream appends the in-progress assistant message that will
// accumulate tokens.
func (r *Reconciler) BeginStream() *model.Message {
	msg := model.NewStreamingAssistantMessage()
	msg.ChatID = r.conversationID
	r.appendStream(msg)
	r.status = StreamStreaming
	return msg
}

// ApplyStreamDelta appends a token fragment to the in-progress
// assistant message. Fragments arriving after the stream settled are
// dropped.
func (r *Reconciler) ApplyStreamDelta(delta string) {
	if r.status != StreamStreaming || len(r.stream) == 0 {
		return
	}
	last := r.stream[len(r.stream)-1]
	if !last.IsStreaming() {
		return
	}
	last.AppendText(delta)
}

// AdoptStreamID rebinds the in-progress assistant message to the
// server-assigned id once the stream announces one.
func (r *Reconciler) AdoptStreamID(serverID string) {
	if serverID == "" || len(r.stream) == 0 {
		return
	}
	last := r.stream[len(r.stream)-1]
	if !last.IsStreaming() || last.ID == serverID {
		return
	}
	delete(r.index, last.ID)
	last.ID = serverID
	r.index[serverID] = len(r.stream) - 1
}

// FinishStream finalizes the in-progress assistant message and returns
// the pipeline to ready.
func (r *Reconciler) FinishStream() {
	if len(r.stream) > 0 {
		if last := r.stream[len(r.stream)-1]; last.IsStreaming() {
			last.Finalize()
		}
	}
	if r.status == StreamStreaming || r.status == StreamSubmitted {
		r.status = StreamReady
	}
}

// FailStream records a streaming failure. Tokens already shown stay in
// place; the visitor may regenerate explicitly.
func (r *Reconciler) FailStream(err error) {
	if len(r.stream) > 0 {
		if last := r.stream[len(r.stream)-1]; last.IsStreaming() {
			last.Finalize()
			last.Error = err.Error()
		}
	}
	r.status = StreamError
	r.err = err
}

// =============================================================================
// PUSH INPUT
// =============================================================================

// ApplyPush feeds one live-update event in. The returned flag asks the
// caller to refetch the authoritative snapshot; handoff is learned only
// from the snapshot, never synthesized locally.
func (r *Reconciler) ApplyPush(event model.LiveEvent) (refresh bool) {
	if event.ChatID != "" && event.ChatID != r.conversationID {
		return false
	}

	switch event.Type {
	case model.LiveNewMessage:
		if event.Message == nil || event.Message.ID == "" {
			return false
		}
		r.upsertStream(event.Message)
		// A human-agent interjection implies server-side state the
		// push alone does not carry (handoff, agent identity).
		return event.Message.Role == model.RoleHumanAgent

	case model.LiveHumanAssigned:
		return true

	default:
		return false
	}
}

// =============================================================================
// FEEDBACK
// =============================================================================

// ToggleFeedback applies an optimistic rating and returns the value to
// send: clicking the current rating again clears it.
func (r *Reconciler) ToggleFeedback(messageID string, rating model.Feedback) (model.Feedback, bool) {
	msg := r.messageByID(messageID)
	if msg == nil {
		return model.FeedbackNone, false
	}

	next := rating
	if msg.Feedback == rating {
		next = model.FeedbackNone
	}
	msg.Feedback = next
	now := time.Now()
	msg.FeedbackAt = &now
	return next, true
}

// ReconcileFeedback settles optimistic feedback against the server's
// returned message.
func (r *Reconciler) ReconcileFeedback(server *model.Message) {
	if server == nil {
		return
	}
	if msg := r.messageByID(server.ID); msg != nil {
		msg.Feedback = server.Feedback
		msg.FeedbackAt = server.FeedbackAt
	}
}

// RevertFeedback restores a rating after a failed feedback call.
func (r *Reconciler) RevertFeedback(messageID string, previous model.Feedback) {
	if msg := r.messageByID(messageID); msg != nil {
		msg.Feedback = previous
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// CanSend reports whether a new send may start.
func (r *Reconciler) CanSend() bool {
	if r.state == SessionClosed || r.state == SessionNotFound || r.state == SessionLoading {
		return false
	}
	return r.status != StreamSubmitted && r.status != StreamStreaming
}

// CanClose reports whether the conversation may be closed now. Closing
// is disallowed while a send is in flight.
func (r *Reconciler) CanClose() bool {
	if r.state != SessionReadyAI && r.state != SessionReadyHuman {
		return false
	}
	return r.status != StreamSubmitted && r.status != StreamStreaming
}

// ConfirmClose records a server-confirmed closure. Terminal for
// sending; messages remain viewable.
func (r *Reconciler) ConfirmClose() {
	r.state = SessionClosed
	if r.snapshot != nil {
		r.snapshot.Status = model.ConversationClosed
		now := time.Now()
		r.snapshot.ClosedAt = &now
	}
}

// RetrySend re-arms the pipeline after an error so the visitor can
// regenerate.
func (r *Reconciler) RetrySend() {
	if r.status == StreamError {
		r.status = StreamReady
		r.err = nil
	}
}

// RetryDelivery re-arms a failed user message for another delivery
// attempt. The message keeps its place in the list.
func (r *Reconciler) RetryDelivery(messageID string) *model.Message {
	if r.status != StreamError {
		return nil
	}
	msg := r.messageByID(messageID)
	if msg == nil || msg.Error == "" {
		return nil
	}
	msg.Error = ""
	r.status = StreamSubmitted
	r.err = nil
	return msg
}

// =============================================================================
// PENDING MESSAGE
// =============================================================================

// SetPending queues the first message of a brand-new conversation,
// composed before the server id existed.
func (r *Reconciler) SetPending(p *model.PendingMessage) {
	r.pending = p
}

// TakePending hands the queued first message out exactly once. Later
// calls return nil regardless of how often the screen remounts.
func (r *Reconciler) TakePending() *model.PendingMessage {
	if r.pending == nil || r.pendingSent {
		return nil
	}
	r.pendingSent = true
	return r.pending
}

// =============================================================================
// DISPLAY LIST
// =============================================================================

// Messages returns the display list: the welcome greeting, then the
// stream list, or the snapshot's list when a human agent handles the
// conversation.
func (r *Reconciler) Messages() []*model.Message {
	var source []*model.Message
	if r.HumanHandled() {
		source = r.snapshot.Messages
	} else {
		source = r.stream
	}

	if r.welcome == nil {
		return source
	}
	out := make([]*model.Message, 0, len(source)+1)
	out = append(out, r.welcome)
	return append(out, source...)
}

// Len returns the display list length, welcome excluded.
func (r *Reconciler) Len() int {
	if r.HumanHandled() {
		return len(r.snapshot.Messages)
	}
	return len(r.stream)
}

// =============================================================================
// INTERNALS
// =============================================================================

// appendStream adds a message to the stream list, replacing in place
// when the id is already present.
func (r *Reconciler) appendStream(msg *model.Message) {
	if i, ok := r.index[msg.ID]; ok {
		r.stream[i] = msg
		return
	}
	r.index[msg.ID] = len(r.stream)
	r.stream = append(r.stream, msg)
}

// upsertStream applies a pushed message: replace by id when known,
// append otherwise. Unaffected entries keep their identity so the
// renderer never repaints them.
func (r *Reconciler) upsertStream(msg *model.Message) {
	r.appendStream(msg)
	if r.snapshot == nil {
		return
	}
	for i, existing := range r.snapshot.Messages {
		if existing.ID == msg.ID {
			r.snapshot.Messages[i] = msg
			return
		}
	}
	r.snapshot.Messages = append(r.snapshot.Messages, msg)
}

// messageByID looks a message up in the stream list, falling back to
// the snapshot for human-handled sessions.
func (r *Reconciler) messageByID(id string) *model.Message {
	if i, ok := r.index[id]; ok {
		return r.stream[i]
	}
	if r.snapshot != nil {
		return r.snapshot.MessageByID(id)
	}
	return nil
}
