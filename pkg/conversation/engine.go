package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

var (
	ErrEmptyMessage  = errors.New("conversation: empty message")
	ErrAwaitingReply = errors.New("conversation: a reply is still pending")
	ErrClosed        = errors.New("conversation: engine closed")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is what a Replier receives for one user turn.
type Request struct {
	Text          string
	CorrelationID string
}

// Reply is a settled answer. ActionPerformed is nil when the backend did not
// say whether the turn changed anything.
type Reply struct {
	Text            string
	ActionPerformed *bool
}

// Replier produces the agent side of a turn.
type Replier interface {
	Reply(ctx context.Context, req Request) (Reply, error)
}

type ReplierFunc func(ctx context.Context, req Request) (Reply, error)

func (f ReplierFunc) Reply(ctx context.Context, req Request) (Reply, error) {
	return f(ctx, req)
}

// Settled is handed to the OnReply hook after each turn.
type Settled struct {
	CorrelationID string
	UserText      string
	Reply         Reply
	Err           error
}

type Options struct {
	// Greeting is the first agent message, if any.
	Greeting string
	// Fallback replaces the reply when the request fails.
	Fallback string
	OnReply  func(Settled)
}

// Snapshot is a copy of the engine state for rendering.
type Snapshot struct {
	CorrelationID string    `json:"session_id"`
	Messages      []Message `json:"messages"`
	AwaitingReply bool      `json:"awaiting_reply"`
}

// Engine is an append-only message log with at most one request in flight.
type Engine struct {
	mu            sync.Mutex
	replier       Replier
	opts          Options
	correlationID string
	log           []Message
	awaitingReply bool
	closed        bool
}

func New(replier Replier, opts Options) *Engine {
	e := &Engine{
		replier:       replier,
		opts:          opts,
		correlationID: "session-" + uuid.NewString(),
	}
	if opts.Greeting != "" {
		e.log = append(e.log, Message{Role: RoleAgent, Content: opts.Greeting})
	}
	return e
}

func (e *Engine) CorrelationID() string {
	return e.correlationID
}

// Send runs one turn: it appends the user message, waits for the replier and
// appends exactly one agent message, the fallback on failure. Blank input and
// input while a reply is pending are rejected without touching the log.
func (e *Engine) Send(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Message{}, ErrClosed
	}
	if e.awaitingReply {
		e.mu.Unlock()
		return Message{}, ErrAwaitingReply
	}
	e.log = append(e.log, Message{Role: RoleUser, Content: text})
	e.awaitingReply = true
	e.mu.Unlock()

	reply, err := e.replier.Reply(ctx, Request{Text: text, CorrelationID: e.correlationID})

	content := reply.Text
	if err != nil || strings.TrimSpace(content) == "" {
		content = e.opts.Fallback
	}
	msg := Message{Role: RoleAgent, Content: content}

	e.mu.Lock()
	e.awaitingReply = false
	if e.closed {
		e.mu.Unlock()
		return Message{}, ErrClosed
	}
	e.log = append(e.log, msg)
	e.mu.Unlock()

	if e.opts.OnReply != nil {
		e.opts.OnReply(Settled{CorrelationID: e.correlationID, UserText: text, Reply: reply, Err: err})
	}
	return msg, err
}

// Note appends an agent message outside of a turn, e.g. a closing notice.
func (e *Engine) Note(content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.awaitingReply {
		return ErrAwaitingReply
	}
	e.log = append(e.log, Message{Role: RoleAgent, Content: content})
	return nil
}

// Close marks the engine dead. A reply settling afterwards is dropped.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	msgs := make([]Message, len(e.log))
	copy(msgs, e.log)
	return Snapshot{
		CorrelationID: e.correlationID,
		Messages:      msgs,
		AwaitingReply: e.awaitingReply,
	}
}
