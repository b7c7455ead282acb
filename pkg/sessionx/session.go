package sessionx

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/Abraxas-365/sitepilot/pkg/ai/llm"
	"github.com/Abraxas-365/sitepilot/pkg/ai/llm/toolx"
	"github.com/Abraxas-365/sitepilot/pkg/errx"
	"github.com/Abraxas-365/sitepilot/pkg/logx"
	"github.com/Abraxas-365/sitepilot/pkg/streamx"
)

// DefaultFailureMessage replaces the assistant turn's content when the
// stream reports an error.
const DefaultFailureMessage = "Sorry, something went wrong. Please try again."

// Session assembles the normalized event stream into an observable
// transcript and drives tool side effects. At most one turn streams at a
// time: submitting while a turn is open cancels the prior read first.
type Session struct {
	transport Transport
	tools     *toolx.Registry

	mu     sync.Mutex
	turns  []Turn
	cancel context.CancelFunc
	done   chan struct{}

	onUpdate       func(Turn)
	failureMessage string
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithUpdateFunc registers a callback fired with a snapshot of a turn
// every time it changes. Supports live rendering of streaming content.
func WithUpdateFunc(fn func(Turn)) SessionOption {
	return func(s *Session) {
		s.onUpdate = fn
	}
}

// WithFailureMessage overrides the transcript text shown on error events
func WithFailureMessage(msg string) SessionOption {
	return func(s *Session) {
		if msg != "" {
			s.failureMessage = msg
		}
	}
}

// NewSession creates a session over one transport and tool registry
func NewSession(transport Transport, tools *toolx.Registry, opts ...SessionOption) *Session {
	s := &Session{
		transport:      transport,
		tools:          tools,
		failureMessage: DefaultFailureMessage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send submits user input: the user turn is appended frozen, an assistant
// placeholder starts streaming, and the full history is sent over the
// transport. If a prior turn is still streaming it is cancelled first; its
// partial content stays as-is. Send returns once the new turn is started;
// consumption continues in the background until the terminal event.
func (s *Session) Send(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return errorRegistry.New(ErrEmptyInput)
	}

	s.Cancel()

	s.mu.Lock()
	user := newUserTurn(content)
	assistant := newAssistantPlaceholder()
	s.turns = append(s.turns, user, assistant)
	history := s.historyLocked()

	turnCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.notify(user)
	s.notify(assistant)

	go s.consume(turnCtx, cancel, done, history, assistant.ID)
	return nil
}

// Cancel aborts the in-flight turn, if any, and waits for its consumer to
// stop. The cancelled turn keeps whatever content had streamed.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Turns returns a snapshot of the transcript
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// Clear cancels any in-flight turn and empties the transcript
func (s *Session) Clear() {
	s.Cancel()

	s.mu.Lock()
	s.turns = nil
	s.mu.Unlock()
}

// Wait blocks until the current turn, if any, has terminated
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (s *Session) consume(ctx context.Context, cancel context.CancelFunc, done chan struct{}, history []llm.Message, turnID string) {
	defer close(done)
	defer cancel()
	defer s.stopStreaming(turnID)

	reader, err := s.transport.Open(ctx, history)
	if err != nil {
		logx.WithError(err).Error("failed to open chat stream")
		s.failTurn(turnID)
		return
	}
	defer reader.Close()

	var invocations []Invocation

	for {
		ev, err := reader.Next()
		if err != nil {
			if ctx.Err() != nil {
				// Cancelled: partial content stays, no failure text.
				return
			}
			if !errx.Is(err, io.EOF) {
				logx.WithError(err).Warn("chat stream read failed")
				s.failTurn(turnID)
			}
			return
		}

		switch ev.Type {
		case streamx.EventText:
			s.appendContent(turnID, ev.Content)

		case streamx.EventTool:
			invocations = append(invocations, Invocation{Name: ev.Name, Args: ev.Args})
			if err := s.tools.Dispatch(ctx, ev.Name, ev.Args); err != nil {
				logx.WithField("tool", ev.Name).
					WithError(err).
					Warn("tool handler failed")
			}

		case streamx.EventDone:
			s.completeTurn(turnID, invocations)
			return

		case streamx.EventError:
			logx.WithField("message", ev.Message).Warn("chat stream reported an error")
			s.failTurn(turnID)
			return
		}
	}
}

// historyLocked converts completed turns to provider messages, skipping
// the streaming placeholder and empty assistant turns.
func (s *Session) historyLocked() []llm.Message {
	messages := make([]llm.Message, 0, len(s.turns))
	for _, turn := range s.turns {
		if turn.Streaming || turn.Content == "" {
			continue
		}
		messages = append(messages, llm.Message{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	return messages
}

func (s *Session) appendContent(turnID, delta string) {
	s.mu.Lock()
	turn := s.findLocked(turnID)
	if turn == nil {
		s.mu.Unlock()
		return
	}
	turn.Content += delta
	snapshot := *turn
	s.mu.Unlock()

	s.notify(snapshot)
}

// completeTurn freezes the invocation list and, when the model sent no
// text at all, synthesizes the fallback content: one fragment per
// invocation in event order, space-joined.
func (s *Session) completeTurn(turnID string, invocations []Invocation) {
	s.mu.Lock()
	turn := s.findLocked(turnID)
	if turn == nil {
		s.mu.Unlock()
		return
	}

	turn.Invocations = invocations
	if turn.Content == "" && len(invocations) > 0 {
		fragments := make([]string, 0, len(invocations))
		for _, inv := range invocations {
			fragments = append(fragments, s.tools.Describe(inv.Name, inv.Args))
		}
		turn.Content = strings.Join(fragments, " ")
	}
	turn.Streaming = false
	snapshot := *turn
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *Session) failTurn(turnID string) {
	s.mu.Lock()
	turn := s.findLocked(turnID)
	if turn == nil || !turn.Streaming {
		s.mu.Unlock()
		return
	}
	turn.Content = s.failureMessage
	turn.Streaming = false
	snapshot := *turn
	s.mu.Unlock()

	s.notify(snapshot)
}

// stopStreaming clears the streaming flag without touching content; the
// cancellation path ends here with whatever had streamed.
func (s *Session) stopStreaming(turnID string) {
	s.mu.Lock()
	turn := s.findLocked(turnID)
	if turn == nil || !turn.Streaming {
		s.mu.Unlock()
		return
	}
	turn.Streaming = false
	snapshot := *turn
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *Session) findLocked(turnID string) *Turn {
	for i := range s.turns {
		if s.turns[i].ID == turnID {
			return &s.turns[i]
		}
	}
	return nil
}

func (s *Session) notify(turn Turn) {
	if s.onUpdate != nil {
		s.onUpdate(turn)
	}
}
