package sessionx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/sitepilot/pkg/ai/llm"
	"github.com/Abraxas-365/sitepilot/pkg/ai/llm/toolx"
	"github.com/Abraxas-365/sitepilot/pkg/streamx"
)

// scriptedReader replays fixed events; with block set it then hangs until
// the turn context is cancelled, like a stalled connection.
type scriptedReader struct {
	ctx    context.Context
	events []streamx.Event
	pos    int
	block  bool
	closed bool
}

func (r *scriptedReader) Next() (streamx.Event, error) {
	if r.pos < len(r.events) {
		ev := r.events[r.pos]
		r.pos++
		return ev, nil
	}
	if r.block {
		<-r.ctx.Done()
		return streamx.Event{}, r.ctx.Err()
	}
	return streamx.Event{}, io.EOF
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

type fakeTransport struct {
	mu        sync.Mutex
	readers   []*scriptedReader
	opened    int
	histories [][]llm.Message
	openErr   error
}

func (t *fakeTransport) Open(ctx context.Context, messages []llm.Message) (EventReader, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.openErr != nil {
		return nil, t.openErr
	}
	if t.opened >= len(t.readers) {
		return nil, errors.New("unexpected open")
	}

	history := make([]llm.Message, len(messages))
	copy(history, messages)
	t.histories = append(t.histories, history)

	reader := t.readers[t.opened]
	reader.ctx = ctx
	t.opened++
	return reader, nil
}

func noopHandler(ctx context.Context, args map[string]any) error {
	return nil
}

func assistantTurn(t *testing.T, s *Session) Turn {
	t.Helper()
	turns := s.Turns()
	if len(turns) < 2 {
		t.Fatalf("expected user + assistant turns, got %d", len(turns))
	}
	return turns[len(turns)-1]
}

func TestSendAppendsFrozenUserAndPlaceholder(t *testing.T) {
	transport := &fakeTransport{readers: []*scriptedReader{
		{block: true},
	}}
	s := NewSession(transport, toolx.NewRegistry())

	if err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	turns := s.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != llm.RoleUser || turns[0].Content != "hello" || turns[0].Streaming {
		t.Errorf("user turn = %+v", turns[0])
	}
	if turns[1].Role != llm.RoleAssistant || turns[1].Content != "" || !turns[1].Streaming {
		t.Errorf("assistant placeholder = %+v", turns[1])
	}

	s.Cancel()
}

func TestSendRejectsEmptyInput(t *testing.T) {
	s := NewSession(&fakeTransport{}, toolx.NewRegistry())
	if err := s.Send(context.Background(), "   "); err == nil {
		t.Error("expected empty input to be rejected")
	}
}

func TestTextDeltasAccumulateIncrementally(t *testing.T) {
	transport := &fakeTransport{readers: []*scriptedReader{
		{events: []streamx.Event{
			streamx.TextEvent("Hel"),
			streamx.TextEvent("lo."),
			streamx.DoneEvent(),
		}},
	}}

	var mu sync.Mutex
	var seen []string
	s := NewSession(transport, toolx.NewRegistry(), WithUpdateFunc(func(turn Turn) {
		if turn.Role == llm.RoleAssistant {
			mu.Lock()
			seen = append(seen, turn.Content)
			mu.Unlock()
		}
	}))

	s.Send(context.Background(), "hi")
	s.Wait()

	turn := assistantTurn(t, s)
	if turn.Content != "Hello." || turn.Streaming {
		t.Errorf("final assistant turn = %+v", turn)
	}

	mu.Lock()
	defer mu.Unlock()
	var sawPartial bool
	for _, content := range seen {
		if content == "Hel" {
			sawPartial = true
		}
	}
	if !sawPartial {
		t.Errorf("partial content never observable, updates: %v", seen)
	}
}

func TestTextWinsOverFallback(t *testing.T) {
	transport := &fakeTransport{readers: []*scriptedReader{
		{events: []streamx.Event{
			streamx.TextEvent("Taking you there."),
			streamx.ToolEvent("navigate_to", map[string]any{"url": "/x"}),
			streamx.DoneEvent(),
		}},
	}}

	reg := toolx.NewRegistry()
	reg.Register(toolx.Declaration{Name: "navigate_to"}, noopHandler)

	s := NewSession(transport, reg)
	s.Send(context.Background(), "go")
	s.Wait()

	turn := assistantTurn(t, s)
	if turn.Content != "Taking you there." {
		t.Errorf("content = %q, fallback must not replace model text", turn.Content)
	}
	if len(turn.Invocations) != 1 {
		t.Errorf("invocations = %+v", turn.Invocations)
	}
}

func TestFallbackSynthesisPerToolThenGeneric(t *testing.T) {
	transport := &fakeTransport{readers: []*scriptedReader{
		{events: []streamx.Event{
			streamx.ToolEvent("set_theme", map[string]any{"theme": "dark"}),
			streamx.ToolEvent("reticulate", nil),
			streamx.DoneEvent(),
		}},
	}}

	reg := toolx.NewRegistry()
	reg.Register(toolx.Declaration{Name: "set_theme"}, noopHandler)
	reg.Register(toolx.Declaration{Name: "reticulate"}, noopHandler)
	reg.RegisterFallback("set_theme", func(args map[string]any) string {
		return fmt.Sprintf("Switched to the %v theme.", args["theme"])
	})

	s := NewSession(transport, reg)
	s.Send(context.Background(), "dark mode please")
	s.Wait()

	turn := assistantTurn(t, s)
	want := "Switched to the dark theme. " + toolx.GenericFallback
	if turn.Content != want {
		t.Errorf("fallback content = %q, want %q", turn.Content, want)
	}
}

func TestDispatchExactlyOnceInEventOrder(t *testing.T) {
	transport := &fakeTransport{readers: []*scriptedReader{
		{events: []streamx.Event{
			streamx.ToolEvent("first", nil),
			streamx.ToolEvent("second", nil),
			streamx.DoneEvent(),
		}},
	}}

	var mu sync.Mutex
	var calls []string
	record := func(name string) toolx.Handler {
		return func(ctx context.Context, args map[string]any) error {
			mu.Lock()
			calls = append(calls, name)
			mu.Unlock()
			return nil
		}
	}

	reg := toolx.NewRegistry()
	reg.Register(toolx.Declaration{Name: "first"}, record("first"))
	reg.Register(toolx.Declaration{Name: "second"}, record("second"))

	s := NewSession(transport, reg)
	s.Send(context.Background(), "do both")
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("dispatch calls = %v, want [first second]", calls)
	}
}

func TestHandlerFailureDoesNotAbortTurn(t *testing.T) {
	transport := &fakeTransport{readers: []*scriptedReader{
		{events: []streamx.Event{
			streamx.ToolEvent("boom", nil),
			streamx.ToolEvent("after", nil),
			streamx.TextEvent("done anyway"),
			streamx.DoneEvent(),
		}},
	}}

	var afterCalled bool
	reg := toolx.NewRegistry()
	reg.Register(toolx.Declaration{Name: "boom"}, func(ctx context.Context, args map[string]any) error {
		panic("handler exploded")
	})
	reg.Register(toolx.Declaration{Name: "after"}, func(ctx context.Context, args map[string]any) error {
		afterCalled = true
		return nil
	})

	s := NewSession(transport, reg)
	s.Send(context.Background(), "go")
	s.Wait()

	if !afterCalled {
		t.Error("second handler not invoked after first failed")
	}
	turn := assistantTurn(t, s)
	if turn.Content != "done anyway" || turn.Streaming {
		t.Errorf("turn after handler failure = %+v", turn)
	}
}

func TestErrorEventShowsFailureMessage(t *testing.T) {
	transport := &fakeTransport{readers: []*scriptedReader{
		{events: []streamx.Event{
			streamx.TextEvent("partial answer"),
			streamx.ErrorEvent("upstream blew up"),
		}},
	}}

	s := NewSession(transport, toolx.NewRegistry())
	s.Send(context.Background(), "hi")
	s.Wait()

	turn := assistantTurn(t, s)
	if turn.Content != DefaultFailureMessage {
		t.Errorf("content = %q, want failure message", turn.Content)
	}
	if turn.Streaming {
		t.Error("turn still marked streaming after error")
	}
}

func TestResubmitCancelsPriorTurn(t *testing.T) {
	transport := &fakeTransport{readers: []*scriptedReader{
		{events: []streamx.Event{streamx.TextEvent("partial")}, block: true},
		{events: []streamx.Event{
			streamx.TextEvent("second answer"),
			streamx.DoneEvent(),
		}},
	}}

	updates := make(chan Turn, 64)
	s := NewSession(transport, toolx.NewRegistry(), WithUpdateFunc(func(turn Turn) {
		updates <- turn
	}))

	s.Send(context.Background(), "first question")

	// Wait until the first turn's partial text is visible.
	deadline := time.After(2 * time.Second)
	for {
		var turn Turn
		select {
		case turn = <-updates:
		case <-deadline:
			t.Fatal("never saw partial content from first turn")
		}
		if turn.Role == llm.RoleAssistant && turn.Content == "partial" {
			break
		}
	}

	s.Send(context.Background(), "second question")
	s.Wait()

	turns := s.Turns()
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(turns))
	}

	first := turns[1]
	if first.Content != "partial" {
		t.Errorf("cancelled turn content = %q, want the partial text kept", first.Content)
	}
	if first.Streaming {
		t.Error("cancelled turn still marked streaming")
	}

	second := turns[3]
	if second.Content != "second answer" || second.Streaming {
		t.Errorf("second turn = %+v", second)
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if transport.opened != 2 {
		t.Errorf("expected 2 transport opens, got %d", transport.opened)
	}
	if !transport.readers[0].closed {
		t.Error("first reader not closed on cancellation")
	}
}

func TestHistoryCarriesPriorTurns(t *testing.T) {
	transport := &fakeTransport{readers: []*scriptedReader{
		{events: []streamx.Event{streamx.TextEvent("answer one"), streamx.DoneEvent()}},
		{events: []streamx.Event{streamx.TextEvent("answer two"), streamx.DoneEvent()}},
	}}

	s := NewSession(transport, toolx.NewRegistry())
	s.Send(context.Background(), "one")
	s.Wait()
	s.Send(context.Background(), "two")
	s.Wait()

	transport.mu.Lock()
	defer transport.mu.Unlock()

	if len(transport.histories) != 2 {
		t.Fatalf("expected 2 histories, got %d", len(transport.histories))
	}
	if len(transport.histories[0]) != 1 {
		t.Errorf("first history = %+v", transport.histories[0])
	}
	second := transport.histories[1]
	if len(second) != 3 {
		t.Fatalf("second history = %+v", second)
	}
	if second[0].Content != "one" || second[1].Content != "answer one" || second[2].Content != "two" {
		t.Errorf("second history out of order: %+v", second)
	}
	if second[1].Role != llm.RoleAssistant {
		t.Errorf("expected assistant role, got %q", second[1].Role)
	}
}

func TestTransportOpenFailureFailsTurn(t *testing.T) {
	transport := &fakeTransport{openErr: errors.New("connection refused")}

	s := NewSession(transport, toolx.NewRegistry())
	s.Send(context.Background(), "hi")
	s.Wait()

	turn := assistantTurn(t, s)
	if turn.Content != DefaultFailureMessage || turn.Streaming {
		t.Errorf("turn after open failure = %+v", turn)
	}
}

func TestClearEmptiesTranscript(t *testing.T) {
	transport := &fakeTransport{readers: []*scriptedReader{
		{events: []streamx.Event{streamx.TextEvent("hi"), streamx.DoneEvent()}},
	}}

	s := NewSession(transport, toolx.NewRegistry())
	s.Send(context.Background(), "hello")
	s.Wait()
	s.Clear()

	if turns := s.Turns(); len(turns) != 0 {
		t.Errorf("expected empty transcript, got %d turns", len(turns))
	}
}

func TestHTTPTransportRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("X-Session-ID"); got != "abc" {
			t.Errorf("session header = %q", got)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"text\",\"content\":\"hi\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"done\"}\n\n")
	}))
	defer server.Close()

	transport := &HTTPTransport{
		URL:    server.URL,
		Header: http.Header{"X-Session-ID": []string{"abc"}},
	}

	reader, err := transport.Open(context.Background(), []llm.Message{llm.NewUserMessage("hey")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer reader.Close()

	ev, err := reader.Next()
	if err != nil || ev.Type != streamx.EventText || ev.Content != "hi" {
		t.Fatalf("first event = %+v, %v", ev, err)
	}
	ev, err = reader.Next()
	if err != nil || ev.Type != streamx.EventDone {
		t.Fatalf("second event = %+v, %v", ev, err)
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestHTTPTransportNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"CHAT_MISSING_API_KEY"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	transport := &HTTPTransport{URL: server.URL}
	if _, err := transport.Open(context.Background(), nil); err == nil {
		t.Error("expected non-200 to fail")
	}
}
