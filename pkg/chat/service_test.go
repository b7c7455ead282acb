package chat

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Abraxas-365/sitepilot/pkg/ai/llm"
	"github.com/Abraxas-365/sitepilot/pkg/history"
)

type scriptedStream struct {
	chunks []llm.Chunk
	pos    int
}

func (s *scriptedStream) Next() (llm.Chunk, error) {
	if s.pos < len(s.chunks) {
		chunk := s.chunks[s.pos]
		s.pos++
		return chunk, nil
	}
	return llm.Chunk{}, io.EOF
}

func (s *scriptedStream) Close() error { return nil }

func TestStreamTurnWritesSSEAndArchives(t *testing.T) {
	stream := &scriptedStream{chunks: []llm.Chunk{
		{Content: "Hello "},
		{Content: "there."},
		{ToolCallDeltas: []llm.ToolCallDelta{
			{Index: 0, Name: "navigate_to", Arguments: `{"url":"/x"}`},
		}},
	}}

	store := history.NewMemoryStore(0)
	svc := NewService(nil, WithHistoryStore(store))

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	svc.streamTurn(context.Background(), stream, w, "sess-1", "take me to x")

	out := buf.String()
	wantLines := []string{
		`data: {"type":"text","content":"Hello "}`,
		`data: {"type":"text","content":"there."}`,
		`data: {"type":"tool","name":"navigate_to","args":{"url":"/x"}}`,
		`data: {"type":"done"}`,
	}
	for _, line := range wantLines {
		if !strings.Contains(out, line+"\n\n") {
			t.Errorf("output missing framed line %q\ngot: %q", line, out)
		}
	}
	if strings.Index(out, `"type":"done"`) < strings.Index(out, `"type":"tool"`) {
		t.Error("done emitted before tool event")
	}

	entries, err := store.List(context.Background(), "sess-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected user + assistant entries, got %d", len(entries))
	}
	if entries[0].Role != llm.RoleUser || entries[0].Content != "take me to x" {
		t.Errorf("user entry = %+v", entries[0])
	}
	if entries[1].Role != llm.RoleAssistant || entries[1].Content != "Hello there." {
		t.Errorf("assistant entry = %+v", entries[1])
	}
	if len(entries[1].Tools) != 1 || entries[1].Tools[0] != "navigate_to" {
		t.Errorf("assistant tools = %v", entries[1].Tools)
	}
}

func TestStreamTurnSkipsArchiveWithoutSession(t *testing.T) {
	stream := &scriptedStream{chunks: []llm.Chunk{{Content: "hi"}}}
	store := history.NewMemoryStore(0)
	svc := NewService(nil, WithHistoryStore(store))

	var buf bytes.Buffer
	svc.streamTurn(context.Background(), stream, bufio.NewWriter(&buf), "", "hello")

	entries, _ := store.List(context.Background(), "", 0)
	if len(entries) != 0 {
		t.Errorf("expected no archive without session header, got %+v", entries)
	}
}
