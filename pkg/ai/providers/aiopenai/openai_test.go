package aiopenai

import (
	"encoding/json"
	"testing"

	"github.com/openai/openai-go/v3"
)

func decodeChunk(t *testing.T, payload string) openai.ChatCompletionChunk {
	t.Helper()
	var chunk openai.ChatCompletionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		t.Fatalf("unmarshal chunk: %v", err)
	}
	return chunk
}

func TestConvertChunkTextDelta(t *testing.T) {
	chunk := decodeChunk(t, `{"choices":[{"delta":{"content":"Hello"}}]}`)

	out := convertChunk(chunk)
	if out.Content != "Hello" {
		t.Errorf("Content = %q, want %q", out.Content, "Hello")
	}
	if len(out.ToolCallDeltas) != 0 {
		t.Errorf("unexpected tool deltas: %+v", out.ToolCallDeltas)
	}
}

func TestConvertChunkToolCallFragments(t *testing.T) {
	chunk := decodeChunk(t, `{"choices":[{"delta":{"tool_calls":[
		{"index":0,"id":"call_1","function":{"name":"navigate_to","arguments":"{\"ur"}},
		{"index":1,"function":{"arguments":"l\":\"/x\"}"}}
	]}}]}`)

	out := convertChunk(chunk)
	if len(out.ToolCallDeltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d", len(out.ToolCallDeltas))
	}

	first := out.ToolCallDeltas[0]
	if first.Index != 0 || first.ID != "call_1" || first.Name != "navigate_to" {
		t.Errorf("first delta = %+v", first)
	}
	if first.Arguments != `{"ur` {
		t.Errorf("first arguments = %q", first.Arguments)
	}

	second := out.ToolCallDeltas[1]
	if second.Index != 1 || second.Name != "" {
		t.Errorf("second delta = %+v", second)
	}
	if second.Arguments != `l":"/x"}` {
		t.Errorf("second arguments = %q", second.Arguments)
	}
}

func TestConvertChunkEmptyChoices(t *testing.T) {
	out := convertChunk(openai.ChatCompletionChunk{})
	if out.Content != "" || len(out.ToolCallDeltas) != 0 {
		t.Errorf("expected zero chunk, got %+v", out)
	}
}
