package streamx

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestEventWireShapes(t *testing.T) {
	cases := []struct {
		event Event
		want  string
	}{
		{TextEvent("hello"), `{"type":"text","content":"hello"}`},
		{ToolEvent("navigate_to", map[string]any{"url": "/x"}), `{"type":"tool","name":"navigate_to","args":{"url":"/x"}}`},
		{ToolEvent("noargs", nil), `{"type":"tool","name":"noargs","args":{}}`},
		{DoneEvent(), `{"type":"done"}`},
		{ErrorEvent("boom"), `{"type":"error","message":"boom"}`},
	}

	for _, tc := range cases {
		data, err := json.Marshal(tc.event)
		if err != nil {
			t.Fatalf("marshal %v: %v", tc.event.Type, err)
		}
		if string(data) != tc.want {
			t.Errorf("marshal %v = %s, want %s", tc.event.Type, data, tc.want)
		}

		var back Event
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back.Type != tc.event.Type {
			t.Errorf("round-trip type = %v, want %v", back.Type, tc.event.Type)
		}
	}
}

func TestEventUnmarshalRejectsUnknownType(t *testing.T) {
	var ev Event
	if err := json.Unmarshal([]byte(`{"type":"mystery"}`), &ev); err == nil {
		t.Error("expected unknown type to fail")
	}
	if err := json.Unmarshal([]byte(`not json`), &ev); err == nil {
		t.Error("expected invalid JSON to fail")
	}
}

func TestSSEWriterFraming(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	sse := NewSSEWriter(w)

	if err := sse.WriteEvent(TextEvent("hi")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sse.WriteEvent(DoneEvent()); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := "data: {\"type\":\"text\",\"content\":\"hi\"}\n\ndata: {\"type\":\"done\"}\n\n"
	if buf.String() != want {
		t.Errorf("framing = %q, want %q", buf.String(), want)
	}
}

func TestSSEReaderParsesStream(t *testing.T) {
	input := strings.Join([]string{
		"data: {\"type\":\"text\",\"content\":\"a\"}",
		"",
		"data: {\"type\":\"tool\",\"name\":\"nav\",\"args\":{\"url\":\"/x\"}}",
		"",
		"data: {\"type\":\"done\"}",
		"",
	}, "\n")

	r := NewSSEReader(strings.NewReader(input))

	ev, err := r.Next()
	if err != nil || ev.Type != EventText || ev.Content != "a" {
		t.Fatalf("first event = %+v, %v", ev, err)
	}

	ev, err = r.Next()
	if err != nil || ev.Type != EventTool || ev.Name != "nav" || ev.Args["url"] != "/x" {
		t.Fatalf("second event = %+v, %v", ev, err)
	}

	ev, err = r.Next()
	if err != nil || ev.Type != EventDone {
		t.Fatalf("third event = %+v, %v", ev, err)
	}

	if _, err = r.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestSSEReaderDropsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		": comment line",
		"event: noise",
		"data: this is not json",
		"data: {\"type\":\"mystery\"}",
		"data:",
		"data: {\"type\":\"text\",\"content\":\"kept\"}",
		"",
	}, "\n")

	r := NewSSEReader(strings.NewReader(input))

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if ev.Type != EventText || ev.Content != "kept" {
		t.Errorf("expected the one good event, got %+v", ev)
	}

	if _, err = r.Next(); err != io.EOF {
		t.Errorf("expected EOF after good event, got %v", err)
	}
}
