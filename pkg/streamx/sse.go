package streamx

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Flusher is the subset of bufio.Writer the SSE writer needs. A fasthttp
// body stream writer satisfies it directly.
type Flusher interface {
	io.Writer
	Flush() error
}

// SSEWriter frames events as Server-Sent Events: one event per data: line,
// each terminated by a blank line, flushed immediately so deltas reach the
// client as they happen. No id: or retry: fields are used.
type SSEWriter struct {
	w Flusher
}

// NewSSEWriter wraps a buffered response writer
func NewSSEWriter(w Flusher) *SSEWriter {
	return &SSEWriter{w: w}
}

// WriteEvent sends one event and flushes. A write or flush error means the
// client went away; the caller must stop emitting.
func (w *SSEWriter) WriteEvent(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errorRegistry.NewWithCause(ErrEventEncoding, err)
	}

	if _, err := fmt.Fprintf(w.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.w.Flush()
}

// SSEReader parses an SSE byte stream back into events. Parsing is
// tolerant: lines that are not data: lines, and data: lines whose payload
// does not decode as a known event, are dropped and the stream continues.
type SSEReader struct {
	scanner *bufio.Scanner
}

// NewSSEReader wraps a response body
func NewSSEReader(r io.Reader) *SSEReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &SSEReader{scanner: scanner}
}

// Next returns the next decodable event. It returns io.EOF when the stream
// ends and the underlying read error otherwise.
func (r *SSEReader) Next() (Event, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			continue
		}
		return ev, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}
