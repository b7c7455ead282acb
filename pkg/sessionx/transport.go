package sessionx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Abraxas-365/sitepilot/pkg/ai/llm"
	"github.com/Abraxas-365/sitepilot/pkg/ai/llm/toolx"
	"github.com/Abraxas-365/sitepilot/pkg/streamx"
)

// EventReader yields the normalized events of one turn until io.EOF
type EventReader interface {
	Next() (streamx.Event, error)
	Close() error
}

// Transport opens one event stream per submitted turn. Cancelling the
// context must unblock a pending Next on the returned reader.
type Transport interface {
	Open(ctx context.Context, messages []llm.Message) (EventReader, error)
}

// HTTPTransport reads events from a chat endpoint speaking the SSE wire
// protocol.
type HTTPTransport struct {
	// URL is the chat endpoint, e.g. http://localhost:3000/api/chat.
	URL string

	// Client defaults to http.DefaultClient.
	Client *http.Client

	// Header is added to every request (session ID, bearer token).
	Header http.Header

	// Tools are the page's tool declarations, sent with every turn so the
	// server forwards this page's schemas instead of its defaults.
	Tools []toolx.Declaration
}

type chatRequest struct {
	Messages []llm.Message       `json:"messages"`
	Tools    []toolx.Declaration `json:"tools,omitempty"`
}

// Open POSTs the full message history and returns a reader over the SSE
// response. The request is bound to ctx, so cancelling it closes the
// connection and fails any in-flight read.
func (t *HTTPTransport) Open(ctx context.Context, messages []llm.Message) (EventReader, error) {
	body, err := json.Marshal(chatRequest{Messages: messages, Tools: t.Tools})
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrTransportOpen, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrTransportOpen, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for key, values := range t.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrTransportOpen, err)
	}

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, errorRegistry.New(ErrBadStatus).
			WithDetail("status", resp.StatusCode).
			WithDetail("body", string(payload))
	}

	return &sseEventReader{
		reader: streamx.NewSSEReader(resp.Body),
		body:   resp.Body,
	}, nil
}

type sseEventReader struct {
	reader *streamx.SSEReader
	body   io.ReadCloser
}

func (r *sseEventReader) Next() (streamx.Event, error) {
	return r.reader.Next()
}

func (r *sseEventReader) Close() error {
	return r.body.Close()
}
