package llm

import "context"

// ToolCallDelta is one fragment of a streamed tool call. Index is the
// provider-assigned slot for the call within the current turn; fragments
// for the same slot always carry the same index, but name and arguments
// may be split across any number of fragments. Providers translate their
// native chunk shape into deltas and do NOT accumulate them — assembly is
// the consumer's job.
type ToolCallDelta struct {
	// Index is the zero-based slot of the call within the turn.
	Index int

	// ID is the provider call identifier, sent on the first fragment only
	// by most providers. May be empty.
	ID string

	// Name is non-empty on the fragment that carries the tool name.
	Name string

	// Arguments is the next piece of the JSON argument document.
	Arguments string
}

// Chunk is one tick of a streamed response: a text delta and/or tool-call
// fragments. Both may be empty on keep-alive ticks.
type Chunk struct {
	Content        string
	ToolCallDeltas []ToolCallDelta
}

// Stream yields response chunks until io.EOF.
type Stream interface {
	// Next returns the next chunk. It returns io.EOF when the provider
	// finished the turn and any other error on transport failure.
	Next() (Chunk, error)

	// Close releases the underlying connection. Safe to call after Next
	// returned an error.
	Close() error
}

// Client is the provider-neutral chat interface.
type Client interface {
	Chat(ctx context.Context, messages []Message, opts ...Option) (Response, error)
	ChatStream(ctx context.Context, messages []Message, opts ...Option) (Stream, error)
}
