package streamx

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/Abraxas-365/sitepilot/pkg/ai/llm"
	"github.com/Abraxas-365/sitepilot/pkg/errx"
	"github.com/Abraxas-365/sitepilot/pkg/logx"
)

// DefaultIdleTimeout bounds how long the decoder waits between provider
// chunks before giving the turn up.
const DefaultIdleTimeout = 60 * time.Second

// accumulator collects the fragments of one pending tool invocation. The
// name arrives once (usually on the first fragment for the slot); argument
// text is appended in arrival order and only parsed at stream end, since
// it is not valid JSON until complete.
type accumulator struct {
	name string
	args []byte
}

// Decoder translates one provider stream into the normalized event
// sequence. Text deltas pass through unbuffered; tool-call fragments are
// accumulated per slot index and emitted, complete and in ascending slot
// order, only when the provider finishes the turn. A Decoder serves
// exactly one request and is not reused.
type Decoder struct {
	stream      llm.Stream
	idleTimeout time.Duration
}

// DecoderOption configures a Decoder
type DecoderOption func(*Decoder)

// WithIdleTimeout overrides the provider-silence timeout
func WithIdleTimeout(d time.Duration) DecoderOption {
	return func(dec *Decoder) {
		if d > 0 {
			dec.idleTimeout = d
		}
	}
}

// NewDecoder creates a decoder over one provider stream. The decoder owns
// the stream and closes it when Run returns.
func NewDecoder(stream llm.Stream, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		stream:      stream,
		idleTimeout: DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type chunkResult struct {
	chunk llm.Chunk
	err   error
}

// Run pumps the provider stream through emit until the turn terminates.
// Exactly one terminal event is emitted: done after a clean finish (always
// after all tool events), or error if the provider stream fails or stalls
// past the idle timeout. If emit reports an error the sink is gone; Run
// stops without emitting anything further and discards the accumulators.
func (d *Decoder) Run(ctx context.Context, emit func(Event) error) error {
	defer d.stream.Close()

	results := make(chan chunkResult, 1)
	go func() {
		for {
			chunk, err := d.stream.Next()
			select {
			case results <- chunkResult{chunk: chunk, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	accumulators := make(map[int]*accumulator)

	timer := time.NewTimer(d.idleTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timer.C:
			logx.WithField("timeout", d.idleTimeout.String()).
				Warn("provider went silent, aborting turn")
			if err := emit(ErrorEvent("The model stopped responding.")); err != nil {
				return err
			}
			return errorRegistry.New(ErrIdleTimeout)

		case res := <-results:
			if res.err != nil {
				if errx.Is(res.err, io.EOF) {
					return d.finish(accumulators, emit)
				}
				logx.WithError(res.err).Error("provider stream failed")
				if err := emit(ErrorEvent("The model request failed.")); err != nil {
					return err
				}
				return res.err
			}

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(d.idleTimeout)

			if res.chunk.Content != "" {
				if err := emit(TextEvent(res.chunk.Content)); err != nil {
					return err
				}
			}

			for _, delta := range res.chunk.ToolCallDeltas {
				acc, ok := accumulators[delta.Index]
				if !ok {
					acc = &accumulator{}
					accumulators[delta.Index] = acc
				}
				if delta.Name != "" {
					acc.name = delta.Name
				}
				if delta.Arguments != "" {
					acc.args = append(acc.args, delta.Arguments...)
				}
			}
		}
	}
}

// finish flushes completed accumulators as tool events in ascending slot
// order, then emits done. Slots missing a name or argument text, and slots
// whose argument buffer does not parse, are dropped individually; the rest
// of the turn still goes out.
func (d *Decoder) finish(accumulators map[int]*accumulator, emit func(Event) error) error {
	indexes := make([]int, 0, len(accumulators))
	for idx := range accumulators {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	for _, idx := range indexes {
		acc := accumulators[idx]
		if acc.name == "" || len(acc.args) == 0 {
			logx.WithFields(logx.Fields{
				"slot": idx,
				"name": acc.name,
			}).Debug("dropping incomplete tool invocation")
			continue
		}

		var args map[string]any
		if err := json.Unmarshal(acc.args, &args); err != nil {
			logx.WithFields(logx.Fields{
				"slot": idx,
				"name": acc.name,
			}).WithError(err).Warn("dropping tool invocation with unparseable arguments")
			continue
		}

		if err := emit(ToolEvent(acc.name, args)); err != nil {
			return err
		}
	}

	return emit(DoneEvent())
}
