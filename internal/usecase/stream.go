package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"unicode/utf8"

	"dental-order-agent/internal/domain"
)

// AgentInvoker starts an agent invocation and returns its response stream.
// The stream yields a non-nil error at most once, as its last element.
type AgentInvoker interface {
	Invoke(ctx context.Context, req domain.AgentRequest) (iter.Seq2[domain.AgentEvent, error], error)
}

// ErrUnexpectedEvent is returned when the agent stream carries an event that
// is neither a chunk nor a trace.
var ErrUnexpectedEvent = errors.New("usecase: unexpected agent event")

// ErrNoChunks is returned when a chat stream ends without a single chunk.
var ErrNoChunks = errors.New("usecase: agent returned no response chunk")

// accumulator folds a chunk into the reply collected so far.
type accumulator func(reply, chunk string) string

// keepLast replaces the reply with each chunk, so only the final chunk is
// retained. The chat path relies on this.
func keepLast(_, chunk string) string { return chunk }

// concatenate appends every chunk to the reply.
func concatenate(reply, chunk string) string { return reply + chunk }

// consumeStream drains the agent stream to completion. It returns the folded
// reply and the number of chunks seen. Trace events are logged only when
// trace is set.
func consumeStream(ctx context.Context, stream iter.Seq2[domain.AgentEvent, error], fold accumulator, trace bool) (string, int, error) {
	var (
		reply  string
		chunks int
	)
	for ev, err := range stream {
		if err != nil {
			return "", chunks, fmt.Errorf("usecase: read agent stream: %w", err)
		}
		switch ev.Kind {
		case domain.AgentEventChunk:
			text := decodeChunk(ev.Bytes)
			chunks++
			slog.DebugContext(ctx, "agent chunk", "index", chunks, "bytes", len(ev.Bytes))
			reply = fold(reply, text)
		case domain.AgentEventTrace:
			if trace {
				logTrace(ctx, ev.Trace)
			}
		default:
			return "", chunks, fmt.Errorf("%w: %q", ErrUnexpectedEvent, ev.Kind)
		}
	}
	return reply, chunks, nil
}

// decodeChunk interprets chunk bytes as UTF-8, replacing invalid sequences.
func decodeChunk(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return string([]rune(string(b)))
}

func logTrace(ctx context.Context, trace any) {
	b, err := json.MarshalIndent(trace, "", "  ")
	if err != nil {
		slog.InfoContext(ctx, "agent trace", "trace", fmt.Sprintf("%+v", trace))
		return
	}
	slog.InfoContext(ctx, "agent trace", "trace", string(b))
}
