package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"testing"

	"github.com/stretchr/testify/require"

	"dental-order-agent/internal/domain"
	"dental-order-agent/internal/repository"
)

type memOrderStore struct {
	records map[string]domain.OrderRecord
	getErr  error
	putErr  error
	puts    int
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{records: map[string]domain.OrderRecord{}}
}

func (m *memOrderStore) Get(_ context.Context, orderID string) (domain.OrderRecord, error) {
	if m.getErr != nil {
		return domain.OrderRecord{}, m.getErr
	}
	rec, ok := m.records[orderID]
	if !ok {
		return domain.OrderRecord{}, fmt.Errorf("get %s: %w", orderID, repository.ErrNotFound)
	}
	return rec, nil
}

func (m *memOrderStore) Put(_ context.Context, orderID string, rec domain.OrderRecord) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.records[orderID] = rec
	return nil
}

// fakeAgent replays a fixed list of events and records the last request.
type fakeAgent struct {
	events    []domain.AgentEvent
	streamErr error
	invokeErr error
	requests  []domain.AgentRequest
}

func (f *fakeAgent) Invoke(_ context.Context, req domain.AgentRequest) (iter.Seq2[domain.AgentEvent, error], error) {
	f.requests = append(f.requests, req)
	if f.invokeErr != nil {
		return nil, f.invokeErr
	}
	return func(yield func(domain.AgentEvent, error) bool) {
		for _, ev := range f.events {
			if !yield(ev, nil) {
				return
			}
		}
		if f.streamErr != nil {
			yield(domain.AgentEvent{}, f.streamErr)
		}
	}, nil
}

func (f *fakeAgent) lastRequest(t *testing.T) domain.AgentRequest {
	t.Helper()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func chunk(s string) domain.AgentEvent {
	return domain.AgentEvent{Kind: domain.AgentEventChunk, Bytes: []byte(s)}
}

func trace(v any) domain.AgentEvent {
	return domain.AgentEvent{Kind: domain.AgentEventTrace, Trace: v}
}

func chunks(parts ...string) []domain.AgentEvent {
	out := make([]domain.AgentEvent, 0, len(parts))
	for _, p := range parts {
		out = append(out, chunk(p))
	}
	return out
}

type fakePublisher struct {
	turns []domain.ChatTurn
	auths []domain.RequestAuth
	err   error
}

func (f *fakePublisher) UpdateChat(_ context.Context, turn domain.ChatTurn, auth domain.RequestAuth) error {
	f.turns = append(f.turns, turn)
	f.auths = append(f.auths, auth)
	return f.err
}

func expectUsecaseError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.True(t, errors.As(err, &usecaseErr), "error %v is not a usecase error", err)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}
