package bedrock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/stretchr/testify/require"

	"dental-order-agent/internal/domain"
)

type fakeStream struct {
	events chan types.ResponseStream
	err    error
	closed bool
}

func newFakeStream(err error, events ...types.ResponseStream) *fakeStream {
	ch := make(chan types.ResponseStream, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return &fakeStream{events: ch, err: err}
}

func (f *fakeStream) Events() <-chan types.ResponseStream { return f.events }
func (f *fakeStream) Close() error                        { f.closed = true; return nil }
func (f *fakeStream) Err() error                          { return f.err }

type fakeRuntime struct{}

func (fakeRuntime) InvokeAgent(context.Context, *bedrockagentruntime.InvokeAgentInput, ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error) {
	return nil, errors.New("not used")
}

func newTestClient(t *testing.T, stream *fakeStream, openErr error) (*Client, **bedrockagentruntime.InvokeAgentInput) {
	t.Helper()
	c, err := newClient("AGENT1", "ALIAS1")
	require.NoError(t, err)
	var captured *bedrockagentruntime.InvokeAgentInput
	c.open = func(_ context.Context, in *bedrockagentruntime.InvokeAgentInput) (eventReader, error) {
		captured = in
		if openErr != nil {
			return nil, openErr
		}
		return stream, nil
	}
	return c, &captured
}

func collect(t *testing.T, c *Client, req domain.AgentRequest) ([]domain.AgentEvent, error) {
	t.Helper()
	seq, err := c.Invoke(context.Background(), req)
	require.NoError(t, err)
	var out []domain.AgentEvent
	for ev, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, "a", "b")
	require.Error(t, err)

	_, err = New(fakeRuntime{}, " ", "b")
	require.ErrorContains(t, err, "agent id")

	_, err = New(fakeRuntime{}, "a", "")
	require.ErrorContains(t, err, "alias id")

	c, err := New(fakeRuntime{}, "a", "b")
	require.NoError(t, err)
	require.NotNil(t, c.open)
}

func TestInvoke_BuildsInput(t *testing.T) {
	c, captured := newTestClient(t, newFakeStream(nil), nil)

	_, err := collect(t, c, domain.AgentRequest{
		SessionID:        "user-1",
		InputText:        "hello",
		EnableTrace:      true,
		EndSession:       true,
		PromptAttributes: map[string]string{"today's date": "2025-04-07"},
	})
	require.NoError(t, err)

	in := *captured
	require.Equal(t, "AGENT1", *in.AgentId)
	require.Equal(t, "ALIAS1", *in.AgentAliasId)
	require.Equal(t, "user-1", *in.SessionId)
	require.Equal(t, "hello", *in.InputText)
	require.True(t, *in.EnableTrace)
	require.True(t, *in.EndSession)
	require.Equal(t, map[string]string{"today's date": "2025-04-07"}, in.SessionState.PromptSessionAttributes)
}

func TestInvoke_NoSessionStateWithoutAttributes(t *testing.T) {
	c, captured := newTestClient(t, newFakeStream(nil), nil)
	_, err := collect(t, c, domain.AgentRequest{SessionID: "s", InputText: "x"})
	require.NoError(t, err)
	require.Nil(t, (*captured).SessionState)
	require.False(t, *(*captured).EndSession)
}

func TestInvoke_MapsEvents(t *testing.T) {
	stream := newFakeStream(nil,
		&types.ResponseStreamMemberChunk{Value: types.PayloadPart{Bytes: []byte("hel")}},
		&types.ResponseStreamMemberTrace{Value: types.TracePart{SessionId: stringPtr("s")}},
		&types.ResponseStreamMemberChunk{Value: types.PayloadPart{Bytes: []byte("lo")}},
		&types.ResponseStreamMemberReturnControl{},
	)
	c, _ := newTestClient(t, stream, nil)

	events, err := collect(t, c, domain.AgentRequest{SessionID: "s"})
	require.NoError(t, err)
	require.Len(t, events, 4)
	require.Equal(t, domain.AgentEventChunk, events[0].Kind)
	require.Equal(t, []byte("hel"), events[0].Bytes)
	require.Equal(t, domain.AgentEventTrace, events[1].Kind)
	require.NotNil(t, events[1].Trace)
	require.Equal(t, []byte("lo"), events[2].Bytes)
	require.Equal(t, domain.AgentEventKind("returnControl"), events[3].Kind)
	require.True(t, stream.closed)
}

func TestInvoke_StreamError(t *testing.T) {
	stream := newFakeStream(errors.New("connection reset"),
		&types.ResponseStreamMemberChunk{Value: types.PayloadPart{Bytes: []byte("a")}},
	)
	c, _ := newTestClient(t, stream, nil)

	events, err := collect(t, c, domain.AgentRequest{SessionID: "s"})
	require.Len(t, events, 1)
	require.ErrorContains(t, err, "connection reset")
	require.True(t, stream.closed)
}

func TestInvoke_EarlyStopClosesStream(t *testing.T) {
	stream := newFakeStream(nil,
		&types.ResponseStreamMemberChunk{Value: types.PayloadPart{Bytes: []byte("a")}},
		&types.ResponseStreamMemberChunk{Value: types.PayloadPart{Bytes: []byte("b")}},
	)
	c, _ := newTestClient(t, stream, nil)

	seq, err := c.Invoke(context.Background(), domain.AgentRequest{SessionID: "s"})
	require.NoError(t, err)
	for range seq {
		break
	}
	require.True(t, stream.closed)
}

func TestInvoke_OpenError(t *testing.T) {
	c, _ := newTestClient(t, nil, errors.New("AccessDeniedException"))
	_, err := c.Invoke(context.Background(), domain.AgentRequest{SessionID: "s"})
	require.ErrorContains(t, err, "invoke agent")
	require.ErrorContains(t, err, "AccessDeniedException")
}

func TestInvoke_EmptySession(t *testing.T) {
	c, _ := newTestClient(t, newFakeStream(nil), nil)
	_, err := c.Invoke(context.Background(), domain.AgentRequest{SessionID: " "})
	require.Error(t, err)
}

func stringPtr(s string) *string { return &s }
