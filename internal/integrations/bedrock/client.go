package bedrock

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"

	"dental-order-agent/internal/domain"
)

// runtimeAPI is the minimal Bedrock Agent Runtime interface required by
// Client. *bedrockagentruntime.Client satisfies it.
type runtimeAPI interface {
	InvokeAgent(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error)
}

// eventReader is the read side of an InvokeAgent event stream.
// *bedrockagentruntime.InvokeAgentEventStream satisfies it.
type eventReader interface {
	Events() <-chan types.ResponseStream
	Close() error
	Err() error
}

// Client invokes one Bedrock agent alias.
type Client struct {
	agentID      string
	agentAliasID string
	open         func(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput) (eventReader, error)
}

// New creates a Client bound to the given agent and alias.
func New(api runtimeAPI, agentID, agentAliasID string) (*Client, error) {
	if api == nil {
		return nil, errors.New("bedrock: api must not be nil")
	}
	c, err := newClient(agentID, agentAliasID)
	if err != nil {
		return nil, err
	}
	c.open = func(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput) (eventReader, error) {
		out, err := api.InvokeAgent(ctx, in)
		if err != nil {
			return nil, err
		}
		stream := out.GetStream()
		if stream == nil {
			return nil, errors.New("bedrock: response has no event stream")
		}
		return stream, nil
	}
	return c, nil
}

func newClient(agentID, agentAliasID string) (*Client, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, errors.New("bedrock: agent id must not be empty")
	}
	agentAliasID = strings.TrimSpace(agentAliasID)
	if agentAliasID == "" {
		return nil, errors.New("bedrock: agent alias id must not be empty")
	}
	return &Client{agentID: agentID, agentAliasID: agentAliasID}, nil
}

// Invoke starts an agent invocation. The returned sequence yields the
// response stream events in order and must be consumed to completion or
// abandoned; either way the underlying stream is closed.
func (c *Client) Invoke(ctx context.Context, req domain.AgentRequest) (iter.Seq2[domain.AgentEvent, error], error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, errors.New("bedrock: session id must not be empty")
	}
	stream, err := c.open(ctx, c.invokeInput(req))
	if err != nil {
		return nil, fmt.Errorf("bedrock: invoke agent: %w", err)
	}
	return readEvents(stream), nil
}

func (c *Client) invokeInput(req domain.AgentRequest) *bedrockagentruntime.InvokeAgentInput {
	in := &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(c.agentID),
		AgentAliasId: aws.String(c.agentAliasID),
		SessionId:    aws.String(req.SessionID),
		InputText:    aws.String(req.InputText),
		EnableTrace:  aws.Bool(req.EnableTrace),
		EndSession:   aws.Bool(req.EndSession),
	}
	if len(req.PromptAttributes) > 0 {
		attrs := make(map[string]string, len(req.PromptAttributes))
		for k, v := range req.PromptAttributes {
			attrs[k] = v
		}
		in.SessionState = &types.SessionState{PromptSessionAttributes: attrs}
	}
	return in
}

func readEvents(stream eventReader) iter.Seq2[domain.AgentEvent, error] {
	return func(yield func(domain.AgentEvent, error) bool) {
		defer func() { _ = stream.Close() }()
		for ev := range stream.Events() {
			if !yield(toDomainEvent(ev), nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(domain.AgentEvent{}, fmt.Errorf("bedrock: event stream: %w", err))
		}
	}
}

func toDomainEvent(ev types.ResponseStream) domain.AgentEvent {
	switch v := ev.(type) {
	case *types.ResponseStreamMemberChunk:
		return domain.AgentEvent{Kind: domain.AgentEventChunk, Bytes: v.Value.Bytes}
	case *types.ResponseStreamMemberTrace:
		return domain.AgentEvent{Kind: domain.AgentEventTrace, Trace: v.Value}
	case *types.ResponseStreamMemberReturnControl:
		return domain.AgentEvent{Kind: "returnControl"}
	case *types.ResponseStreamMemberFiles:
		return domain.AgentEvent{Kind: "files"}
	default:
		return domain.AgentEvent{Kind: domain.AgentEventKind(fmt.Sprintf("%T", ev))}
	}
}
