package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"dental-order-agent/internal/domain"
)

const (
	endSessionMarker = "end_session"
	todayAttribute   = "today's date"
)

// Publisher pushes a finished chat turn to the live-data layer.
type Publisher interface {
	UpdateChat(ctx context.Context, turn domain.ChatTurn, auth domain.RequestAuth) error
}

type ChatInput struct {
	ID        string
	UserID    string
	Message   string
	Documents []domain.Document
	Auth      domain.RequestAuth
}

type ChatOutput struct {
	Bot string
}

type ChatService struct {
	agent       AgentInvoker
	publisher   Publisher
	enableTrace bool
	today       string
}

// NewChatService creates a chat service. The date passed to the agent as
// "today's date" is fixed when the service is created.
func NewChatService(agent AgentInvoker, publisher Publisher, enableTrace bool) (*ChatService, error) {
	if agent == nil {
		return nil, errors.New("usecase: agent invoker must not be nil")
	}
	if publisher == nil {
		return nil, errors.New("usecase: publisher must not be nil")
	}
	return &ChatService{
		agent:       agent,
		publisher:   publisher,
		enableTrace: enableTrace,
		today:       time.Now().Format(time.DateOnly),
	}, nil
}

// Chat sends the user's message to the agent in the user's session and
// publishes the reply. Only the last chunk of the agent stream is kept as the
// reply.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "missing_user_id", nil)
	}
	if strings.TrimSpace(in.ID) == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "missing_chat_id", nil)
	}
	if in.Message == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "missing_message", nil)
	}

	content := in.Message
	if len(in.Documents) > 0 {
		content += formatDocumentInfo(in.Documents)
	}

	stream, err := s.agent.Invoke(ctx, domain.AgentRequest{
		SessionID:        in.UserID,
		InputText:        content,
		EnableTrace:      s.enableTrace,
		EndSession:       strings.Contains(in.Message, endSessionMarker),
		PromptAttributes: map[string]string{todayAttribute: s.today},
	})
	if err != nil {
		return ChatOutput{}, newError(ErrorUpstream, "agent_invoke_error", err)
	}

	reply, chunks, err := consumeStream(ctx, stream, keepLast, s.enableTrace)
	if err != nil {
		return ChatOutput{}, classifyStreamError(err)
	}
	if chunks == 0 {
		return ChatOutput{}, newError(ErrorUpstream, "agent_empty_response", ErrNoChunks)
	}
	formatted := processBotResponse(reply)
	slog.DebugContext(ctx, "agent reply formatted", "chat_id", in.ID, "formatted", formatted)

	// Subscribers receive the last chunk as the agent sent it.
	turn := domain.ChatTurn{
		ID:        in.ID,
		UserID:    in.UserID,
		Human:     in.Message,
		Bot:       reply,
		Documents: in.Documents,
		Metrics:   map[string]any{},
	}
	// The API key is never forwarded on publish; the caller's token is used.
	auth := domain.RequestAuth{Host: in.Auth.Host, AuthToken: in.Auth.AuthToken}
	if err := s.publisher.UpdateChat(ctx, turn, auth); err != nil {
		return ChatOutput{}, newError(ErrorUpstream, "publish_error", err)
	}

	slog.InfoContext(ctx, "chat turn published", "chat_id", in.ID, "chunks", chunks)
	return ChatOutput{Bot: formatted}, nil
}

func classifyStreamError(err error) *Error {
	if errors.Is(err, ErrUnexpectedEvent) {
		return newError(ErrorInternal, "agent_unexpected_event", err)
	}
	return newError(ErrorUpstream, "agent_stream_error", err)
}
