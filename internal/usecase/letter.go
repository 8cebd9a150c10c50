package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dental-order-agent/internal/domain"
)

const (
	letterInstruction   = "Generate pre-approval letter: "
	letterSessionPrefix = "approval-letter-"
	letterSessionLayout = "20060102150405"
)

type LetterService struct {
	agent       AgentInvoker
	enableTrace bool
	now         func() time.Time
}

func NewLetterService(agent AgentInvoker, enableTrace bool) (*LetterService, error) {
	if agent == nil {
		return nil, errors.New("usecase: agent invoker must not be nil")
	}
	return &LetterService{agent: agent, enableTrace: enableTrace, now: time.Now}, nil
}

// GenerateApprovalLetter asks the agent for a pre-approval letter in a fresh
// session and renders the HTML document. Every chunk of the agent stream is
// included in the letter.
func (s *LetterService) GenerateApprovalLetter(ctx context.Context, form domain.ApprovalLetterRequest) (string, error) {
	prompt, err := createSafeMessage(form)
	if err != nil {
		return "", newError(ErrorInternal, "prompt_encode_error", err)
	}
	prompt += letterInstruction

	sessionID := s.newSessionID()
	stream, err := s.agent.Invoke(ctx, domain.AgentRequest{
		SessionID:   sessionID,
		InputText:   prompt,
		EnableTrace: s.enableTrace,
	})
	if err != nil {
		return "", newError(ErrorUpstream, "agent_invoke_error", err)
	}

	reply, chunks, err := consumeStream(ctx, stream, concatenate, s.enableTrace)
	if err != nil {
		return "", classifyStreamError(err)
	}

	html, err := renderLetter(form, reply, s.now())
	if err != nil {
		return "", newError(ErrorInternal, "letter_render_error", err)
	}
	slog.InfoContext(ctx, "approval letter generated", "session_id", sessionID, "chunks", chunks)
	return html, nil
}

func (s *LetterService) newSessionID() string {
	return fmt.Sprintf("%s%s-%s", letterSessionPrefix, s.now().Format(letterSessionLayout), newUUID()[:8])
}

var newUUID = func() string {
	return uuid.NewString()
}
