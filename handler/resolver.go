package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"dental-order-agent/internal/domain"
	"dental-order-agent/internal/usecase"
)

const (
	oprChat                   = "chat"
	oprGenerateApprovalLetter = "generate_approval_letter"

	resolverErrorResult = "Appsync resolver error"
)

type ChatUseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type LetterUseCase interface {
	GenerateApprovalLetter(ctx context.Context, form domain.ApprovalLetterRequest) (string, error)
}

// ResolverEvent is the AppSync direct Lambda resolver event. Only the fields
// the resolver reads are decoded.
type ResolverEvent struct {
	Arguments struct {
		Args json.RawMessage `json:"args"`
	} `json:"arguments"`
	Request struct {
		Headers map[string]string `json:"headers"`
	} `json:"request"`
}

// ResolverResponse is the envelope returned to AppSync. StatusCode is a
// string because the GraphQL schema declares it so.
type ResolverResponse struct {
	StatusCode string `json:"statusCode"`
	Result     string `json:"result"`
}

type resolverArgs struct {
	Opr       string            `json:"opr"`
	ID        string            `json:"id"`
	UserID    string            `json:"userID"`
	Message   string            `json:"message"`
	Documents []json.RawMessage `json:"documents"`
}

type ResolverHandler struct {
	chat   ChatUseCase
	letter LetterUseCase
}

func NewResolverHandler(chat ChatUseCase, letter LetterUseCase) (*ResolverHandler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	if letter == nil {
		return nil, errors.New("handler: letter use case must not be nil")
	}
	return &ResolverHandler{chat: chat, letter: letter}, nil
}

// Handle never returns an error; every failure is reported in the envelope.
func (h *ResolverHandler) Handle(ctx context.Context, event ResolverEvent) (ResolverResponse, error) {
	logger := requestLogger(ctx)

	raw, err := decodeArgs(event.Arguments.Args)
	if err != nil {
		logger.ErrorContext(ctx, "resolver args decode failed", "err", err)
		return failure(resolverErrorResult), nil
	}
	var args resolverArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		logger.ErrorContext(ctx, "resolver args decode failed", "err", err)
		return failure(resolverErrorResult), nil
	}
	logger = logger.With("opr", args.Opr)
	auth := requestAuth(event.Request.Headers)

	switch args.Opr {
	case oprChat:
		return h.handleChat(ctx, logger, args, auth), nil
	case oprGenerateApprovalLetter:
		form, err := decodeLetterForm(raw)
		if err != nil {
			logger.ErrorContext(ctx, "letter form decode failed", "err", err)
			return failure(resolverErrorResult), nil
		}
		return h.handleLetter(ctx, logger, form), nil
	default:
		logUseCaseError(ctx, logger, "resolver failed", usecase.UnsupportedOperation(args.Opr))
		return failure(resolverErrorResult), nil
	}
}

func (h *ResolverHandler) handleChat(ctx context.Context, logger *slog.Logger, args resolverArgs, auth domain.RequestAuth) ResolverResponse {
	docs, err := decodeDocuments(args.Documents)
	if err != nil {
		logger.ErrorContext(ctx, "documents decode failed", "err", err)
		return failure(resolverErrorResult)
	}

	logger.InfoContext(ctx, "chat requested", "chat_id", args.ID, "user_id", args.UserID, "documents", len(docs))
	out, err := h.chat.Chat(ctx, usecase.ChatInput{
		ID:        args.ID,
		UserID:    args.UserID,
		Message:   args.Message,
		Documents: docs,
		Auth:      auth,
	})
	if err != nil {
		logUseCaseError(ctx, logger, "chat failed", err)
		return failure(resolverErrorResult)
	}
	return success(out.Bot)
}

func (h *ResolverHandler) handleLetter(ctx context.Context, logger *slog.Logger, form domain.ApprovalLetterRequest) ResolverResponse {
	logger.InfoContext(ctx, "approval letter requested", "patient_id", form.PatientID)
	html, err := h.letter.GenerateApprovalLetter(ctx, form)
	if err != nil {
		logUseCaseError(ctx, logger, "approval letter failed", err)
		var ucErr *usecase.Error
		if errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorUpstream {
			return failure(fmt.Sprintf("Error generating approval letter: %v", unwrapCause(ucErr)))
		}
		return failure(fmt.Sprintf("Unexpected error generating letter: %v", unwrapCause(err)))
	}
	return success(html)
}

// decodeArgs accepts args either as an AWSJSON string or as an inline object.
func decodeArgs(raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New("handler: arguments.args is missing")
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("handler: decode args string: %w", err)
	}
	return json.RawMessage(s), nil
}

// decodeLetterForm reads the letter fields from args. Non-string values are
// accepted and rendered as text; null and absent fields are empty.
func decodeLetterForm(raw json.RawMessage) (domain.ApprovalLetterRequest, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.ApprovalLetterRequest{}, fmt.Errorf("handler: decode letter form: %w", err)
	}
	text := make(map[string]string, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case string:
			text[k] = t
		case nil:
		default:
			b, err := json.Marshal(t)
			if err != nil {
				return domain.ApprovalLetterRequest{}, fmt.Errorf("handler: encode letter field %q: %w", k, err)
			}
			text[k] = string(b)
		}
	}
	b, err := json.Marshal(text)
	if err != nil {
		return domain.ApprovalLetterRequest{}, fmt.Errorf("handler: encode letter form: %w", err)
	}
	var form domain.ApprovalLetterRequest
	if err := json.Unmarshal(b, &form); err != nil {
		return domain.ApprovalLetterRequest{}, fmt.Errorf("handler: decode letter form: %w", err)
	}
	return form, nil
}

func decodeDocuments(raw []json.RawMessage) ([]domain.Document, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	docs := make([]domain.Document, 0, len(raw))
	for i, r := range raw {
		var d struct {
			Title string `json:"title"`
		}
		if err := json.Unmarshal(r, &d); err != nil {
			return nil, fmt.Errorf("handler: decode document %d: %w", i, err)
		}
		docs = append(docs, domain.Document{Title: d.Title, Raw: r})
	}
	return docs, nil
}

func requestAuth(headers map[string]string) domain.RequestAuth {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return domain.RequestAuth{
		Host:      h.Get("Host"),
		AuthToken: h.Get("Authorization"),
		APIKey:    h.Get("X-Api-Key"),
	}
}

// unwrapCause strips the use case classification so the envelope carries the
// underlying failure text.
func unwrapCause(err error) error {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) && ucErr.Err != nil {
		return ucErr.Err
	}
	return err
}

func logUseCaseError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		logger.ErrorContext(ctx, msg, "code", ucErr.Code, "reason", ucErr.Reason, "err", err)
		return
	}
	logger.ErrorContext(ctx, msg, "err", err)
}

func success(result string) ResolverResponse {
	return ResolverResponse{StatusCode: "200", Result: result}
}

func failure(result string) ResolverResponse {
	return ResolverResponse{StatusCode: "500", Result: result}
}
