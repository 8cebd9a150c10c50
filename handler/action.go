package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"dental-order-agent/internal/usecase"
)

const (
	functionRecordOrderDetails = "record_order_details"
	actionMessageVersion       = "1.0"
	missingOrderParamsBody     = "Missing order_id or order_data"
)

// OrderRecorder merges agent-extracted order fields into the stored record.
type OrderRecorder interface {
	RecordOrderDetails(ctx context.Context, orderID string, orderData any) usecase.OrderResult
}

// ActionParameter is one function argument supplied by the agent. Values
// always arrive as strings.
type ActionParameter struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ActionEvent is the Bedrock agent action group request for a function
// schema.
type ActionEvent struct {
	MessageVersion          string            `json:"messageVersion"`
	ActionGroup             string            `json:"actionGroup"`
	Function                string            `json:"function"`
	Parameters              []ActionParameter `json:"parameters"`
	SessionID               string            `json:"sessionId"`
	InputText               string            `json:"inputText"`
	SessionAttributes       map[string]string `json:"sessionAttributes,omitempty"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes,omitempty"`
}

// Parameter returns the value of the named parameter, if present.
func (e ActionEvent) Parameter(name string) (string, bool) {
	for _, p := range e.Parameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

type ActionResponse struct {
	MessageVersion          string            `json:"messageVersion"`
	Response                ActionResult      `json:"response"`
	SessionAttributes       map[string]string `json:"sessionAttributes,omitempty"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes,omitempty"`
}

type ActionResult struct {
	ActionGroup      string           `json:"actionGroup"`
	Function         string           `json:"function"`
	FunctionResponse FunctionResponse `json:"functionResponse"`
}

type FunctionResponse struct {
	ResponseBody map[string]ResponseBody `json:"responseBody"`
}

type ResponseBody struct {
	Body string `json:"body"`
}

type ActionHandler struct {
	orders OrderRecorder
}

func NewActionHandler(orders OrderRecorder) (*ActionHandler, error) {
	if orders == nil {
		return nil, errors.New("handler: order recorder must not be nil")
	}
	return &ActionHandler{orders: orders}, nil
}

// Handle dispatches one action group invocation. An unrecognized function is
// returned as an error so the invocation fails.
func (h *ActionHandler) Handle(ctx context.Context, event ActionEvent) (ActionResponse, error) {
	logger := requestLogger(ctx).With("action_group", event.ActionGroup, "function", event.Function)
	logger.InfoContext(ctx, "action invoked", "parameters", len(event.Parameters))

	switch event.Function {
	case functionRecordOrderDetails:
		orderID, _ := event.Parameter("order_id")
		orderData, _ := event.Parameter("order_data")
		if orderID == "" || orderData == "" {
			logger.WarnContext(ctx, "missing order parameters", "has_order_id", orderID != "", "has_order_data", orderData != "")
			return actionResponse(event, missingOrderParamsBody), nil
		}

		result := h.orders.RecordOrderDetails(ctx, orderID, orderData)
		body, err := json.Marshal(result)
		if err != nil {
			return ActionResponse{}, fmt.Errorf("handler: encode order result: %w", err)
		}
		logger.InfoContext(ctx, "order details recorded", "order_id", orderID, "status", result.Status)
		return actionResponse(event, string(body)), nil
	default:
		err := fmt.Errorf("Unrecognized function: %s", event.Function)
		logger.ErrorContext(ctx, "unrecognized function", "err", err)
		return ActionResponse{}, err
	}
}

func actionResponse(event ActionEvent, body string) ActionResponse {
	return ActionResponse{
		MessageVersion: actionMessageVersion,
		Response: ActionResult{
			ActionGroup: event.ActionGroup,
			Function:    event.Function,
			FunctionResponse: FunctionResponse{
				ResponseBody: map[string]ResponseBody{"TEXT": {Body: body}},
			},
		},
		SessionAttributes:       event.SessionAttributes,
		PromptSessionAttributes: event.PromptSessionAttributes,
	}
}

// requestLogger tags log records with the Lambda request id when available.
func requestLogger(ctx context.Context) *slog.Logger {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return slog.Default().With("request_id", lc.AwsRequestID)
	}
	return slog.Default()
}
