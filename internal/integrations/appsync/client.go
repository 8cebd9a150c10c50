package appsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dental-order-agent/internal/domain"
)

// UpdateChatMutation is the generated updateChat document used by the web app.
const UpdateChatMutation = `mutation UpdateChat(
  $input: UpdateChatInput!
  $condition: ModelChatConditionInput
) {
  updateChat(input: $input, condition: $condition) {
    id
    userID
    human
    bot
    payload
    createdAt
    updatedAt
    __typename
  }
}
`

// graphQLRequest is the POST body accepted by the AppSync endpoint.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type updateChatInput struct {
	ID      string `json:"id"`
	UserID  string `json:"userID"`
	Human   string `json:"human"`
	Bot     string `json:"bot"`
	Payload string `json:"payload"`
}

// chatPayload is JSON-encoded into the chat's payload field.
type chatPayload struct {
	Metrics   map[string]any    `json:"metrics"`
	Documents []json.RawMessage `json:"documents"`
}

type updateChatData struct {
	UpdateChat *struct {
		ID        string `json:"id"`
		UpdatedAt string `json:"updatedAt"`
	} `json:"updateChat"`
}

// HTTPStatusError captures non-2xx responses from the GraphQL endpoint.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("appsync: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// ResponseError is returned when the endpoint answers 200 with a GraphQL
// errors array.
type ResponseError struct {
	Errors []graphQLError
}

func (e *ResponseError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		if ge.ErrorType != "" {
			msgs = append(msgs, ge.ErrorType+": "+ge.Message)
			continue
		}
		msgs = append(msgs, ge.Message)
	}
	return "appsync: graphql errors: " + strings.Join(msgs, "; ")
}

// Client executes GraphQL operations against one AppSync endpoint using the
// caller's credentials.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("appsync: endpoint must not be empty")
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UpdateChat publishes the finished turn, which fans out to the web app's
// subscriptions.
func (c *Client) UpdateChat(ctx context.Context, turn domain.ChatTurn, auth domain.RequestAuth) error {
	payload, err := encodeChatPayload(turn)
	if err != nil {
		return err
	}
	data, err := c.execute(ctx, auth, graphQLRequest{
		Query: UpdateChatMutation,
		Variables: map[string]any{
			"input": updateChatInput{
				ID:      turn.ID,
				UserID:  turn.UserID,
				Human:   turn.Human,
				Bot:     turn.Bot,
				Payload: payload,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("appsync: updateChat: %w", err)
	}

	var out updateChatData
	if err := json.Unmarshal(data, &out); err == nil && out.UpdateChat != nil {
		slog.DebugContext(ctx, "chat updated", "chat_id", out.UpdateChat.ID, "updated_at", out.UpdateChat.UpdatedAt)
	}
	return nil
}

// execute posts one GraphQL operation and returns its data member.
func (c *Client) execute(ctx context.Context, auth domain.RequestAuth, op graphQLRequest) (json.RawMessage, error) {
	body, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("appsync: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("appsync: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setAuthHeaders(req, auth)

	raw, err := c.doJSONRequest(req)
	if err != nil {
		return nil, fmt.Errorf("appsync: request failed: %w", err)
	}

	var resp graphQLResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("appsync: decode response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, &ResponseError{Errors: resp.Errors}
	}
	return resp.Data, nil
}

// setAuthHeaders forwards the caller's credentials. The API key is sent only
// when present; otherwise the bearer token authorizes the call.
func setAuthHeaders(req *http.Request, auth domain.RequestAuth) {
	if auth.Host != "" {
		req.Host = auth.Host
	}
	if auth.APIKey != "" {
		req.Header.Set("x-api-key", auth.APIKey)
		return
	}
	if auth.AuthToken != "" {
		req.Header.Set("Authorization", auth.AuthToken)
	}
}

func encodeChatPayload(turn domain.ChatTurn) (string, error) {
	metrics := turn.Metrics
	if metrics == nil {
		metrics = map[string]any{}
	}
	docs := make([]json.RawMessage, 0, len(turn.Documents))
	for _, d := range turn.Documents {
		if len(d.Raw) > 0 {
			docs = append(docs, d.Raw)
			continue
		}
		b, err := json.Marshal(map[string]string{"title": d.Title})
		if err != nil {
			return "", fmt.Errorf("appsync: encode document: %w", err)
		}
		docs = append(docs, b)
	}
	b, err := json.Marshal(chatPayload{Metrics: metrics, Documents: docs})
	if err != nil {
		return "", fmt.Errorf("appsync: encode payload: %w", err)
	}
	return string(b), nil
}

func (c *Client) doJSONRequest(req *http.Request) ([]byte, error) {
	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        req.URL.String(),
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
