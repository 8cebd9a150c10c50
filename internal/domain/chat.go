package domain

import "encoding/json"

// Document is an attachment referenced by a chat message. Only Title is
// interpreted; the full object is carried through to the published payload.
type Document struct {
	Title string
	Raw   json.RawMessage
}

// ChatTurn is one exchange between the user and the agent. It lives for a
// single request.
type ChatTurn struct {
	ID        string
	UserID    string
	Human     string
	Bot       string
	Documents []Document
	Metrics   map[string]any
}

// RequestAuth carries the caller's AppSync credentials, forwarded when
// publishing back to the GraphQL API.
type RequestAuth struct {
	Host      string
	AuthToken string
	APIKey    string
}
