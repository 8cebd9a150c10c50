package domain

// AgentEventKind identifies a member of the agent response stream.
type AgentEventKind string

const (
	AgentEventChunk AgentEventKind = "chunk"
	AgentEventTrace AgentEventKind = "trace"
)

// AgentRequest is a single agent invocation.
type AgentRequest struct {
	SessionID        string
	InputText        string
	EnableTrace      bool
	EndSession       bool
	PromptAttributes map[string]string
}

// AgentEvent is one element of the agent's streamed response. Kind holds the
// stream member name for anything that is neither a chunk nor a trace.
type AgentEvent struct {
	Kind  AgentEventKind
	Bytes []byte
	Trace any
}
