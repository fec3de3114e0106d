// Package agent implements the bounded tool-calling loop at the heart of
// Nova: per-turn orchestration between the generative model, the tool
// registry, and the checkpoint store.
package agent

import "encoding/json"

// Role identifies who produced a message.
type Role string

const (
	RoleSystem     Role = "system"
	RoleUser       Role = "user"
	RoleAgent      Role = "agent"
	RoleToolResult Role = "tool-result"
)

// ToolCall is one capability request emitted by the model. It lives for a
// single loop iteration; only its result message is persisted.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is one entry in the conversation log. Immutable once appended.
// Tool-result messages carry the call that produced them so the exchange
// can be replayed to the model on later iterations.
type Message struct {
	Ordinal int       `json:"ordinal"`
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Call    *ToolCall `json:"call,omitempty"`
}

// State is the checkpointed conversation state: an append-only message log
// plus the iteration counter for the turn in flight. Owned exclusively by
// one turn at a time; the checkpoint store serializes access per
// conversation identifier.
type State struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
	Iterations     int       `json:"iterations"`
}

// Append adds a message to the log, assigning the next ordinal.
func (s *State) Append(m Message) {
	m.Ordinal = len(s.Messages)
	s.Messages = append(s.Messages, m)
}
