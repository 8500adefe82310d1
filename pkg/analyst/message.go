// Package analyst is the HTTP client for the hosted Cortex Analyst endpoint.
// It sends conversation turns, carries the bearer credential, and hands the
// raw JSON reply to the envelope package for normalization.
package analyst

import (
	"encoding/json"
	"fmt"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn on the analyst wire. Content is kept as the raw JSON
// content array so assistant turns are echoed back byte-for-byte: the service
// expects its own emitted content shape replayed for conversational context,
// and re-encoding through a typed struct would silently drop fields it emits
// that we do not model.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// ContentBlock is a single typed fragment within a user message. Assistant
// content stays opaque; this struct only exists to synthesize user turns.
type ContentBlock struct {
	Type string `json:"type"` // "text" or "sql"
	Text string `json:"text,omitempty"`
	SQL  string `json:"sql,omitempty"`
}

// NewUserMessage synthesizes the wire form of a user question:
// {"role":"user","content":[{"type":"text","text":...}]}.
func NewUserMessage(question string) (Message, error) {
	content, err := json.Marshal([]ContentBlock{{Type: "text", Text: question}})
	if err != nil {
		return Message{}, fmt.Errorf("encoding user content: %w", err)
	}

	return Message{Role: RoleUser, Content: content}, nil
}
