package envelope

import (
	"encoding/json"
	"strings"
)

// SingleMessage is the envelope shape {"message": {"content": [...]}}: a
// single reply object. Unlike the messages-array shape, SQL items carry
// their statement under the field name "statement" — the two shapes are not
// interchangeable, and extracting this one with the array shape's field
// names would silently lose every statement.
type SingleMessage struct{}

func (v *SingleMessage) Name() string { return "single_message" }

func (v *SingleMessage) CanHandle(payload []byte) bool {
	var probe struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}
	return keyPresent(probe.Message)
}

// singleItem is a content item in the single-message shape.
type singleItem struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Statement string `json:"statement"`
}

func (v *SingleMessage) Extract(payload []byte) (*Reply, error) {
	var env struct {
		Message struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		sidecar
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}

	reply := &Reply{
		Err:       env.Error,
		DebugInfo: env.DebugInfo,
	}

	if keyPresent(env.Message.Content) {
		reply.Content = env.Message.Content

		var items []singleItem
		if err := json.Unmarshal(env.Message.Content, &items); err != nil {
			return nil, err
		}

		var texts []string
		for _, item := range items {
			switch item.Type {
			case "text":
				texts = append(texts, item.Text)
			case "sql":
				reply.SQL = append(reply.SQL, item.Statement)
			}
		}
		reply.Text = strings.Join(texts, "\n")
	}

	return reply, nil
}
