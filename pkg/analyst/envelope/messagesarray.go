package envelope

import (
	"encoding/json"
	"strings"
)

// MessagesArray is the envelope shape {"messages": [...]}: a full message
// list where each message has a role and a content array of typed items.
// SQL items carry their statement under the field name "sql".
type MessagesArray struct{}

func (v *MessagesArray) Name() string { return "messages_array" }

func (v *MessagesArray) CanHandle(payload []byte) bool {
	var probe struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}
	return keyPresent(probe.Messages)
}

// arrayItem is a content item in the messages-array shape.
type arrayItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
	SQL  string `json:"sql"`
}

func (v *MessagesArray) Extract(payload []byte) (*Reply, error) {
	var env struct {
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
		sidecar
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}

	reply := &Reply{
		Err:       env.Error,
		DebugInfo: env.DebugInfo,
	}

	var texts []string
	var contents []json.RawMessage
	for _, msg := range env.Messages {
		if msg.Role != "assistant" || !keyPresent(msg.Content) {
			continue
		}

		contents = append(contents, msg.Content)

		var items []arrayItem
		if err := json.Unmarshal(msg.Content, &items); err != nil {
			return nil, err
		}

		for _, item := range items {
			switch item.Type {
			case "text":
				texts = append(texts, item.Text)
			case "sql":
				reply.SQL = append(reply.SQL, item.SQL)
			}
		}
	}

	reply.Text = strings.Join(texts, "\n")
	reply.Content = mergeContent(contents)

	return reply, nil
}
