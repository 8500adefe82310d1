package envelope

import (
	"bytes"
	"encoding/json"
)

// ErrorOnly is the envelope shape {"error": {...}} standing alone, with no
// content envelope at all. When the error object co-occurs with a content
// shape, that shape's variant extracts it instead.
type ErrorOnly struct{}

func (v *ErrorOnly) Name() string { return "error_only" }

func (v *ErrorOnly) CanHandle(payload []byte) bool {
	var probe struct {
		Messages json.RawMessage `json:"messages"`
		Message  json.RawMessage `json:"message"`
		Error    json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}
	return keyPresent(probe.Error) && !keyPresent(probe.Messages) && !keyPresent(probe.Message)
}

func (v *ErrorOnly) Extract(payload []byte) (*Reply, error) {
	var env struct {
		sidecar
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}

	return &Reply{
		Err:       env.Error,
		DebugInfo: env.DebugInfo,
	}, nil
}

// keyPresent reports whether a probed top-level key was present with a
// non-null value.
func keyPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
