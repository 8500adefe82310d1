package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnrecognizedShape is returned when a response matches none of the
// recognized envelope variants. An unknown shape is a hard error, never a
// silently empty reply.
var ErrUnrecognizedShape = errors.New("unrecognized analyst response shape")

// Variant is one recognized wire envelope shape. Implementations know how to
// detect their shape from the raw payload and how to extract the canonical
// reply from it.
type Variant interface {
	// Name returns the canonical variant name.
	Name() string

	// CanHandle reports whether the payload carries this variant's
	// distinguishing top-level key.
	CanHandle(payload []byte) bool

	// Extract converts the payload into the canonical Reply.
	Extract(payload []byte) (*Reply, error)
}

// Detector holds the closed set of recognized variants, checked in order.
type Detector struct {
	variants []Variant
}

// NewDetector creates a Detector over the full variant set:
// MessagesArray, SingleMessage, then ErrorOnly. There is no fallback;
// a payload matching none of them is an UnrecognizedShape error.
func NewDetector() *Detector {
	return &Detector{
		variants: []Variant{
			&MessagesArray{},
			&SingleMessage{},
			&ErrorOnly{},
		},
	}
}

// Detect returns the variant for the given payload, or ErrUnrecognizedShape.
func (d *Detector) Detect(payload []byte) (Variant, error) {
	for _, v := range d.variants {
		if v.CanHandle(payload) {
			return v, nil
		}
	}
	return nil, ErrUnrecognizedShape
}

// Normalize detects the envelope variant and extracts the canonical reply.
// The raw payload is always attached to the reply for audit display.
func Normalize(payload []byte) (*Reply, error) {
	if !json.Valid(payload) {
		return nil, fmt.Errorf("decoding analyst response: invalid JSON")
	}

	variant, err := NewDetector().Detect(payload)
	if err != nil {
		return nil, err
	}

	reply, err := variant.Extract(payload)
	if err != nil {
		return nil, fmt.Errorf("extracting %s envelope: %w", variant.Name(), err)
	}

	reply.Raw = append(json.RawMessage(nil), payload...)
	return reply, nil
}

// sidecar holds the fields that ride alongside content in any variant: the
// application error object and the optional debug payload.
type sidecar struct {
	Error     *ErrorInfo      `json:"error"`
	DebugInfo json.RawMessage `json:"debug_info"`
}

// mergeContent reassembles a wire-native content array from the content of
// one or more assistant messages, preserving each item's original bytes.
func mergeContent(arrays []json.RawMessage) json.RawMessage {
	switch len(arrays) {
	case 0:
		return nil
	case 1:
		return arrays[0]
	}

	// Multiple assistant messages: splice their content items into one
	// array without re-encoding any item. A content value that is not an
	// array cannot be spliced; rather than echo back a partial merge,
	// fall back to the first message's content untouched.
	var items []json.RawMessage
	for _, arr := range arrays {
		var decoded []json.RawMessage
		if err := json.Unmarshal(arr, &decoded); err != nil {
			return arrays[0]
		}
		items = append(items, decoded...)
	}

	merged, err := json.Marshal(items)
	if err != nil {
		return arrays[0]
	}
	return merged
}
