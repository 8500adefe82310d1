// Package envelope normalizes analyst responses. The service has shipped at
// least three incompatible reply shapes; each recognized shape is a Variant
// and a Detector picks the extraction path, so a payload is never parsed with
// the wrong shape's field names.
package envelope

import "encoding/json"

// ErrorInfo is the application-level error object the analyst embeds in an
// otherwise successful HTTP response.
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Reply is the canonical normalized form every recognized envelope converges
// to, independent of which wire variant was received.
type Reply struct {
	// Text is the narrative, the ordered newline-join of every text item.
	// Empty when the reply carried no narrative; callers render an explicit
	// placeholder rather than an empty bubble.
	Text string

	// SQL holds every SQL item in order. The first is canonical for
	// execution; all are retained for display.
	SQL []string

	// Err is the application-level error, if the error envelope was present.
	// It can co-occur with partial narrative content.
	Err *ErrorInfo

	// Content is the wire-native assistant content array, byte-preserved so
	// the conversation store can echo it back unmodified on the next turn.
	Content json.RawMessage

	// DebugInfo is the service's debug payload when debug mode was requested.
	DebugInfo json.RawMessage

	// Raw is the full undecoded response body, retained for audit display.
	Raw json.RawMessage
}

// FirstSQL returns the canonical statement for execution, or "" when the
// reply carried no SQL.
func (r *Reply) FirstSQL() string {
	if len(r.SQL) == 0 {
		return ""
	}
	return r.SQL[0]
}
