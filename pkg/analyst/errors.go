package analyst

import "fmt"

// TransportError is an HTTP-layer failure talking to the analyst endpoint:
// either a non-2xx status (Status and Body populated) or a network/timeout
// failure (Cause populated). It is distinct from an application-level error,
// which arrives inside a well-formed 200 response and is surfaced on the
// normalized reply instead.
type TransportError struct {
	Status int
	Body   string
	Cause  error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("analyst request failed: %v", e.Cause)
	}
	return fmt.Sprintf("analyst returned status %d: %s", e.Status, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
