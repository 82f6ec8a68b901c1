package remote

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a client or slot connection is built from
// an unusable address.
var ErrInvalidConfig = errors.New("invalid remote configuration")

// StatusError is returned when the platform answers an event with a non-2xx status.
type StatusError struct {
	Event string
	Code  int
	Body  string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote event %s: status %d", e.Event, e.Code)
	}
	return fmt.Sprintf("remote event %s: status %d: %s", e.Event, e.Code, e.Body)
}
