package activity

import "errors"

// ErrInvalidInput indicates an activity entry that cannot be stored.
var ErrInvalidInput = errors.New("invalid activity input")
