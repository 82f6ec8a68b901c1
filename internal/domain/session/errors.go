package session

import "errors"

var (
	// ErrInvalidInput indicates invalid session input.
	ErrInvalidInput = errors.New("invalid session input")
	// ErrNoReply indicates the platform answered without a usable reply.
	ErrNoReply = errors.New("no reply from platform")
	// ErrRejected indicates the platform's reply reports a failure.
	ErrRejected = errors.New("rejected by platform")
)
