package session

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Operation names a catalog call whose reply is validated.
type Operation string

const (
	OpJoin   Operation = "join"
	OpCreate Operation = "create"
	OpKill   Operation = "kill"
)

// ReplyValidator decides whether a reply to op means the call succeeded.
type ReplyValidator interface {
	Validate(op Operation, reply gjson.Result) error
}

// LenientValidator accepts any reply. A join still needs an object to read
// tokens from.
type LenientValidator struct{}

func (LenientValidator) Validate(op Operation, reply gjson.Result) error {
	if op == OpJoin && !reply.IsObject() {
		return fmt.Errorf("%w: %s", ErrNoReply, op)
	}
	return nil
}

// StrictValidator rejects empty replies, replies carrying an error marker, and
// joins that did not hand out tokens.
type StrictValidator struct{}

func (StrictValidator) Validate(op Operation, reply gjson.Result) error {
	if !reply.Exists() || reply.Type == gjson.Null {
		return fmt.Errorf("%w: %s", ErrNoReply, op)
	}
	if reply.IsObject() {
		for _, key := range []string{"error", "exception", "errorMessage"} {
			if msg := reply.Get(key); msg.Exists() && msg.Type != gjson.Null && msg.String() != "" {
				return fmt.Errorf("%w: %s: %s", ErrRejected, op, msg.String())
			}
		}
		if ok := reply.Get("success"); ok.Exists() && ok.Type == gjson.False {
			return fmt.Errorf("%w: %s reported failure", ErrRejected, op)
		}
	}
	if reply.Type == gjson.False {
		return fmt.Errorf("%w: %s reported failure", ErrRejected, op)
	}
	if op == OpJoin {
		if !reply.IsObject() {
			return fmt.Errorf("%w: %s", ErrNoReply, op)
		}
		if reply.Get("serverToken").String() == "" || reply.Get("sessionClientToken").String() == "" {
			return fmt.Errorf("%w: %s returned no tokens", ErrRejected, op)
		}
	}
	return nil
}
