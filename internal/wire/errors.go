package wire

import (
	"errors"
	"strings"
)

var (
	ErrConnection = errors.New("connection error")
	ErrProtocol   = errors.New("protocol error")
	ErrState      = errors.New("not connected")
)

// Error carries the failure kind (one of the Err* sentinels), the operation
// that failed and, when there was one, the server reply that caused it.
type Error struct {
	Kind  error
	Op    string
	Reply string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Reply != "" {
		b.WriteString(": ")
		b.WriteString(e.Reply)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func ConnectionError(op, reply string, err error) error {
	return &Error{Kind: ErrConnection, Op: op, Reply: reply, Err: err}
}

func ProtocolError(op, reply string, err error) error {
	return &Error{Kind: ErrProtocol, Op: op, Reply: reply, Err: err}
}

func StateError(op string) error {
	return &Error{Kind: ErrState, Op: op}
}

// Kind reports a short label for err suitable for metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrState):
		return "state"
	default:
		return "other"
	}
}
