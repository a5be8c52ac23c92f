package device

import "errors"

type Kind int

const (
	KindGeneric Kind = iota
	KindUsage
	KindUnreachable
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindUnreachable:
		return "unreachable"
	case KindTimeout:
		return "timeout"
	default:
		return "generic"
	}
}

// ErrTimedOut is wrapped by errors caused by a deadline, whatever their kind.
// A handshake that never finished is unreachable but still timed out.
var ErrTimedOut = errors.New("timed out")

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind attached to err, KindGeneric if there is none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindGeneric
}

// TimedOut reports whether err is a timeout or was caused by one
func TimedOut(err error) bool {
	return KindOf(err) == KindTimeout || errors.Is(err, ErrTimedOut)
}
