package serp

import (
	"errors"
	"fmt"
)

// Kind classifies a search failure.
type Kind int

const (
	// KindInput marks invalid caller input (empty query, bad result cap).
	// Input errors are raised before any network activity.
	KindInput Kind = iota
	// KindTransport marks HTTP-level failures: non-2xx status, network
	// errors, and cancellation.
	KindTransport
	// KindChallenge marks exhaustion of the bounded challenge-retry budget.
	KindChallenge
	// KindExtract marks unexpected failures while parsing the results page.
	KindExtract
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindTransport:
		return "transport"
	case KindChallenge:
		return "challenge"
	case KindExtract:
		return "extract"
	}
	return "unknown"
}

// Error is the single error type surfaced by providers. It carries a
// human-readable message and the underlying cause for diagnostics.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("serp: %s: %v", e.Msg, e.Err)
	}
	return "serp: " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps cause in an Error of the given kind.
func NewError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// IsKind reports whether err is, or wraps, a serp.Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}
