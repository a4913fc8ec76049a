// Package kio implements a segmented-buffer byte I/O engine: a pooled,
// zero-copy buffer, a buffered reader/writer layered over raw transports,
// an immutable byte-string family, and an unsafe cursor for bulk access.
package kio

import (
	"errors"
	"fmt"
)

// Kind classifies a *Error so callers can branch with errors.Is against
// the Err* sentinels below instead of string-matching messages.
type Kind int

const (
	// KindEndOfInput means the requested bytes could not be made available
	// before the upstream RawReader was exhausted.
	KindEndOfInput Kind = iota
	// KindClosed means the operation was attempted on a reader, writer, or
	// cursor that has already been closed.
	KindClosed
	// KindState means a cursor or peek reader was used outside of its
	// valid state machine transitions; always a programming error.
	KindState
	// KindInvalidInput means malformed UTF-8, an illegal numeric literal,
	// or out-of-bounds split/range arguments were supplied.
	KindInvalidInput
	// KindCancelled means an attached cancellation scope was signalled.
	KindCancelled
	// KindTimeout means an attached cancellation scope's deadline elapsed.
	KindTimeout
	// KindIO wraps a failure surfaced by a RawReader, RawWriter, or the
	// gzip framing layer.
	KindIO
	// KindInvalidated means a peek reader was used after its upstream
	// advanced past the peek's offset.
	KindInvalidated
)

func (k Kind) String() string {
	switch k {
	case KindEndOfInput:
		return "EndOfInput"
	case KindClosed:
		return "Closed"
	case KindState:
		return "State"
	case KindInvalidInput:
		return "InvalidInput"
	case KindCancelled:
		return "Cancelled"
	case KindTimeout:
		return "Timeout"
	case KindIO:
		return "IO"
	case KindInvalidated:
		return "Invalidated"
	default:
		return "Unknown"
	}
}

// Error is the error type surfaced by every operation in this package.
// It always carries a Kind so callers can use errors.Is/errors.As instead
// of matching on message text.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("kio: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("kio: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error of the same Kind. This lets
// errors.Is(err, kio.ErrClosed) work against a fresh sentinel even though
// each *Error instance carries its own message/cause.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

func newErr(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// NewError builds a *Error of the given Kind. It exists for collaborator
// packages (the gzip framing layer, transport adapters) that need to
// surface failures through the same Kind taxonomy as the core.
func NewError(kind Kind, msg string, cause error) error {
	return newErr(kind, msg, cause)
}

// Sentinel errors for errors.Is comparisons; only Kind is compared.
var (
	ErrEndOfInput    = &Error{Kind: KindEndOfInput, Message: "end of input"}
	ErrClosed        = &Error{Kind: KindClosed, Message: "closed"}
	ErrState         = &Error{Kind: KindState, Message: "invalid state"}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrCancelled     = &Error{Kind: KindCancelled, Message: "cancelled"}
	ErrTimeout       = &Error{Kind: KindTimeout, Message: "timeout"}
	ErrIO            = &Error{Kind: KindIO, Message: "io failure"}
	ErrInvalidated   = &Error{Kind: KindInvalidated, Message: "peek invalidated"}
)

// KindOf returns the Kind carried by err, or false if err is not (or does
// not wrap) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
