// Package dberr defines the typed error taxonomy shared across the
// engine: every fallible subsystem returns one of these kinds so
// callers can branch on category instead of parsing message text.
package dberr

import "fmt"

// Kind classifies an engine error into one of the categories the
// executor and its callers need to distinguish.
type Kind int

const (
	// KindParse covers malformed SQL text or an unsupported construct
	// surfaced from the lexer/parser.
	KindParse Kind = iota
	// KindPlan covers a logical plan the optimizer or executor cannot
	// handle (unsupported join kind, unknown function, rejected
	// QualifiedWildcard after a join, ...).
	KindPlan
	// KindSchema covers unknown or already-present tables/columns/indexes.
	KindSchema
	// KindType covers value type mismatches, null-into-not-null,
	// value-too-large, and division-by-zero.
	KindType
	// KindStorage covers page/buffer-pool/B+tree level failures.
	KindStorage
	// KindIO covers underlying file I/O failures.
	KindIO
	// KindTransaction covers transaction-not-found, not-active, and
	// lock-denied conditions.
	KindTransaction
	// KindInternal covers invariant violations: bugs.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindPlan:
		return "plan"
	case KindSchema:
		return "schema"
	case KindType:
		return "type"
	case KindStorage:
		return "storage"
	case KindIO:
		return "io"
	case KindTransaction:
		return "transaction"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the concrete error type raised by every engine package.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error with no underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf constructs an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error around an existing cause.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Wrapf constructs an Error around an existing cause with a formatted message.
func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
