package processor

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a file could not be cleaned.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	UnsupportedFormat
	DecodeError
	EncodeError
	MissingExternalTool
	ExternalToolFailure
	IOError
)

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedFormat:
		return "unsupported format"
	case DecodeError:
		return "decode error"
	case EncodeError:
		return "encode error"
	case MissingExternalTool:
		return "missing external tool"
	case ExternalToolFailure:
		return "external tool failure"
	case IOError:
		return "io error"
	default:
		return "none"
	}
}

// ErrUnsupported is the cause carried by UnsupportedFormat errors.
var ErrUnsupported = errors.New("unsupported file type")

// Error pairs an ErrorKind with its cause. Its message is the cause's
// message, so the kind never leaks into user-facing reasons.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the ErrorKind carried by err, IOError for untyped errors,
// and KindNone for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return IOError
}

// asError normalises any handler error into an *Error.
func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(IOError, err)
}
