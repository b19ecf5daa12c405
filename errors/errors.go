package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind represents the category of a connector or relay failure
type Kind int

const (
	KindNone Kind = iota
	ResolutionError
	TimeoutError
	ConnectionError
	ReadError
	WriteError
	InputError
	InitError
	CloseError
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "no error"
	case ResolutionError:
		return "Address resolution failed"
	case TimeoutError:
		return "Connect timed out"
	case ConnectionError:
		return "Connection failed"
	case ReadError:
		return "Socket read failed"
	case WriteError:
		return "Socket write failed"
	case InputError:
		return "Input read failed"
	case InitError:
		return "Initialization failed"
	case CloseError:
		return "Socket close failed"
	default:
		return fmt.Sprintf("Unknown error kind: %d", int(k))
	}
}

// Error is the error type returned by the transport and relay packages
type Error struct {
	Kind          Kind
	Message       string
	UnderlyingErr error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "no error"
	}

	s := e.Kind.String()
	if e.Message != "" {
		s = fmt.Sprintf("%s: %s", s, e.Message)
	}

	if e.UnderlyingErr != nil {
		return fmt.Sprintf("%s (caused by: %v)", s, e.UnderlyingErr)
	}

	return s
}

// Unwrap returns the underlying error for error chain support
func (e *Error) Unwrap() error {
	return e.UnderlyingErr
}

// New creates a new error of the given kind
func New(kind Kind, message string, underlying error) *Error {
	return &Error{
		Kind:          kind,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindNone.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
