package core

import "github.com/pkg/errors"

// Kind classifies an error by what the caller can do about it.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindPermissionDenied
	KindValidation
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error carries a Kind and a user-facing message along with the wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func NewError(kind Kind, msg string, err ...error) error {
	e := &Error{Kind: kind, Msg: msg}
	if len(err) > 0 {
		e.Err = err[0]
	}
	return e
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func NotFoundError(msg string, err ...error) error {
	return NewError(KindNotFound, msg, err...)
}

func PermissionError(msg string, err ...error) error {
	return NewError(KindPermissionDenied, msg, err...)
}

func ConflictError(msg string, err ...error) error {
	return NewError(KindConflict, msg, err...)
}

func UnavailableError(msg string, err ...error) error {
	return NewError(KindUnavailable, msg, err...)
}

// KindOf reports the Kind of err, unwinding pkg/errors wrapping first.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	switch cause := errors.Cause(err).(type) {
	case *Error:
		return cause.Kind
	case *ValidationError:
		return KindValidation
	}
	return KindUnknown
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
