package schema

import (
	"errors"
	"fmt"
)

// Error codes for classified pipeline failures.
const (
	ErrCodeSchema          = "SCHEMA_ERROR"
	ErrCodeShape           = "SHAPE_ERROR"
	ErrCodeUnsupportedKind = "UNSUPPORTED_KIND"
)

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrSchema          = &DiagramError{Code: ErrCodeSchema}
	ErrShape           = &DiagramError{Code: ErrCodeShape}
	ErrUnsupportedKind = &DiagramError{Code: ErrCodeUnsupportedKind}
)

// DiagramError is the structured error type returned by validation and rendering.
type DiagramError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Kind    string         `json:"kind,omitempty"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *DiagramError) Error() string {
	switch {
	case e.Kind != "" && e.Field != "":
		return fmt.Sprintf("[%s] %s %s: %s", e.Code, e.Kind, e.Field, e.Message)
	case e.Kind != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Kind, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DiagramError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DiagramError with the same code.
func (e *DiagramError) Is(target error) bool {
	t, ok := target.(*DiagramError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new DiagramError.
func NewError(code, message string) *DiagramError {
	return &DiagramError{Code: code, Message: message}
}

// NewErrorf creates a new DiagramError with a formatted message.
func NewErrorf(code, format string, args ...any) *DiagramError {
	return &DiagramError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewUnsupportedKindError names the offending kind value.
func NewUnsupportedKindError(kind string) *DiagramError {
	return NewErrorf(ErrCodeUnsupportedKind, "unsupported diagram kind %q", kind).WithKind(kind)
}

// WithKind attaches the diagram kind.
func (e *DiagramError) WithKind(kind string) *DiagramError {
	e.Kind = kind
	return e
}

// WithField attaches the payload field the error refers to, as a JSON pointer.
func (e *DiagramError) WithField(field string) *DiagramError {
	e.Field = field
	return e
}

// WithCause attaches an underlying cause.
func (e *DiagramError) WithCause(err error) *DiagramError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *DiagramError) WithDetails(details map[string]any) *DiagramError {
	e.Details = details
	return e
}

// IsClientError reports whether err is a classified input failure, as opposed to an
// unexpected internal one. Transports map the former to a client error status.
func IsClientError(err error) bool {
	var de *DiagramError
	if !errors.As(err, &de) {
		return false
	}
	switch de.Code {
	case ErrCodeSchema, ErrCodeShape, ErrCodeUnsupportedKind:
		return true
	}
	return false
}

// ErrorCode returns the code of the first DiagramError in err's chain, or "".
func ErrorCode(err error) string {
	var de *DiagramError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
