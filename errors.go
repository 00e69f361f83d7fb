/*
Package projector – error types.

Every failure of the projector carries one of a small set of codes so callers
can tell configuration mistakes from transport failures.
*/
package projector

import (
	"errors"
	"fmt"
)

// ErrorCode is a well-known error category string.
type ErrorCode string

const (
	// ErrSchemaViolation: unknown input names (strict mode), malformed input
	// values, missing required fields, or a malformed schema.
	ErrSchemaViolation ErrorCode = "SchemaViolation"
	// ErrFieldNotFound: a selection did not resolve against the response or inputs.
	ErrFieldNotFound ErrorCode = "FieldNotFound"
	// ErrTransport: opaque failure returned by the transport.
	ErrTransport ErrorCode = "TransportError"
	// ErrArgument: invalid arguments to the projector API itself.
	ErrArgument ErrorCode = "ArgumentError"
)

// Error implements error so codes can be used as errors.Is targets:
//
//	errors.Is(err, projector.ErrSchemaViolation)
func (c ErrorCode) Error() string { return string(c) }

// Error is the projector's error type. It carries a Code and an optional
// Context map for extra reporting data.
type Error struct {
	Message string
	Code    ErrorCode
	Context map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Code == ErrTransport && e.Cause != nil {
		return e.Cause.Error()
	}
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error with the same code, or the bare ErrorCode.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case ErrorCode:
		return e.Code == t
	case *Error:
		return t.Code != "" && e.Code == t.Code
	}
	return false
}

// NewError constructs an Error.
func NewError(msg string, opts ...func(*Error)) *Error {
	err := &Error{Message: msg}
	for _, o := range opts {
		o(err)
	}
	return err
}

// WithCode sets the error code.
func WithCode(c ErrorCode) func(*Error) {
	return func(e *Error) { e.Code = c }
}

// WithContext attaches a context map.
func WithContext(ctx map[string]any) func(*Error) {
	return func(e *Error) { e.Context = ctx }
}

// WithCause wraps an underlying error.
func WithCause(cause error) func(*Error) {
	return func(e *Error) { e.Cause = cause }
}

func schemaViolation(msg string, opts ...func(*Error)) *Error {
	return NewError(msg, append([]func(*Error){WithCode(ErrSchemaViolation)}, opts...)...)
}

func fieldNotFound(msg string, ctx map[string]any) *Error {
	return NewError(msg, WithCode(ErrFieldNotFound), WithContext(ctx))
}

func argError(msg string) *Error {
	return NewError(msg, WithCode(ErrArgument))
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
