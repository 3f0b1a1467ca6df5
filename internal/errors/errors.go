// Package errors defines the typed error taxonomy the executor and storage
// layer use to decide retry and propagation behavior.
package errors

import "fmt"

// Kind identifies one of the engine's error categories.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindTemplate    Kind = "template"
	KindTool        Kind = "tool"
	KindProtocol    Kind = "protocol"
	KindProvider    Kind = "provider"
	KindComposition Kind = "composition"
	KindTimeout     Kind = "timeout"
	KindCancelled   Kind = "cancelled"
	KindStorage     Kind = "storage"
)

// Error is the concrete type behind every engine-raised error. Callers
// type-assert with errors.As or inspect Kind() to decide retry/propagation.
type Error struct {
	kind      Kind
	msg       string
	retryable bool
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error category.
func (e *Error) Kind() Kind { return e.kind }

// Retryable reports whether the executor's step loop should honor a
// configured retry policy for this error.
func (e *Error) Retryable() bool { return e.retryable }

func newf(kind Kind, retryable bool, format string, args ...any) *Error {
	return &Error{kind: kind, retryable: retryable, msg: fmt.Sprintf(format, args...)}
}

func wrap(kind Kind, retryable bool, cause error, msg string) *Error {
	return &Error{kind: kind, retryable: retryable, cause: cause, msg: msg}
}

// Validation errors surface before any execution row is written.
func Validation(format string, args ...any) *Error {
	return newf(KindValidation, false, format, args...)
}

// Template errors abort the step that triggered them; never retried
// automatically (a malformed template will not heal on retry).
func Template(format string, args ...any) *Error {
	return newf(KindTemplate, false, format, args...)
}

// Tool errors: disconnected server, error payload, or non-zero shell exit.
// Retryable when the step declares a retry policy.
func Tool(format string, args ...any) *Error {
	return newf(KindTool, true, format, args...)
}

func ToolWrap(cause error, format string, args ...any) *Error {
	return wrap(KindTool, true, cause, fmt.Sprintf(format, args...))
}

// Protocol errors indicate the tool server spoke outside the expected
// message shape; never retried.
func Protocol(format string, args ...any) *Error {
	return newf(KindProtocol, false, format, args...)
}

func ProtocolWrap(cause error, format string, args ...any) *Error {
	return wrap(KindProtocol, false, cause, fmt.Sprintf(format, args...))
}

// Provider errors: the LLM backend is unavailable or returned an error.
// Retryable when the step declares a retry policy.
func Provider(format string, args ...any) *Error {
	return newf(KindProvider, true, format, args...)
}

func ProviderWrap(cause error, format string, args ...any) *Error {
	return wrap(KindProvider, true, cause, fmt.Sprintf(format, args...))
}

// Composition errors: unknown sub-workflow or cycle. Never retried.
func Composition(format string, args ...any) *Error {
	return newf(KindComposition, false, format, args...)
}

// Timeout errors abort the whole workflow, not just a step.
func Timeout(format string, args ...any) *Error {
	return newf(KindTimeout, false, format, args...)
}

// Cancelled is terminal; never retried.
func Cancelled(format string, args ...any) *Error {
	return newf(KindCancelled, false, format, args...)
}

// Storage errors propagate upward; the executor never swallows these.
func StorageWrap(cause error, format string, args ...any) *Error {
	return wrap(KindStorage, false, cause, fmt.Sprintf(format, args...))
}

// As reports whether err is (or wraps) an *Error and returns it.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	if ok {
		return e, true
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return As(u.Unwrap())
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.kind
	}
	return ""
}

// Retryable reports whether err, if an *Error, is marked retryable.
func Retryable(err error) bool {
	e, ok := As(err)
	return ok && e.retryable
}
