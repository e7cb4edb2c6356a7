// Package apperr defines the client-facing error taxonomy shared by all
// domain services. Handlers translate an error's Kind into an HTTP status.
package apperr

import "fmt"

// Kind classifies an error by how it should be reported to the client.
type Kind uint8

const (
	// KindInternal is the zero Kind, reported as a generic server error.
	KindInternal Kind = iota
	// KindNotFound reports a missing entity.
	KindNotFound
	// KindBadRequest reports a request that failed validation or a business rule.
	KindBadRequest
	// KindUnauthorized reports a missing or invalid credential.
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindBadRequest:
		return "bad request"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Kind sentinels. errors.Is(err, ErrNotFound) reports true for every
// *Error of KindNotFound, whatever its message.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrBadRequest   = &Error{Kind: KindBadRequest}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
)

// Error is a domain error carrying a Kind and a client-safe message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is matches Kind sentinels (errors without a message) by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" {
		return false
	}
	return t.Kind == e.Kind
}

// NotFound returns a KindNotFound error with the given message.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// BadRequest returns a KindBadRequest error with the given message.
func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// BadRequestf returns a KindBadRequest error with a formatted message.
func BadRequestf(format string, args ...any) *Error {
	return BadRequest(fmt.Sprintf(format, args...))
}

// Unauthorized returns a KindUnauthorized error with the given message.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}
