// Package apperr defines the error kinds the application layer reports to its callers.
//
// Every use case fails with one of three kinds, or with an unclassified infrastructure
// error. Mapping kinds to transport status codes happens at the adapter boundary only.
package apperr

import "errors"

// Kind classifies an application error.
type Kind int

const (
	// KindNotFound: the referenced entity does not exist.
	KindNotFound Kind = iota + 1
	// KindForbidden: the entity exists but the caller lacks the required membership.
	KindForbidden
	// KindRenderUnavailable: the layout renderer failed, timed out or returned nothing.
	KindRenderUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindRenderUnavailable:
		return "render_unavailable"
	default:
		return "unknown"
	}
}

// Error is an application-layer error that can be mapped to an outward response.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Err is the underlying cause, kept for logs. It is never shown to clients.
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

func RenderUnavailable(code, message string, cause error) *Error {
	return &Error{Kind: KindRenderUnavailable, Code: code, Message: message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}
