package domain

import "fmt"

// Kind classifies an error so the transport layer can map it to a
// response without inspecting message text.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindInvalidCode
	KindIllegalTransition
	KindSignature
	KindRateLimited
	KindUpstream
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvalidCode:
		return "invalid_code"
	case KindIllegalTransition:
		return "illegal_transition"
	case KindSignature:
		return "invalid_signature"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstream:
		return "upstream"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	}
	return "unknown"
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidCode(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidCode, Message: fmt.Sprintf(format, args...)}
}

func IllegalTransition(format string, args ...interface{}) *Error {
	return &Error{Kind: KindIllegalTransition, Message: fmt.Sprintf(format, args...)}
}

func Signature(format string, args ...interface{}) *Error {
	return &Error{Kind: KindSignature, Message: fmt.Sprintf(format, args...)}
}

func RateLimited(format string, args ...interface{}) *Error {
	return &Error{Kind: KindRateLimited, Message: fmt.Sprintf(format, args...)}
}

func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}
