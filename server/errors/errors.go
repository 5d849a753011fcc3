package errors

import (
	"errors"
	"fmt"
)

// Error carries a code plus a human-readable message. The message never
// includes sealed-value contents or the identity of a rejected requester.
type Error struct {
	Code Code
	msg  string
}

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.msg }

// CodeOf extracts the code from an error chain, CodeUnknown otherwise.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsKind reports whether err carries a code of the given kind.
func IsKind(err error, kind Kind) bool {
	return CodeOf(err).Kind() == kind
}
