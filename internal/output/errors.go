package output

import (
	"errors"
	"fmt"
)

// Exit codes returned by the eysh binary.
const (
	ExitOK       = 0
	ExitUsage    = 1 // invalid arguments or flags
	ExitNotFound = 2
	ExitAuth     = 3 // not logged in, token rejected
	ExitNetwork  = 4 // backend unreachable
	ExitAPI      = 5 // backend returned an error
)

// Error codes carried in the JSON error envelope.
const (
	CodeUsage    = "usage"
	CodeNotFound = "not_found"
	CodeAuth     = "auth_required"
	CodeNetwork  = "network"
	CodeAPI      = "api_error"
)

// ExitCodeFor returns the exit code for an error code.
func ExitCodeFor(code string) int {
	switch code {
	case CodeUsage:
		return ExitUsage
	case CodeNotFound:
		return ExitNotFound
	case CodeAuth:
		return ExitAuth
	case CodeNetwork:
		return ExitNetwork
	default:
		return ExitAPI
	}
}

// Error is a user-facing failure with an optional hint.
type Error struct {
	Code    string
	Message string
	Hint    string
	Cause   error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Hint)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// ExitCode returns the process exit code for e.
func (e *Error) ExitCode() int { return ExitCodeFor(e.Code) }

func ErrUsage(msg string) *Error {
	return &Error{Code: CodeUsage, Message: msg}
}

func ErrAuth(msg string, cause error) *Error {
	return &Error{Code: CodeAuth, Message: msg, Hint: "run: eysh login", Cause: cause}
}

func ErrNotFound(resource, id string, cause error) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s not found: %s", resource, id), Cause: cause}
}

func ErrNetwork(cause error) *Error {
	return &Error{Code: CodeNetwork, Message: "cannot reach the EYSH server", Hint: "check --api-url", Cause: cause}
}

// AsError returns err as an *Error, wrapping unknown errors as CodeAPI.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeAPI, Message: err.Error(), Cause: err}
}
