// Package errors defines the typed error taxonomy used at the corekb
// boundary: input validation, state, resource, deadline, dependency,
// and internal invariant failures. Every exported error carries a
// stable Code for callers that need to branch on failure kind, and an
// optional Cause for chaining with the standard errors package.
package errors

import "fmt"

// Code identifies the kind of failure at the corekb boundary.
type Code string

const (
	CodeSearchInitError       Code = "SEARCH_INIT_ERROR"
	CodeSearchNotInitialized  Code = "SEARCH_NOT_INITIALIZED"
	CodeSearchTimeout         Code = "SEARCH_TIMEOUT"
	CodeSearchExecutionError  Code = "SEARCH_EXECUTION_ERROR"
	CodeCacheError            Code = "CACHE_ERROR"
	CodeInvalidQuery          Code = "INVALID_QUERY"
	CodeShutdown              Code = "SEARCH_ENGINE_SHUTDOWN"
)

// Error is the corekb boundary error: a stable Code, a human message,
// and an optional wrapped Cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is/errors.As traverse into Cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a boundary error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a boundary error around an existing cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Is reports whether err carries the given Code, unwrapping as needed.
func Is(err error, code Code) bool {
	for err != nil {
		if be, ok := err.(*Error); ok {
			if be.Code == code {
				return true
			}
			err = be.Cause
			continue
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// NotInitialized is returned by every operation that requires
// Initialize to have completed first.
func NotInitialized() *Error {
	return New(CodeSearchNotInitialized, "search engine has not completed initialize()")
}

// ShutdownError is returned by operations issued after shutdown().
func ShutdownError() *Error {
	return New(CodeShutdown, "search engine has been shut down")
}

// Timeout is returned when a search exceeds its deadline.
func Timeout(query string, budget string) *Error {
	return New(CodeSearchTimeout, fmt.Sprintf("search for %q exceeded its %s budget", query, budget))
}

// QueryTooLong is returned when validation flags an over-length query
// as an error rather than a warning (reserved for callers enforcing a
// hard cap stricter than the parser's own warning threshold).
func QueryTooLong(length, max int) *Error {
	return New(CodeInvalidQuery, fmt.Sprintf("query length %d exceeds maximum %d", length, max))
}
