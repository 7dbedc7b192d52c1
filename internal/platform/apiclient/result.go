package apiclient

import (
	"fmt"
	"net/http"
	"strings"
)

// Result is the envelope every client operation resolves to. Error is never
// blank on failure. Status is zero when no HTTP response was received.
type Result[T any] struct {
	Data   T
	Error  string
	Status int
}

func (r Result[T]) OK() bool { return r.Error == "" }

// Err converts a failed result into an *Error, or returns nil.
func (r Result[T]) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Status: r.Status, Message: r.Error}
}

func success[T any](data T, status int) Result[T] {
	return Result[T]{Data: data, Status: status}
}

func failure[T any](message string, status int) Result[T] {
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("%d %s", status, http.StatusText(status))
	}
	return Result[T]{Error: message, Status: status}
}

func transportFailure[T any](err error) Result[T] {
	message := "Unknown error"
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	return Result[T]{Error: message}
}

type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return "network error: " + e.Message
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *Error) IsUnauthorized() bool { return e.Status == http.StatusUnauthorized }

// IsTransport reports whether the request never produced an HTTP response.
func (e *Error) IsTransport() bool { return e.Status == 0 }
