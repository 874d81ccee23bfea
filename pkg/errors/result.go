package errors

import "errors"

// Result is the structured outcome envelope surfaced to the
// application boundary: a success flag, an optional message, and the
// list of error descriptions that caused a failure.
type Result[T any] struct {
	Success bool     `json:"success"`
	Data    T        `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Ok builds a successful result carrying data.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// OkMessage builds a successful result with a caller-facing message.
func OkMessage[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Data: data, Message: message}
}

// Fail builds a failed result from an error. AppError messages are
// unwrapped into the error list; joined errors contribute one entry
// each.
func Fail[T any](message string, err error) Result[T] {
	r := Result[T]{Success: false, Message: message}
	for e := err; e != nil; e = errors.Unwrap(e) {
		r.Errors = append(r.Errors, e.Error())
	}
	if len(r.Errors) == 0 && err != nil {
		r.Errors = []string{err.Error()}
	}
	return r
}
