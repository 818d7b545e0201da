package response

import "time"

// Result is either a list of items or a classified error.
type Result[T any] struct {
	items []T
	err   *Error
}

func Ok[T any](items []T) Result[T] {
	return Result[T]{items: items}
}

func Err[T any](kind Kind, message string) Result[T] {
	return Result[T]{err: &Error{Kind: kind, Message: message}}
}

// FromError converts a service error into a failed Result, keeping its
// classification when it has one.
func FromError[T any](err error) Result[T] {
	return Result[T]{err: &Error{Kind: KindOf(err), Message: MessageOf(err), Err: err}}
}

func (r Result[T]) IsOk() bool { return r.err == nil }

func (r Result[T]) Items() []T { return r.items }

// Error returns the failure, or nil for Ok results.
func (r Result[T]) Error() *Error { return r.err }

// Resolve turns r into an HTTP status and envelope. successStatus is used for Ok results.
func (r Result[T]) Resolve(successStatus int, apiVersion string, requestDate time.Time) (int, Envelope[T]) {
	if r.err != nil {
		status := r.err.Kind.Status()
		return status, Failure[T](r.err.Message, status, apiVersion, requestDate)
	}
	return successStatus, Success(r.items, successStatus, apiVersion, requestDate)
}
