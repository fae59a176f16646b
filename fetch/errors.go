package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrCanceled is the cancellation cause of a superseded request. A
	// response that ends with it is dropped, never published as an error.
	ErrCanceled = errors.New("fetch: request superseded")

	// ErrClosed is returned by Wait once the coordinator has been closed.
	ErrClosed = errors.New("fetch: coordinator closed")
)

// IsCanceled reports whether err is a cancellation rather than a failure.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// ResponseError is a non-success answer from the content API. Message is the
// envelope's message when the server sent one.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("content api returned %d: %s", e.StatusCode, msg)
}

// NetworkError means the content API could not be reached.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("content api GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
