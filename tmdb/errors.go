package tmdb

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidPayload is returned when TMDB answers 2xx with a body that is not JSON.
var ErrInvalidPayload = errors.New("tmdb returned invalid json")

// ErrInvalidCategory rejects a category name before any request is made.
var ErrInvalidCategory = errors.New("invalid category")

// ProviderError means TMDB answered with a non-success status.
type ProviderError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *ProviderError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("failed to fetch data from TMDB: GET %s: %s", e.URL, status)
}

// NotFound reports whether TMDB answered 404.
func (e *ProviderError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// NetworkError means no response was received from TMDB at all.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("tmdb request GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNotFound reports whether err carries an upstream 404.
func IsNotFound(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.NotFound()
}
