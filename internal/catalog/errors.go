package catalog

import (
	"errors"
	"fmt"
)

// FetchError reports a transport failure or a non-success response from the catalog endpoint.
type FetchError struct {
	// Message is shown to the user as is.
	Message string
	// StatusCode is the HTTP status of the response, 0 for transport errors.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is, or wraps, a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

func newStatusError(status int) *FetchError {
	return &FetchError{
		Message:    "Failed to fetch products",
		StatusCode: status,
		Err:        fmt.Errorf("unexpected status %d", status),
	}
}

func newTransportError(err error) *FetchError {
	return &FetchError{
		Message: fmt.Sprintf("Failed to fetch products: %v", err),
		Err:     err,
	}
}
