// Package errors provides sentinel errors shared by the search and catalog services.
package errors

import "errors"

var (
	ErrSessionNotFound = errors.New("search session not found")
	ErrSessionClosed   = errors.New("search session manager closed")
	ErrRecordNotFound  = errors.New("catalog record not found")
)
