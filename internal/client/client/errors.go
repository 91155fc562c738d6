package client

import (
	"errors"
	"fmt"
)

var (
	ErrAuth             = errors.New("authentication failed")
	ErrValidation       = errors.New("validation failed")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNetwork          = errors.New("network error")
	ErrUpdate           = errors.New("update failed")
	ErrQuery            = errors.New("query failed")
	// ErrServer marks a 5xx answer from an endpoint whose 4xx answers carry
	// a user-facing kind such as ErrAuth.
	ErrServer = errors.New("server error")
	// ErrNotFound is returned by the slug lookups.
	ErrNotFound = errors.New("not found")
)

// APIError is a classified failure. Status is the HTTP status code, or 0
// when no response was received.
type APIError struct {
	Kind    error
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

func newAPIError(kind error, status int, msg string) *APIError {
	return &APIError{Kind: kind, Status: status, Message: msg}
}

// serverFault reclassifies a 5xx *APIError as ErrServer, keeping its
// status and message. Other errors pass through.
func serverFault(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 500 {
		return newAPIError(ErrServer, apiErr.Status, apiErr.Message)
	}
	return err
}

func networkError(err error) *APIError {
	return newAPIError(ErrNetwork, 0, fmt.Sprintf("network error: %v", err))
}
