package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors for provider operations.
var (
	// ErrNotFound indicates a domain or record was not found.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates authentication failed or the token lacks scope.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the provider rejected the request due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderUnavailable indicates the provider API returned a server error.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInvalidRequest indicates the provider rejected the request payload.
	ErrInvalidRequest = errors.New("invalid request")
)

// APIError is an error reported by the provider in an HTTP response body.
// It is distinct from transport failures, which never produce an APIError.
type APIError struct {
	StatusCode int
	ID         string // Provider error identifier, e.g. "not_found"
	Message    string
}

func (e *APIError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.ID, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// Unwrap maps the status code onto one of the sentinel errors.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode >= 500:
		return ErrProviderUnavailable
	case e.StatusCode >= 400:
		return ErrInvalidRequest
	}
	return nil
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider  string
	Operation string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{
		Provider:  provider,
		Operation: operation,
		Err:       err,
	}
}

// IsNotFound returns true if the error indicates a domain or record was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized returns true if the error indicates authentication failed.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsPermanent reports whether retrying the failed request cannot succeed.
// Client errors other than rate limiting are permanent; transport failures,
// rate limiting and server errors are not.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidRequest)
}
