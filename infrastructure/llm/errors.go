package llm

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by the client and providers.
var (
	// ErrEmptyAPIKey indicates a missing provider credential.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")

	// ErrEmptyResponse indicates the provider returned no content.
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrNoResponseChoice indicates a response with no valid choices.
	ErrNoResponseChoice = errors.New("no response choices returned")
)

// ErrorType classifies a provider error for standardized handling,
// such as deciding retryability.
type ErrorType int

const (
	// ErrorTypeUnknown is an error of undetermined category.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeAuthentication is an invalid or rejected credential.
	ErrorTypeAuthentication
	// ErrorTypeRateLimit is an exceeded provider rate limit.
	ErrorTypeRateLimit
	// ErrorTypeBadRequest is a malformed request or invalid parameter.
	ErrorTypeBadRequest
	// ErrorTypeNotFound is a missing resource such as an unknown model.
	ErrorTypeNotFound
	// ErrorTypeServerError is a failure on the provider's side.
	ErrorTypeServerError
	// ErrorTypeTimeout is an exceeded request deadline.
	ErrorTypeTimeout
	// ErrorTypeCanceled is a caller-canceled request.
	ErrorTypeCanceled
)

// ProviderError normalizes provider-specific failures into a common
// shape with a classified type and the original error preserved.
type ProviderError struct {
	// Provider names the LLM provider that produced the error.
	Provider string

	// Type classifies the failure.
	Type ErrorType

	// StatusCode is the HTTP status from the provider, if applicable.
	StatusCode int

	// Message is the provider's error message.
	Message string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s error", e.Provider)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error { return e.Err }

// IsRetryable reports whether the failed request is worth retrying.
// Rate limits, server errors, and timeouts are transient; everything
// else is not.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// NewProviderError creates a ProviderError with the given details.
func NewProviderError(provider string, errType ErrorType, statusCode int, message string, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Type:       errType,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// classifyStatus maps an HTTP status code from a provider to an
// ErrorType.
func classifyStatus(status int) ErrorType {
	switch {
	case status == 401 || status == 403:
		return ErrorTypeAuthentication
	case status == 404:
		return ErrorTypeNotFound
	case status == 429:
		return ErrorTypeRateLimit
	case status == 408:
		return ErrorTypeTimeout
	case status >= 500:
		return ErrorTypeServerError
	case status >= 400:
		return ErrorTypeBadRequest
	default:
		return ErrorTypeUnknown
	}
}

// classifyContextError maps context cancellation and deadline errors
// onto the provider error taxonomy.
func classifyContextError(provider string, err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(provider, ErrorTypeTimeout, 0, "request timed out", err)
	}
	return NewProviderError(provider, ErrorTypeCanceled, 0, "request canceled", err)
}
