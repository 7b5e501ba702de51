package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rhuss/askgate/pkg/api"
)

// Error is a failed call to a generation backend.
type Error struct {
	Provider   string
	StatusCode int // 0 for network failures
	Message    string
	Retryable  bool

	// Blocked is set when the backend refused to answer the prompt.
	Blocked bool

	// KeyRejected is set when the backend refused the API key. Keys are
	// provider-specific, so another key or another provider may succeed.
	KeyRejected bool

	Err error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %d %s", e.Provider, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPError classifies a non-2xx backend status. 408, 429 and 5xx are
// worth another attempt, and so are 401 and 403 since they reject the key
// rather than the request. Everything else would fail the same way again.
func HTTPError(providerName string, status int, message string) *Error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return KeyError(providerName, status, message)
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{
		Provider:   providerName,
		StatusCode: status,
		Message:    message,
		Retryable: status == http.StatusTooManyRequests ||
			status == http.StatusRequestTimeout ||
			status >= http.StatusInternalServerError,
	}
}

// KeyError reports an API key the backend refused, whatever status it
// used to say so.
func KeyError(providerName string, status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{
		Provider:    providerName,
		StatusCode:  status,
		Message:     message,
		Retryable:   true,
		KeyRejected: true,
	}
}

// NetworkError wraps a transport failure. Cancellation by the caller is not
// retryable; anything else (refused, reset, timeout) is.
func NetworkError(providerName string, err error) *Error {
	return &Error{
		Provider:  providerName,
		Message:   "backend connection error",
		Retryable: !errors.Is(err, context.Canceled),
		Err:       err,
	}
}

// BlockedError reports a prompt the backend refused to answer.
func BlockedError(providerName, reason string) *Error {
	return &Error{
		Provider: providerName,
		Message:  "prompt blocked: " + reason,
		Blocked:  true,
	}
}

// IsRetryable reports whether err is a provider failure that another
// attempt, possibly with another key, might fix.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// ToAPIError maps a provider failure to the client-facing error taxonomy.
// Backend status text is passed through for quota errors since browser
// clients look for it; other backend details stay in the logs.
func ToAPIError(err error) *api.APIError {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var pe *Error
	if !errors.As(err, &pe) {
		return api.NewServerError("Internal server error")
	}

	switch {
	case pe.KeyRejected:
		return api.NewServerError("Internal server error")
	case pe.Blocked:
		return api.NewModelError(pe.Message)
	case pe.StatusCode == http.StatusTooManyRequests:
		return api.NewTooManyRequestsError(fmt.Sprintf("%d %s", pe.StatusCode, pe.Message))
	case pe.StatusCode == http.StatusBadRequest:
		return api.NewInvalidRequestError("", pe.Message)
	case pe.StatusCode == http.StatusNotFound:
		return api.NewNotFoundError(pe.Message)
	default:
		return api.NewServerError("Internal server error")
	}
}
