package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/rhuss/askgate/pkg/api"
)

func TestHTTPErrorRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, true},
		{http.StatusForbidden, true},
		{http.StatusNotFound, false},
		{http.StatusRequestTimeout, true},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := HTTPError("gemini", tt.status, "")
			if IsRetryable(err) != tt.want {
				t.Errorf("IsRetryable(%d) = %v, want %v", tt.status, !tt.want, tt.want)
			}
			if err.Message == "" {
				t.Error("expected status text as default message")
			}
		})
	}
}

func TestKeyErrorRetryable(t *testing.T) {
	err := KeyError("gemini", http.StatusBadRequest, "API key not valid. Please pass a valid API key.")
	if !err.KeyRejected || !IsRetryable(err) {
		t.Errorf("rejected key should rotate: %+v", err)
	}
	if got := HTTPError("groq", http.StatusUnauthorized, ""); !got.KeyRejected {
		t.Errorf("401 should mark the key rejected: %+v", got)
	}
	if got := HTTPError("groq", http.StatusBadRequest, "image too large"); got.KeyRejected || got.Retryable {
		t.Errorf("plain 400 should be permanent: %+v", got)
	}
}

func TestNetworkErrorRetryable(t *testing.T) {
	if !IsRetryable(NetworkError("groq", errors.New("connection refused"))) {
		t.Error("connection errors should be retryable")
	}
	if IsRetryable(NetworkError("groq", fmt.Errorf("do: %w", context.Canceled))) {
		t.Error("caller cancellation should not be retryable")
	}
}

func TestIsRetryableWrapped(t *testing.T) {
	err := fmt.Errorf("attempt 2: %w", HTTPError("openrouter", 503, "overloaded"))
	if !IsRetryable(err) {
		t.Error("wrapped 503 should be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("unknown errors should not be retryable")
	}
}

func TestErrorString(t *testing.T) {
	err := HTTPError("gemini", 429, "You exceeded your current quota")
	if got := err.Error(); got != "gemini: 429 You exceeded your current quota" {
		t.Errorf("Error() = %q", got)
	}
	nerr := NetworkError("groq", errors.New("reset"))
	if got := nerr.Error(); got != "groq: backend connection error: reset" {
		t.Errorf("Error() = %q", got)
	}
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType api.ErrorType
		wantMsg  string
	}{
		{
			name:     "quota",
			err:      HTTPError("gemini", 429, "You exceeded your current quota, please check your plan and billing details."),
			wantType: api.ErrorTypeTooManyRequests,
			wantMsg:  "429 You exceeded your current quota, please check your plan and billing details.",
		},
		{
			name:     "blocked",
			err:      BlockedError("gemini", "SAFETY"),
			wantType: api.ErrorTypeModelError,
			wantMsg:  "prompt blocked: SAFETY",
		},
		{
			name:     "bad request",
			err:      HTTPError("groq", 400, "image too large"),
			wantType: api.ErrorTypeInvalidRequest,
			wantMsg:  "image too large",
		},
		{
			name:     "auth failure hidden",
			err:      HTTPError("groq", 401, "invalid api key gsk_123"),
			wantType: api.ErrorTypeServerError,
			wantMsg:  "Internal server error",
		},
		{
			name:     "rejected gemini key hidden",
			err:      KeyError("gemini", 400, "API key not valid. Please pass a valid API key."),
			wantType: api.ErrorTypeServerError,
			wantMsg:  "Internal server error",
		},
		{
			name:     "network",
			err:      NetworkError("groq", errors.New("dial tcp")),
			wantType: api.ErrorTypeServerError,
			wantMsg:  "Internal server error",
		},
		{
			name:     "api error passes through",
			err:      api.NewUnavailableError("off"),
			wantType: api.ErrorTypeUnavailable,
			wantMsg:  "off",
		},
		{
			name:     "unknown",
			err:      errors.New("boom"),
			wantType: api.ErrorTypeServerError,
			wantMsg:  "Internal server error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToAPIError(tt.err)
			if got.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", got.Type, tt.wantType)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}
}
