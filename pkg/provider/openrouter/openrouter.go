// Package openrouter implements provider.Provider for OpenRouter, an
// OpenAI-compatible aggregator that routes to many hosted models.
package openrouter

import (
	"net/http"
	"time"

	"github.com/rhuss/askgate/pkg/provider/keyring"
	"github.com/rhuss/askgate/pkg/provider/openaicompat"
)

// Name is the provider identifier.
const Name = "openrouter"

// DefaultBaseURL is the OpenRouter API root (the client appends /v1/...).
const DefaultBaseURL = "https://openrouter.ai/api"

// Config holds OpenRouter settings.
type Config struct {
	BaseURL string
	Keys    *keyring.Ring
	Model   string
	Timeout time.Duration

	// Referer and Title identify the app on openrouter.ai rankings.
	Referer string
	Title   string
}

// New creates an OpenRouter provider.
func New(cfg Config) (*openaicompat.Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	headers := http.Header{}
	if cfg.Referer != "" {
		headers.Set("HTTP-Referer", cfg.Referer)
	}
	if cfg.Title != "" {
		headers.Set("X-Title", cfg.Title)
	}
	return openaicompat.NewClient(openaicompat.Config{
		Name:    Name,
		BaseURL: cfg.BaseURL,
		Keys:    cfg.Keys,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
		Headers: headers,
	})
}
