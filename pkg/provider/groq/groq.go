// Package groq implements provider.Provider for Groq's OpenAI-compatible
// endpoint.
package groq

import (
	"time"

	"github.com/rhuss/askgate/pkg/provider/keyring"
	"github.com/rhuss/askgate/pkg/provider/openaicompat"
)

// Name is the provider identifier.
const Name = "groq"

// DefaultBaseURL is the Groq API root (the client appends /v1/...).
const DefaultBaseURL = "https://api.groq.com/openai"

// Config holds Groq settings.
type Config struct {
	BaseURL string
	Keys    *keyring.Ring
	Model   string

	// VisionModel serves requests with images; Groq's text models reject them.
	VisionModel string
	Timeout     time.Duration
}

// New creates a Groq provider.
func New(cfg Config) (*openaicompat.Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return openaicompat.NewClient(openaicompat.Config{
		Name:        Name,
		BaseURL:     cfg.BaseURL,
		Keys:        cfg.Keys,
		Model:       cfg.Model,
		VisionModel: cfg.VisionModel,
		Timeout:     cfg.Timeout,
	})
}
