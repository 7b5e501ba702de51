package provider

import "context"

// Provider abstracts a generation backend. Each adapter speaks its own
// HTTP protocol (Gemini generateContent, OpenAI Chat Completions) and
// picks its own API key per call.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the provider identifier (e.g., "gemini", "groq").
	Name() string

	// Generate performs one non-streaming generation.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}
