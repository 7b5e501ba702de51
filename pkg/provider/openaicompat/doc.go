// Package openaicompat provides a client for any OpenAI-compatible Chat
// Completions backend. It handles request serialization, image content
// parts, response parsing, and error mapping.
//
// Provider adapters (openrouter, groq) wrap the Client from this package
// with their own base URL, headers, and default models.
package openaicompat
