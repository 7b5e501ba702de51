package engine

// Config holds configuration for the answer pipeline.
type Config struct {
	// SystemPrompt is sent as the system instruction on every request.
	SystemPrompt string

	// MaxInputRunes caps article and HTML text. Zero means no cap.
	MaxInputRunes int

	// MaxTokens bounds the answer length. Zero uses the provider default.
	MaxTokens int
}

// logTruncate is the length at which logged questions and answers are cut.
const logTruncate = 200
