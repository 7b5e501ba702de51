package provider

// Image is an inline image sent alongside the prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request is the backend-facing request. It contains only what a provider
// needs, stripped of transport and session concerns.
type Request struct {
	// Model overrides the provider's configured model when non-empty.
	Model       string
	System      string
	Prompt      string
	Images      []Image
	MaxTokens   int      // 0 = provider default
	Temperature *float64 // nil = provider default
}

// HasImages reports whether the request carries image input.
func (r *Request) HasImages() bool {
	return len(r.Images) > 0
}

// Response is a completed generation.
type Response struct {
	Text     string
	Model    string
	Provider string
	Usage    Usage
}

// Usage holds token counts reported by the backend.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
