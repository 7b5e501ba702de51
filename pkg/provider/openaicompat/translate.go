package openaicompat

import (
	"encoding/base64"

	"github.com/rhuss/askgate/pkg/provider"
)

// TranslateToChat converts a provider Request into a ChatCompletionRequest
// for the given model. A request with images sends the user turn as
// content parts; otherwise the user turn is a plain string.
func TranslateToChat(req *provider.Request, model string) ChatCompletionRequest {
	cr := ChatCompletionRequest{
		Model:       model,
		Temperature: req.Temperature,
		N:           1,
	}
	if req.MaxTokens > 0 {
		n := req.MaxTokens
		cr.MaxTokens = &n
	}

	if req.System != "" {
		cr.Messages = append(cr.Messages, ChatMessage{Role: "system", Content: req.System})
	}

	if !req.HasImages() {
		cr.Messages = append(cr.Messages, ChatMessage{Role: "user", Content: req.Prompt})
		return cr
	}

	parts := make([]ContentPart, 0, len(req.Images)+1)
	if req.Prompt != "" {
		parts = append(parts, ContentPart{Type: "text", Text: req.Prompt})
	}
	for _, img := range req.Images {
		parts = append(parts, ContentPart{
			Type:     "image_url",
			ImageURL: &ImageURL{URL: DataURI(img)},
		})
	}
	cr.Messages = append(cr.Messages, ChatMessage{Role: "user", Content: parts})
	return cr
}

// DataURI encodes an image as a base64 data URI.
func DataURI(img provider.Image) string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// TranslateResponse extracts the answer text and usage from choices[0].
// A content_filter finish is reported as a blocked prompt.
func TranslateResponse(providerName string, resp *ChatCompletionResponse) (*provider.Response, error) {
	pr := &provider.Response{
		Model:    resp.Model,
		Provider: providerName,
	}
	if resp.Usage != nil {
		pr.Usage = provider.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}

	// Empty choices means the backend produced no output; the caller
	// treats empty text as a failed generation.
	if len(resp.Choices) == 0 {
		return pr, nil
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, provider.BlockedError(providerName, "content_filter")
	}
	pr.Text = ExtractContentString(choice.Message.Content)
	return pr, nil
}

// ExtractContentString gets plain text from message content, which can be
// a string, nil, or (for some backends) an array of text parts.
func ExtractContentString(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []any:
		var out string
		for _, p := range v {
			part, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := part["text"].(string); ok {
				out += text
			}
		}
		return out
	default:
		return ""
	}
}
