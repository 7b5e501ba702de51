// Package gemini implements provider.Provider for the Google Gemini
// generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rhuss/askgate/pkg/debug"
	"github.com/rhuss/askgate/pkg/provider"
	"github.com/rhuss/askgate/pkg/provider/keyring"
)

// Name is the provider identifier.
const Name = "gemini"

// DefaultBaseURL is the public Generative Language API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Config holds Gemini settings.
type Config struct {
	BaseURL string
	Keys    *keyring.Ring
	Model   string
	Timeout time.Duration
}

// Provider calls generateContent with the next key from its ring.
type Provider struct {
	cfg    Config
	client *http.Client
}

var _ provider.Provider = (*Provider)(nil)

// New creates a Gemini provider.
func New(cfg Config) (*Provider, error) {
	if cfg.Keys == nil {
		return nil, fmt.Errorf("gemini: at least one API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini: model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return Name
}

// Generate performs one generateContent call.
func (p *Provider) Generate(ctx context.Context, req *provider.Request) (resp *provider.Response, err error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}
	start := time.Now()
	defer func() { provider.Observe(Name, model, start, resp, err) }()

	body, err := json.Marshal(translateRequest(req))
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := p.cfg.BaseURL + "/v1beta/models/" + url.PathEscape(model) + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.cfg.Keys.Next())

	debug.Log("providers", "request", "provider", Name, "model", model, "images", len(req.Images))

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, provider.NetworkError(Name, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		perr := classifyError(httpResp.StatusCode, httpResp.Body)
		debug.Log("providers", "error response", "provider", Name, "status", httpResp.StatusCode, "message", perr.Message)
		return nil, perr
	}

	var gr generateResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&gr); err != nil {
		return nil, &provider.Error{Provider: Name, Message: "failed to parse backend response", Err: err}
	}

	out, err := translateResponse(&gr)
	if err != nil {
		return nil, err
	}
	if out.Model == "" {
		out.Model = model
	}
	debug.Log("providers", "response", "provider", Name, "model", out.Model, "text", debug.Truncate(out.Text, 200))
	return out, nil
}

// Close releases idle HTTP connections.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func translateRequest(req *provider.Request) generateRequest {
	parts := make([]part, 0, len(req.Images)+1)
	if req.Prompt != "" {
		parts = append(parts, part{Text: req.Prompt})
	}
	for _, img := range req.Images {
		mime := img.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: mime,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}

	gr := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	}
	if req.System != "" {
		gr.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}
	if req.MaxTokens > 0 || req.Temperature != nil {
		gr.GenerationConfig = &generationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		}
	}
	return gr
}

// translateResponse joins the text parts of the first candidate. A blocked
// prompt has no candidates and a block reason in the prompt feedback.
func translateResponse(gr *generateResponse) (*provider.Response, error) {
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return nil, provider.BlockedError(Name, gr.PromptFeedback.BlockReason)
	}

	out := &provider.Response{Provider: Name, Model: gr.ModelVersion}
	if gr.UsageMetadata != nil {
		out.Usage = provider.Usage{
			InputTokens:  gr.UsageMetadata.PromptTokenCount,
			OutputTokens: gr.UsageMetadata.CandidatesTokenCount,
		}
	}
	if len(gr.Candidates) == 0 {
		return out, nil
	}

	c := gr.Candidates[0]
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 && (c.FinishReason == "SAFETY" || c.FinishReason == "PROHIBITED_CONTENT") {
		return nil, provider.BlockedError(Name, c.FinishReason)
	}
	out.Text = sb.String()
	return out, nil
}

// classifyError maps an error response. Gemini rejects a bad or revoked
// key with 400 INVALID_ARGUMENT rather than 401, so the detail reason and
// message decide whether the key or the request was at fault.
func classifyError(status int, body io.Reader) *provider.Error {
	er, ok := readErrorResponse(body)
	if !ok {
		return provider.HTTPError(Name, status, "")
	}
	if status == http.StatusBadRequest && keyInvalid(er) {
		return provider.KeyError(Name, status, er.Error.Message)
	}
	return provider.HTTPError(Name, status, er.Error.Message)
}

func keyInvalid(er *errorResponse) bool {
	for _, d := range er.Error.Details {
		if d.Reason == "API_KEY_INVALID" {
			return true
		}
	}
	return strings.Contains(er.Error.Message, "API key not valid")
}

func readErrorResponse(body io.Reader) (*errorResponse, bool) {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	var er errorResponse
	if err := json.Unmarshal(data, &er); err != nil {
		return nil, false
	}
	return &er, true
}
