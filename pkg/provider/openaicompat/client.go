package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/askgate/pkg/debug"
	"github.com/rhuss/askgate/pkg/provider"
	"github.com/rhuss/askgate/pkg/provider/keyring"
)

// Config holds the settings for one OpenAI-compatible backend.
type Config struct {
	// Name is reported by Client.Name and used in metrics and errors.
	Name    string
	BaseURL string
	Keys    *keyring.Ring

	// Model is the default model; VisionModel, if set, replaces it for
	// requests that carry images.
	Model       string
	VisionModel string

	Timeout time.Duration

	// Headers are added to every request (e.g., attribution headers).
	Headers http.Header
}

// Client performs requests against an OpenAI-compatible Chat Completions
// backend. Each call takes the next key from the ring.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ provider.Provider = (*Client)(nil)

// NewClient creates a new Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s: base URL is required", cfg.Name)
	}
	if cfg.Keys == nil {
		return nil, fmt.Errorf("%s: at least one API key is required", cfg.Name)
	}

	// Normalize: remove trailing slash from base URL.
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return c.cfg.Name
}

// ModelFor picks the model for req: the explicit override, else the vision
// model for image requests, else the default.
func (c *Client) ModelFor(req *provider.Request) string {
	switch {
	case req.Model != "":
		return req.Model
	case req.HasImages() && c.cfg.VisionModel != "":
		return c.cfg.VisionModel
	default:
		return c.cfg.Model
	}
}

// Generate performs one Chat Completions call.
func (c *Client) Generate(ctx context.Context, req *provider.Request) (resp *provider.Response, err error) {
	model := c.ModelFor(req)
	start := time.Now()
	defer func() { provider.Observe(c.cfg.Name, model, start, resp, err) }()

	body, err := json.Marshal(TranslateToChat(req, model))
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", c.cfg.Name, err)
	}

	url := c.cfg.BaseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.cfg.Name, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Keys.Next())
	for k, vs := range c.cfg.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	debug.Log("providers", "request", "provider", c.cfg.Name, "model", model, "url", url, "images", len(req.Images))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, provider.NetworkError(c.cfg.Name, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		perr := MapHTTPError(c.cfg.Name, httpResp)
		debug.Log("providers", "error response", "provider", c.cfg.Name, "status", httpResp.StatusCode, "message", perr.Message)
		return nil, perr
	}

	var chatResp ChatCompletionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chatResp); err != nil {
		return nil, &provider.Error{Provider: c.cfg.Name, Message: "failed to parse backend response", Err: err}
	}

	out, err := TranslateResponse(c.cfg.Name, &chatResp)
	if err != nil {
		return nil, err
	}
	if out.Model == "" {
		out.Model = model
	}
	debug.Log("providers", "response", "provider", c.cfg.Name, "model", out.Model, "text", debug.Truncate(out.Text, 200))
	return out, nil
}

// Close releases idle HTTP connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
