package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rhuss/askgate/pkg/provider"
	"github.com/rhuss/askgate/pkg/provider/keyring"
)

func newTestClient(t *testing.T, srvURL string, keys ...string) *Client {
	t.Helper()
	if len(keys) == 0 {
		keys = []string{"key-1"}
	}
	ring, err := keyring.New(keys)
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewClient(Config{
		Name:        "test",
		BaseURL:     srvURL + "/",
		Keys:        ring,
		Model:       "text-model",
		VisionModel: "vision-model",
		Headers:     http.Header{"X-Title": []string{"askgate"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestGenerate_TextRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("expected path /v1/chat/completions, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "askgate" {
			t.Errorf("X-Title = %q", got)
		}

		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "text-model" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "Question:\n2+2?" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.MaxTokens == nil || *req.MaxTokens != 64 {
			t.Errorf("max_tokens = %v", req.MaxTokens)
		}

		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Model: "text-model-0125",
			Choices: []ChatChoice{{
				Message:      ChatMessage{Role: "assistant", Content: "4"},
				FinishReason: "stop",
			}},
			Usage: &ChatUsage{PromptTokens: 12, CompletionTokens: 1},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	resp, err := c.Generate(context.Background(), &provider.Request{
		System:    "be brief",
		Prompt:    "Question:\n2+2?",
		MaxTokens: 64,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != "4" || resp.Model != "text-model-0125" || resp.Provider != "test" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Usage.InputTokens != 12 || resp.Usage.OutputTokens != 1 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestGenerate_ImageUsesVisionModelAndParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&raw)
		if raw.Model != "vision-model" {
			t.Errorf("model = %q, want vision-model", raw.Model)
		}
		var parts []ContentPart
		if err := json.Unmarshal(raw.Messages[0].Content, &parts); err != nil {
			t.Fatalf("content is not parts: %s", raw.Messages[0].Content)
		}
		if len(parts) != 2 || parts[1].Type != "image_url" {
			t.Fatalf("parts = %+v", parts)
		}
		if !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/jpeg;base64,") {
			t.Errorf("image url = %q", parts[1].ImageURL.URL)
		}
		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Choices: []ChatChoice{{Message: ChatMessage{Content: "a cat"}}},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	resp, err := c.Generate(context.Background(), &provider.Request{
		Prompt: "what is this?",
		Images: []provider.Image{{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != "a cat" {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Model != "vision-model" {
		t.Errorf("Model = %q, want fallback to requested model", resp.Model)
	}
}

func TestGenerate_RotatesKeys(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		json.NewEncoder(w).Encode(ChatCompletionResponse{Choices: []ChatChoice{{Message: ChatMessage{Content: "x"}}}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "a", "b")
	for range 3 {
		if _, err := c.Generate(context.Background(), &provider.Request{Prompt: "q"}); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"Bearer a", "Bearer b", "Bearer a"}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("call %d used %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestGenerate_HTTPErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantMsg   string
		retryable bool
	}{
		{"quota", 429, `{"error":{"message":"Rate limit reached","type":"rate_limit"}}`, "Rate limit reached", true},
		{"bad request", 400, `{"error":{"message":"image too large"}}`, "image too large", false},
		{"unauthorized", 401, `not json`, "Unauthorized", true},
		{"server error", 502, ``, "Bad Gateway", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL).Generate(context.Background(), &provider.Request{Prompt: "q"})
			var pe *provider.Error
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *provider.Error", err)
			}
			if pe.StatusCode != tt.status || pe.Message != tt.wantMsg || pe.Retryable != tt.retryable {
				t.Errorf("error = %+v", pe)
			}
		})
	}
}

func TestGenerate_ContentFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Choices: []ChatChoice{{FinishReason: "content_filter"}},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Generate(context.Background(), &provider.Request{Prompt: "q"})
	var pe *provider.Error
	if !errors.As(err, &pe) || !pe.Blocked {
		t.Fatalf("err = %v, want blocked error", err)
	}
}

func TestGenerate_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url).Generate(context.Background(), &provider.Request{Prompt: "q"})
	if !provider.IsRetryable(err) {
		t.Errorf("connection refused should be retryable, got %v", err)
	}
}

func TestNewClient_Validation(t *testing.T) {
	ring, _ := keyring.New([]string{"k"})
	if _, err := NewClient(Config{Name: "x", Keys: ring}); err == nil {
		t.Error("expected error without base URL")
	}
	if _, err := NewClient(Config{Name: "x", BaseURL: "http://localhost"}); err == nil {
		t.Error("expected error without keys")
	}
}

func TestModelFor(t *testing.T) {
	c := &Client{cfg: Config{Model: "m", VisionModel: "v"}}
	img := []provider.Image{{Data: []byte{1}}}
	if got := c.ModelFor(&provider.Request{}); got != "m" {
		t.Errorf("default = %q", got)
	}
	if got := c.ModelFor(&provider.Request{Images: img}); got != "v" {
		t.Errorf("vision = %q", got)
	}
	if got := c.ModelFor(&provider.Request{Model: "o", Images: img}); got != "o" {
		t.Errorf("override = %q", got)
	}
	c.cfg.VisionModel = ""
	if got := c.ModelFor(&provider.Request{Images: img}); got != "m" {
		t.Errorf("no vision model = %q", got)
	}
}

func TestExtractContentString(t *testing.T) {
	if got := ExtractContentString(nil); got != "" {
		t.Errorf("nil = %q", got)
	}
	if got := ExtractContentString("hi"); got != "hi" {
		t.Errorf("string = %q", got)
	}
	parts := []any{
		map[string]any{"type": "text", "text": "a"},
		map[string]any{"type": "text", "text": "b"},
		"junk",
	}
	if got := ExtractContentString(parts); got != "ab" {
		t.Errorf("parts = %q", got)
	}
}
