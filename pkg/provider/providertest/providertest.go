// Package providertest serves fake Gemini and OpenAI-compatible chat
// endpoints for tests and local development.
//
// Behavior is selected by the API key the client sends:
//
//	quota*    429 with a quota message
//	invalid*  rejected key: Gemini's 400 API_KEY_INVALID, 401 for chat
//	down*     503 unavailable
//	blocked*  Gemini: prompt blocked by safety filters
//	empty*    a successful response with no text
//	anything  200 with the reply for the prompt
package providertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Upstream is a fake generation API.
type Upstream struct {
	mu    sync.Mutex
	reply func(prompt string) string
	calls map[string]int
	mux   *http.ServeMux
}

// New creates an upstream with the default reply.
func New() *Upstream {
	u := &Upstream{calls: make(map[string]int), mux: http.NewServeMux()}
	u.mux.HandleFunc("POST /v1beta/models/", u.handleGemini)
	u.mux.HandleFunc("POST /v1/chat/completions", u.handleChat)
	u.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return u
}

// ServeHTTP implements http.Handler.
func (u *Upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mux.ServeHTTP(w, r)
}

// SetReply replaces the answer builder. nil restores the default, which
// is "Answer: " followed by the prompt's last line.
func (u *Upstream) SetReply(fn func(prompt string) string) {
	u.mu.Lock()
	u.reply = fn
	u.mu.Unlock()
}

// Calls returns how many requests used key.
func (u *Upstream) Calls(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[key]
}

func (u *Upstream) record(key string) {
	u.mu.Lock()
	u.calls[key]++
	u.mu.Unlock()
}

func (u *Upstream) answer(prompt string) string {
	u.mu.Lock()
	fn := u.reply
	u.mu.Unlock()
	if fn != nil {
		return fn(prompt)
	}
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	return "Answer: " + lines[len(lines)-1]
}

// --- Gemini generateContent ---

type geminiPart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		MIMEType string `json:"mime_type"`
	} `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

func (u *Upstream) handleGemini(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1beta/models/")
	model, method, ok := strings.Cut(rest, ":")
	if !ok || method != "generateContent" || model == "" {
		http.NotFound(w, r)
		return
	}
	key := r.Header.Get("x-goog-api-key")
	u.record(key)

	if status, msg, failed := failure(key); failed {
		if status == http.StatusUnauthorized {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": map[string]any{
					"code":    400,
					"message": msg,
					"status":  "INVALID_ARGUMENT",
					"details": []any{map[string]any{
						"@type":  "type.googleapis.com/google.rpc.ErrorInfo",
						"reason": "API_KEY_INVALID",
						"domain": "googleapis.com",
					}},
				},
			})
			return
		}
		writeJSON(w, status, map[string]any{
			"error": map[string]any{"code": status, "message": msg, "status": http.StatusText(status)},
		})
		return
	}

	var req geminiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"code": 400, "message": err.Error(), "status": "INVALID_ARGUMENT"},
		})
		return
	}

	switch {
	case strings.HasPrefix(key, "blocked"):
		writeJSON(w, http.StatusOK, map[string]any{
			"candidates":     []any{},
			"promptFeedback": map[string]any{"blockReason": "SAFETY"},
		})
		return
	case strings.HasPrefix(key, "empty"):
		writeJSON(w, http.StatusOK, map[string]any{
			"candidates": []any{map[string]any{
				"content":      map[string]any{"role": "model", "parts": []any{}},
				"finishReason": "STOP",
			}},
		})
		return
	}

	var prompt strings.Builder
	images := 0
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			prompt.WriteString(p.Text)
			if p.InlineData != nil {
				images++
			}
		}
	}
	text := u.answer(prompt.String())
	if images > 0 {
		text += fmt.Sprintf(" (%d image)", images)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 10, "candidatesTokenCount": 5},
		"modelVersion":  model,
	})
}

// --- OpenAI-compatible chat completions ---

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

func (u *Upstream) handleChat(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	u.record(key)

	if status, msg, failed := failure(key); failed {
		writeJSON(w, status, map[string]any{
			"error": map[string]any{"message": msg, "type": "error", "code": status},
		})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"message": err.Error(), "type": "invalid_request_error"},
		})
		return
	}

	text := ""
	if !strings.HasPrefix(key, "empty") {
		text = u.answer(lastUserText(req.Messages))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":     "chatcmpl-mock",
		"object": "chat.completion",
		"model":  req.Model,
		"choices": []any{map[string]any{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": text},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}

// lastUserText flattens the last user message. Content is either a string
// or a list of typed parts.
func lastUserText(msgs []chatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != "user" {
			continue
		}
		switch c := msgs[i].Content.(type) {
		case string:
			return c
		case []any:
			var b strings.Builder
			for _, p := range c {
				if m, ok := p.(map[string]any); ok && m["type"] == "text" {
					s, _ := m["text"].(string)
					b.WriteString(s)
				}
			}
			return b.String()
		}
	}
	return ""
}

func failure(key string) (status int, msg string, failed bool) {
	switch {
	case strings.HasPrefix(key, "quota"):
		return http.StatusTooManyRequests, "You exceeded your current quota, please check your plan and billing details.", true
	case strings.HasPrefix(key, "invalid"), key == "":
		return http.StatusUnauthorized, "API key not valid. Please pass a valid API key.", true
	case strings.HasPrefix(key, "down"):
		return http.StatusServiceUnavailable, "The model is overloaded. Please try again later.", true
	}
	return 0, "", false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
