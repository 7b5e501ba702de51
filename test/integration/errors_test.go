package integration

import (
	"net/http"
	"testing"
)

func TestFallbackOnQuota(t *testing.T) {
	env := newEnv(t, Keys{
		Gemini:     []string{"quota-fb"},
		OpenRouter: []string{"good-fb"},
	})

	resp := getURL(t, env.BaseURL()+"/ask?q=hello")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var got askResponse
	decodeJSON(t, resp, &got)
	if got.Provider != "openrouter" {
		t.Errorf("provider = %q, want openrouter after gemini quota", got.Provider)
	}
	if env.Upstream.Calls("quota-fb") < 2 {
		t.Errorf("gemini was called %d times, want retries before fallback", env.Upstream.Calls("quota-fb"))
	}
}

func TestKeyRotationSkipsExhaustedKey(t *testing.T) {
	env := newEnv(t, Keys{Gemini: []string{"quota-rot", "good-rot"}})

	for i := 0; i < 3; i++ {
		resp := getURL(t, env.BaseURL()+"/ask?q=hi")
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}
	if env.Upstream.Calls("good-rot") != 3 {
		t.Errorf("good key used %d times, want 3", env.Upstream.Calls("good-rot"))
	}
}

func TestAllProvidersOverQuota(t *testing.T) {
	env := newEnv(t, Keys{Gemini: []string{"quota-all"}, Groq: []string{"quota-all-groq"}})

	resp := getURL(t, env.BaseURL()+"/ask?q=hello")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	var got errorResponse
	decodeJSON(t, resp, &got)
	if got.Type != "too_many_requests" {
		t.Errorf("type = %q", got.Type)
	}
}

func TestRevokedKeyRotatesToNextKey(t *testing.T) {
	env := newEnv(t, Keys{Gemini: []string{"invalid-rev", "good-rev"}})

	resp := getURL(t, env.BaseURL()+"/ask?q=hello")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var got askResponse
	decodeJSON(t, resp, &got)
	if got.Provider != "gemini" {
		t.Errorf("provider = %q, want gemini with the second key", got.Provider)
	}
	if n := env.Upstream.Calls("good-rev"); n != 1 {
		t.Errorf("good key called %d times, want 1", n)
	}
}

func TestRejectedKeyFallsBack(t *testing.T) {
	env := newEnv(t, Keys{
		Gemini: []string{"invalid-fb"},
		Groq:   []string{"good-fb-groq"},
	})

	resp := getURL(t, env.BaseURL()+"/ask?q=hello")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var got askResponse
	decodeJSON(t, resp, &got)
	if got.Provider != "groq" {
		t.Errorf("provider = %q, want groq after gemini rejected its key", got.Provider)
	}
}

func TestAllKeysRejected(t *testing.T) {
	env := newEnv(t, Keys{Gemini: []string{"invalid-only"}})

	resp := getURL(t, env.BaseURL()+"/ask?q=hello")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var got errorResponse
	decodeJSON(t, resp, &got)
	if got.Error != "Internal server error" {
		t.Errorf("error = %q, upstream details must not leak", got.Error)
	}
}

func TestEmptyAnswer(t *testing.T) {
	env := newEnv(t, Keys{Groq: []string{"empty-1"}})

	resp := getURL(t, env.BaseURL()+"/ask?q=hello")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var got errorResponse
	decodeJSON(t, resp, &got)
	if got.Error != "Failed to generate a valid response" {
		t.Errorf("error = %q", got.Error)
	}
}

func TestDisabledService(t *testing.T) {
	env := newEnv(t, Keys{Gemini: []string{"good-off"}})
	env.Toggle.SetEnabled(false)
	t.Cleanup(func() { env.Toggle.SetEnabled(true) })

	resp := getURL(t, env.BaseURL()+"/ask?q=hello")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
	if env.Upstream.Calls("good-off") != 0 {
		t.Error("disabled service must not call the upstream")
	}
}
