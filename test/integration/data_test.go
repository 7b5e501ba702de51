package integration

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"
)

func TestTelemetryRoundTrip(t *testing.T) {
	env := newEnv(t, Keys{Gemini: []string{"good-data"}})

	for _, ev := range []string{"open", "answer", "close"} {
		resp := postJSON(t, env.BaseURL()+"/data", map[string]any{"event": ev, "lesson": 42})
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("POST /data: expected 201, got %d", resp.StatusCode)
		}
	}

	// The file store keeps a plain JSON array on disk.
	raw, err := os.ReadFile(env.DataPath)
	if err != nil {
		t.Fatal(err)
	}
	var onDisk []map[string]any
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("data file is not a JSON array: %v", err)
	}
	if len(onDisk) != 3 {
		t.Fatalf("data file holds %d records, want 3", len(onDisk))
	}

	// Reading requires an admin.
	resp := getURL(t, env.BaseURL()+"/data")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous GET /data: expected 401, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, env.BaseURL()+"/data?limit=2", nil)
	req.SetBasicAuth(adminUser, adminPassword)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin GET /data: expected 200, got %d", resp.StatusCode)
	}
	var list struct {
		Data []struct {
			Data json.RawMessage `json:"data"`
		} `json:"data"`
		Total int `json:"total"`
	}
	decodeJSON(t, resp, &list)
	if list.Total != 3 || len(list.Data) != 2 {
		t.Fatalf("total = %d, page = %d", list.Total, len(list.Data))
	}
	if !strings.Contains(string(list.Data[0].Data), `"open"`) {
		t.Errorf("first record = %s, want insertion order", list.Data[0].Data)
	}
}

func TestTelemetryRejectsArrays(t *testing.T) {
	env := newEnv(t, Keys{Gemini: []string{"good-arr"}})

	resp := postJSON(t, env.BaseURL()+"/data", []int{1, 2, 3})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLoginToggleLogout(t *testing.T) {
	env := newEnv(t, Keys{Gemini: []string{"good-login"}})

	resp := postJSON(t, env.BaseURL()+"/login", map[string]string{"username": adminUser, "password": "nope"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", resp.StatusCode)
	}

	resp = postJSON(t, env.BaseURL()+"/login", map[string]string{"username": adminUser, "password": adminPassword})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	cookie := cookieNamed(resp, "askgate_session")
	if cookie == nil {
		t.Fatal("login did not set a session cookie")
	}

	resp = postJSON(t, env.BaseURL()+"/toggle", map[string]bool{"enabled": false}, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d", resp.StatusCode)
	}
	if env.Toggle.Enabled() {
		t.Fatal("toggle did not disable the service")
	}

	resp = getURL(t, env.BaseURL()+"/ask?q=hi")
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("ask while disabled: expected 503, got %d", resp.StatusCode)
	}

	resp = postJSON(t, env.BaseURL()+"/logout", map[string]string{}, cookie)
	resp.Body.Close()

	resp = postJSON(t, env.BaseURL()+"/toggle", map[string]bool{"enabled": true}, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("toggle after logout: expected 401, got %d", resp.StatusCode)
	}
}

func TestAdminCookieStaysOutOfBodies(t *testing.T) {
	env := newEnv(t, Keys{Gemini: []string{"good-leak"}})

	resp := postJSON(t, env.BaseURL()+"/login", map[string]string{"username": adminUser, "password": adminPassword})
	resp.Body.Close()
	cookie := cookieNamed(resp, "askgate_session")
	if cookie == nil {
		t.Fatal("login did not set a session cookie")
	}

	checks := []struct {
		name string
		do   func() *http.Response
	}{
		{"ask", func() *http.Response { return getURL(t, env.BaseURL()+"/ask?q=hi", cookie) }},
		{"ask with article", func() *http.Response {
			return postJSON(t, env.BaseURL()+"/ask", map[string]string{"q": "hi", "article": "Some text."}, cookie)
		}},
		{"article", func() *http.Response {
			return postJSON(t, env.BaseURL()+"/article", map[string]string{"article": "Some text."}, cookie)
		}},
	}
	for _, c := range checks {
		resp := c.do()
		body := readBody(t, resp)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", c.name, resp.StatusCode, body)
		}
		if strings.Contains(body, cookie.Value) {
			t.Errorf("%s: response body exposes the admin session id: %s", c.name, body)
		}
	}

	// The admin session still works, so the cookie was kept or refreshed.
	resp = postJSON(t, env.BaseURL()+"/toggle", map[string]bool{"enabled": true}, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("toggle: expected 200, got %d", resp.StatusCode)
	}
}
