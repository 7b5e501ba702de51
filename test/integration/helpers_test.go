// Package integration runs the askgate HTTP stack end to end against fake
// upstreams (Gemini, OpenAI-compatible chat, and Square), all started
// in-process with net/http/httptest.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rhuss/askgate/pkg/auth"
	"github.com/rhuss/askgate/pkg/auth/basic"
	"github.com/rhuss/askgate/pkg/auth/noop"
	"github.com/rhuss/askgate/pkg/auth/sessionauth"
	"github.com/rhuss/askgate/pkg/config"
	"github.com/rhuss/askgate/pkg/engine"
	"github.com/rhuss/askgate/pkg/license"
	"github.com/rhuss/askgate/pkg/license/square"
	"github.com/rhuss/askgate/pkg/observability"
	"github.com/rhuss/askgate/pkg/provider/providertest"
	"github.com/rhuss/askgate/pkg/provider/registry"
	"github.com/rhuss/askgate/pkg/session"
	"github.com/rhuss/askgate/pkg/session/memory"
	"github.com/rhuss/askgate/pkg/telemetry"
	"github.com/rhuss/askgate/pkg/telemetry/file"
	"github.com/rhuss/askgate/pkg/transport"
	transporthttp "github.com/rhuss/askgate/pkg/transport/http"
)

const (
	adminUser     = "ops"
	adminPassword = "let-me-in"
)

// Keys select fake upstream behavior; see package providertest.
type Keys struct {
	Gemini     []string
	OpenRouter []string
	Groq       []string
}

// Env is one running askgate stack.
type Env struct {
	Server    *httptest.Server
	Upstream  *providertest.Upstream
	Toggle    *engine.Toggle
	Telemetry telemetry.Store
	DataPath  string
}

// BaseURL returns the askgate server base URL.
func (e *Env) BaseURL() string { return e.Server.URL }

var (
	upstream    *providertest.Upstream
	upstreamSrv *httptest.Server
	squareSrv   *httptest.Server
	adminHash   string
)

// TestMain starts the shared fake upstreams.
func TestMain(m *testing.M) {
	upstream = providertest.New()
	upstreamSrv = httptest.NewServer(upstream)
	squareSrv = httptest.NewServer(http.HandlerFunc(fakeSquare))

	h, err := basic.HashPassword(adminPassword)
	if err != nil {
		panic(fmt.Sprintf("hashing password: %v", err))
	}
	adminHash = h

	code := m.Run()
	upstreamSrv.Close()
	squareSrv.Close()
	os.Exit(code)
}

// fakeSquare serves GET /v2/orders/{id}: "paid-*" orders are COMPLETED,
// "open-*" OPEN, "cancel-*" CANCELED, anything else is unknown.
func fakeSquare(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v2/orders/")
	w.Header().Set("Content-Type", "application/json")
	var state string
	switch {
	case strings.HasPrefix(id, "paid-"):
		state = "COMPLETED"
	case strings.HasPrefix(id, "open-"):
		state = "OPEN"
	case strings.HasPrefix(id, "cancel-"):
		state = "CANCELED"
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"errors":[{"category":"INVALID_REQUEST_ERROR","code":"NOT_FOUND","detail":"Could not find order %s"}]}`, id)
		return
	}
	fmt.Fprintf(w, `{"order":{"id":%q,"state":%q,"customer_id":"CUST-1"}}`, id, state)
}

// newEnv wires the same stack `askgate serve` builds, with every provider
// pointed at the fake upstream.
func newEnv(t *testing.T, keys Keys) *Env {
	t.Helper()

	cfg := config.Defaults()
	cfg.Providers.Gemini.BaseURL = upstreamSrv.URL
	cfg.Providers.Gemini.APIKeys = keys.Gemini
	cfg.Providers.OpenRouter.BaseURL = upstreamSrv.URL
	cfg.Providers.OpenRouter.APIKeys = keys.OpenRouter
	cfg.Providers.Groq.BaseURL = upstreamSrv.URL
	cfg.Providers.Groq.APIKeys = keys.Groq
	cfg.Retry.InitialInterval = time.Millisecond
	cfg.Retry.MaxInterval = 5 * time.Millisecond

	reg, err := registry.New(&cfg)
	if err != nil {
		t.Fatalf("creating registry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })

	sessStore := memory.New(100, time.Hour)
	sessions := session.NewManager(sessStore, cfg.Session.CookieName, time.Hour, false)
	toggle := engine.NewToggle(true)
	eng, err := engine.New(reg, sessStore, toggle, engine.Config{
		SystemPrompt:  cfg.Engine.SystemPrompt,
		MaxInputRunes: cfg.Engine.MaxInputRunes,
	})
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}

	dataPath := filepath.Join(t.TempDir(), "telemetry.json")
	fs, err := file.New(dataPath)
	if err != nil {
		t.Fatalf("creating telemetry store: %v", err)
	}
	store := telemetry.Instrument(fs, "file")

	sq, err := square.New(square.Config{AccessToken: "sq-token", BaseURL: squareSrv.URL})
	if err != nil {
		t.Fatalf("creating square verifier: %v", err)
	}

	users := basic.NewUsers([]basic.User{{Username: adminUser, PasswordHash: adminHash}})

	adapter := transporthttp.NewAdapter(transporthttp.Backends{
		Answerer:  eng,
		Articles:  eng,
		Toggle:    toggle,
		Sessions:  sessions,
		Telemetry: store,
		License:   license.Instrument(sq),
		Users:     users,
		Providers: reg.Names,
	}, transporthttp.Config{
		MaxBodySize: cfg.Server.MaxBodySize,
		MetricsPath: "/metrics",
		Version:     "integration",
	}, transport.Recovery(), transport.RequestID())

	chain := &auth.Chain{Authenticators: []auth.Authenticator{
		sessionauth.New(sessions),
		basic.New(users),
		&noop.Authenticator{},
	}}
	var h http.Handler = auth.Middleware(chain, nil, auth.DefaultBypassEndpoints)(adapter.Handler())
	h = observability.MetricsMiddleware(h)
	h = transporthttp.CORS([]transporthttp.CORSPolicy{{
		PathPrefix:     "/ask",
		AllowedOrigins: []string{"https://portal.achieve3000.com"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}}, transporthttp.CORSPolicy{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	})(h)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &Env{Server: srv, Upstream: upstream, Toggle: toggle, Telemetry: store, DataPath: dataPath}
}

// --- HTTP helpers ---

func postJSON(t *testing.T, url string, body any, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func getURL(t *testing.T, url string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(data)
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
