// Package http serves the askgate API over HTTP: routing, request
// decoding, session cookies, CORS and the server lifecycle.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/askgate/pkg/api"
	"github.com/rhuss/askgate/pkg/auth"
	"github.com/rhuss/askgate/pkg/auth/basic"
	"github.com/rhuss/askgate/pkg/license"
	"github.com/rhuss/askgate/pkg/session"
	"github.com/rhuss/askgate/pkg/telemetry"
	"github.com/rhuss/askgate/pkg/transport"
)

// Backends are the components the adapter dispatches to. Only Answerer
// is required; routes whose backend is nil are not registered.
type Backends struct {
	Answerer  transport.Answerer
	Articles  transport.ArticleKeeper
	Toggle    transport.Switch
	Sessions  *session.Manager
	Telemetry telemetry.Store
	License   license.Verifier
	Users     *basic.Users

	// Providers lists the configured provider names for /status.
	Providers func() []string
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
	MetricsPath string // empty disables /metrics
	Version     string

	// ReadyChecks are run by /readyz; any error makes the service unready.
	ReadyChecks map[string]func(context.Context) error
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 10 << 20,
		MetricsPath: "/metrics",
	}
}

// Adapter routes HTTP requests to the backends.
type Adapter struct {
	b      Backends
	config Config
	mux    *http.ServeMux
}

// NewAdapter creates an adapter. Middleware is applied to the Answerer in
// the given order.
func NewAdapter(b Backends, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}
	if b.Answerer != nil && len(middlewares) > 0 {
		b.Answerer = transport.Chain(middlewares...)(b.Answerer)
	}

	a := &Adapter{b: b, config: cfg, mux: http.NewServeMux()}
	admin := auth.Require(auth.ScopeAdmin)

	if b.Answerer != nil {
		a.mux.HandleFunc("GET /ask", a.handleAsk)
		a.mux.HandleFunc("POST /ask", a.handleAsk)
	}
	if b.Articles != nil {
		a.mux.HandleFunc("POST /article", a.handleStoreArticle)
		a.mux.HandleFunc("DELETE /article", a.handleClearArticle)
	}
	if b.Telemetry != nil {
		a.mux.HandleFunc("POST /data", a.handleAppendData)
		a.mux.Handle("GET /data", admin(http.HandlerFunc(a.handleListData)))
	}
	if b.License != nil {
		a.mux.HandleFunc("POST /api/verify-license", a.handleVerifyLicense)
	}
	if b.Users != nil && b.Sessions != nil {
		a.mux.HandleFunc("POST /login", a.handleLogin)
		a.mux.HandleFunc("POST /logout", a.handleLogout)
	}
	if b.Toggle != nil {
		a.mux.HandleFunc("GET /status", a.handleStatus)
		a.mux.Handle("POST /toggle", admin(http.HandlerFunc(a.handleToggle)))
	}
	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReadyz)
	if cfg.MetricsPath != "" {
		a.mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
	}

	return a
}

// Handler returns the http.Handler for this adapter, including X-Request-ID
// propagation, an access log line and panic recovery for every route.
func (a *Adapter) Handler() http.Handler {
	return requestIDMiddleware(transport.LogHTTP(nil, transport.RecoverHTTP(a.mux)))
}

// requestIDMiddleware takes the request ID from X-Request-ID or creates
// one, stores it in the context, and echoes it in the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 128 {
			id = transport.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(transport.ContextWithRequestID(r.Context(), id)))
	})
}

// decodeJSON reads a size-limited JSON body into v. It writes the error
// response itself and reports whether decoding succeeded. An empty body
// is accepted when allowEmpty is set.
func (a *Adapter) decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
				http.StatusUnsupportedMediaType,
			)
			return false
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
		case allowEmpty && errors.Is(err, io.EOF):
			return true
		default:
			transport.WriteAPIError(w, api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()))
		}
		return false
	}
	return true
}

// writeError writes any error as a JSON error response. Errors that are
// not APIErrors become a generic server error.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		apiErr = api.NewServerError("Internal server error")
	}
	transport.WriteAPIError(w, apiErr)
}
