package http

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/rhuss/askgate/pkg/api"
	"github.com/rhuss/askgate/pkg/auth"
	"github.com/rhuss/askgate/pkg/transport"
)

const readyCheckTimeout = 2 * time.Second

func (a *Adapter) status() *api.StatusResponse {
	resp := &api.StatusResponse{
		Enabled:   a.b.Toggle.Enabled(),
		Providers: []string{},
		Version:   a.config.Version,
	}
	if a.b.Providers != nil {
		if names := a.b.Providers(); names != nil {
			resp.Providers = names
		}
	}
	return resp
}

// handleStatus serves GET /status.
func (a *Adapter) handleStatus(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, a.status())
}

// handleToggle serves POST /toggle. With {"enabled": bool} the flag is
// set; with an empty body it is flipped.
func (a *Adapter) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req api.ToggleRequest
	if !a.decodeJSON(w, r, &req, true) {
		return
	}

	var enabled bool
	if req.Enabled != nil {
		enabled = *req.Enabled
		a.b.Toggle.SetEnabled(enabled)
	} else {
		enabled = a.b.Toggle.Flip()
	}

	subject := ""
	if id := auth.IdentityFromContext(r.Context()); id != nil {
		subject = id.Subject
	}
	slog.Info("service toggled", "enabled", enabled, "subject", subject)
	a.issueSession(w, r, "")
	transport.WriteJSON(w, http.StatusOK, a.status())
}

// handleHealthz reports liveness.
func (a *Adapter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, &api.HealthResponse{Status: "ok"})
}

// handleReadyz runs the configured readiness checks.
func (a *Adapter) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if len(a.config.ReadyChecks) == 0 {
		transport.WriteJSON(w, http.StatusOK, &api.HealthResponse{Status: "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(a.config.ReadyChecks))
	for name := range a.config.ReadyChecks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := &api.HealthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := a.config.ReadyChecks[name](ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	transport.WriteJSON(w, status, resp)
}
