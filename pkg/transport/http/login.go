package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/askgate/pkg/api"
	"github.com/rhuss/askgate/pkg/session"
	"github.com/rhuss/askgate/pkg/transport"
)

// handleLogin serves POST /login. A successful login always starts a new
// session id; an article from the previous session is carried over.
func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !a.decodeJSON(w, r, &req, false) {
		return
	}
	if req.Username == "" || !a.b.Users.Verify(req.Username, req.Password) {
		slog.Warn("login failed", "username", req.Username, "remote_addr", r.RemoteAddr)
		transport.WriteAPIError(w, api.NewUnauthorizedError("Invalid username or password"))
		return
	}

	store := a.b.Sessions.Store()
	now := time.Now()
	sess := &session.Session{
		ID:        api.NewSessionID(),
		Subject:   req.Username,
		Admin:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if oldID := a.b.Sessions.RequestID(r, ""); oldID != "" {
		if old, err := store.Get(r.Context(), oldID); err == nil {
			sess.Article = old.Article
			_ = store.Delete(r.Context(), oldID)
		}
	}
	if err := store.Save(r.Context(), sess); err != nil {
		slog.Error("saving login session failed", "error", err)
		writeError(w, err)
		return
	}

	slog.Info("admin logged in", "username", req.Username)
	a.b.Sessions.Issue(w, sess.ID)
	transport.WriteJSON(w, http.StatusOK, &api.LoginResponse{Authenticated: true, Username: req.Username})
}

// handleLogout serves POST /logout. It succeeds even without a session.
func (a *Adapter) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := a.b.Sessions.RequestID(r, ""); id != "" {
		err := a.b.Sessions.Store().Delete(r.Context(), id)
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			slog.Error("deleting session failed", "error", err)
		}
	}
	a.b.Sessions.Clear(w)
	transport.WriteJSON(w, http.StatusOK, &api.LoginResponse{})
}
