// Package sessionauth recognizes admin sessions created by POST /login.
// Only the cookie is consulted; a session id in a request body never
// grants admin rights.
package sessionauth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rhuss/askgate/pkg/auth"
	"github.com/rhuss/askgate/pkg/session"
)

// Authenticator looks up the session named by the cookie.
type Authenticator struct {
	sessions *session.Manager
}

// New creates a session authenticator.
func New(sessions *session.Manager) *Authenticator {
	return &Authenticator{sessions: sessions}
}

// Authenticate votes Yes for a logged-in admin session and abstains
// otherwise, so anonymous sessions fall through to the next authenticator.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.Result {
	id := a.sessions.RequestID(r, "")
	if id == "" {
		return auth.Result{Decision: auth.Abstain}
	}
	sess, err := a.sessions.Store().Get(ctx, id)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			slog.Warn("session lookup failed", "error", err)
		}
		return auth.Result{Decision: auth.Abstain}
	}
	if !sess.Admin || sess.Subject == "" {
		return auth.Result{Decision: auth.Abstain}
	}
	return auth.Result{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			Subject:     sess.Subject,
			ServiceTier: "admin",
			Scopes:      []string{auth.ScopeAdmin},
			Method:      "session",
		},
	}
}
