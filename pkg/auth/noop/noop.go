// Package noop provides the authenticator that admits anonymous callers.
// It identifies them by client address so per-subject rate limits still
// apply. It belongs at the end of a chain.
package noop

import (
	"context"
	"net"
	"net/http"

	"github.com/rhuss/askgate/pkg/auth"
)

// Authenticator always votes Yes.
type Authenticator struct{}

// Authenticate returns an anonymous identity for the client address.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.Result {
	return auth.Result{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			Subject:     ClientAddr(r),
			ServiceTier: "anonymous",
			Method:      "anonymous",
		},
	}
}

// ClientAddr returns the host part of the request's remote address.
func ClientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}
