// Package apikey authenticates static API keys sent as a bearer token or
// in the X-API-Key header. Only SHA-256 hashes of the keys are kept and
// comparisons are constant time.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rhuss/askgate/pkg/auth"
)

// HeaderName is the alternative header for clients that cannot set
// Authorization.
const HeaderName = "X-API-Key"

// Key is the configuration format for one API key.
type Key struct {
	Key         string
	Subject     string
	ServiceTier string
	Admin       bool
}

type entry struct {
	hash     [32]byte
	identity auth.Identity
}

// Authenticator validates keys against a static set.
type Authenticator struct {
	keys []entry
}

// New hashes the keys; plaintext is not retained. Empty keys are skipped.
func New(keys []Key) *Authenticator {
	a := &Authenticator{}
	for _, k := range keys {
		if k.Key == "" {
			continue
		}
		id := auth.Identity{
			Subject:     k.Subject,
			ServiceTier: k.ServiceTier,
			Method:      "apikey",
		}
		if id.Subject == "" {
			id.Subject = "apikey"
		}
		if k.Admin {
			id.Scopes = []string{auth.ScopeAdmin}
		}
		a.keys = append(a.keys, entry{hash: sha256.Sum256([]byte(k.Key)), identity: id})
	}
	return a
}

// Authenticate abstains when no key is presented, votes No for an unknown
// key, and Yes for a known one.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.Result {
	token, ok := credential(r)
	if !ok {
		return auth.Result{Decision: auth.Abstain}
	}
	if token == "" {
		return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	sum := sha256.Sum256([]byte(token))
	for _, e := range a.keys {
		if subtle.ConstantTimeCompare(sum[:], e.hash[:]) == 1 {
			id := e.identity
			return auth.Result{Decision: auth.Yes, Identity: &id}
		}
	}
	return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
}

func credential(r *http.Request) (string, bool) {
	if v := r.Header.Get(HeaderName); v != "" {
		return strings.TrimSpace(v), true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return "", false
	}
	// JWTs are left to the jwt authenticator.
	if strings.Count(token, ".") == 2 {
		return "", false
	}
	return strings.TrimSpace(token), true
}
