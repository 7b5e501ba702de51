package session

import (
	"net/http"
	"time"

	"github.com/rhuss/askgate/pkg/api"
)

// Manager moves session ids between HTTP requests, cookies, and the store.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewManager creates a manager. When secure is set, cookies are marked
// Secure and SameSite=None so browser extensions on other origins can
// send them; otherwise SameSite=Lax.
func NewManager(store Store, cookieName string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		store:      store,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// RequestID returns the session id for a request: an explicit id from the
// request body wins over the cookie. Malformed ids are ignored so that a
// client cannot pick its own session key.
func (m *Manager) RequestID(r *http.Request, explicit string) string {
	if explicit != "" && api.ValidateSessionID(explicit) {
		return explicit
	}
	if c, err := r.Cookie(m.cookieName); err == nil && api.ValidateSessionID(c.Value) {
		return c.Value
	}
	return ""
}

// Issue sets the session cookie.
func (m *Manager) Issue(w http.ResponseWriter, id string) {
	c := &http.Cookie{
		Name:     m.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if m.ttl > 0 {
		c.MaxAge = int(m.ttl.Seconds())
	}
	if m.secure {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, c)
}

// Refresh re-sets the session cookie the request carried, extending its
// lifetime in the browser to match the store's idle TTL.
func (m *Manager) Refresh(w http.ResponseWriter, r *http.Request) {
	if id := m.RequestID(r, ""); id != "" {
		m.Issue(w, id)
	}
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	c := &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if m.secure {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, c)
}
