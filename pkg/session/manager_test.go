package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rhuss/askgate/pkg/api"
)

func TestRequestID(t *testing.T) {
	m := NewManager(nil, "askgate_session", time.Hour, false)
	cookieID := api.NewSessionID()
	bodyID := api.NewSessionID()

	tests := []struct {
		name     string
		cookie   string
		explicit string
		want     string
	}{
		{"none", "", "", ""},
		{"cookie", cookieID, "", cookieID},
		{"explicit wins", cookieID, bodyID, bodyID},
		{"malformed explicit falls back to cookie", cookieID, "../etc/passwd", cookieID},
		{"malformed cookie ignored", "sess_not-a-uuid", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ask", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "askgate_session", Value: tt.cookie})
			}
			if got := m.RequestID(r, tt.explicit); got != tt.want {
				t.Errorf("RequestID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIssue(t *testing.T) {
	tests := []struct {
		name     string
		secure   bool
		sameSite http.SameSite
	}{
		{"lax", false, http.SameSiteLaxMode},
		{"cross-site", true, http.SameSiteNoneMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(nil, "askgate_session", time.Hour, tt.secure)
			rec := httptest.NewRecorder()
			m.Issue(rec, "sess_x")

			cookies := rec.Result().Cookies()
			if len(cookies) != 1 {
				t.Fatalf("got %d cookies", len(cookies))
			}
			c := cookies[0]
			if c.Name != "askgate_session" || c.Value != "sess_x" || !c.HttpOnly {
				t.Errorf("cookie = %+v", c)
			}
			if c.Secure != tt.secure || c.SameSite != tt.sameSite {
				t.Errorf("Secure=%v SameSite=%v", c.Secure, c.SameSite)
			}
			if c.MaxAge != 3600 {
				t.Errorf("MaxAge = %d", c.MaxAge)
			}
		})
	}
}

func TestClear(t *testing.T) {
	m := NewManager(nil, "askgate_session", time.Hour, false)
	rec := httptest.NewRecorder()
	m.Clear(rec)
	c := rec.Result().Cookies()[0]
	if c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("cookie not cleared: %+v", c)
	}
}

func TestRefresh(t *testing.T) {
	m := NewManager(nil, "askgate_session", time.Hour, false)
	id := api.NewSessionID()

	r := httptest.NewRequest(http.MethodGet, "/status", nil)
	r.AddCookie(&http.Cookie{Name: "askgate_session", Value: id})
	rec := httptest.NewRecorder()
	m.Refresh(rec, r)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != id || cookies[0].MaxAge != 3600 {
		t.Errorf("cookies = %+v, want %q refreshed", cookies, id)
	}

	rec = httptest.NewRecorder()
	m.Refresh(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if n := len(rec.Result().Cookies()); n != 0 {
		t.Errorf("refresh without a cookie set %d cookies", n)
	}
}
