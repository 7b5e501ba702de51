package api

import (
	"encoding/json"
	"time"
)

// AskRequest is the input of GET/POST /ask. At least one of Q, HTML, or
// Image must be present; Article alone only provides context.
type AskRequest struct {
	Q              string `json:"q,omitempty"`
	Article        string `json:"article,omitempty"`
	HTML           string `json:"html,omitempty"`
	Image          string `json:"image,omitempty"` // base64, optionally a data: URI
	Prompt         string `json:"prompt,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
}

// HasInput reports whether the request carries something to answer.
func (r *AskRequest) HasInput() bool {
	return r.Q != "" || r.HTML != "" || r.Image != ""
}

// AskResponse is the successful result of /ask.
type AskResponse struct {
	Response       string `json:"response"`
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ArticleRequest stores reading material for follow-up questions.
type ArticleRequest struct {
	Article        string `json:"article"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ArticleResponse acknowledges a stored article.
type ArticleResponse struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Length         int    `json:"length"`
}

// TelemetryRecord wraps one client-supplied analytics blob. Data is kept
// verbatim; the server never interprets it.
type TelemetryRecord struct {
	ID         string          `json:"id"`
	ReceivedAt time.Time       `json:"received_at"`
	RemoteAddr string          `json:"remote_addr,omitempty"`
	UserAgent  string          `json:"user_agent,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// TelemetryList is the body of GET /data.
type TelemetryList struct {
	Object string             `json:"object"`
	Data   []*TelemetryRecord `json:"data"`
	Total  int                `json:"total"`
}

// LicenseRequest is the body of POST /api/verify-license.
type LicenseRequest struct {
	Key string `json:"key"`
}

// LicenseResponse is returned by the license endpoint for every outcome.
type LicenseResponse struct {
	Valid      bool   `json:"valid"`
	Status     string `json:"status,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	Details    any    `json:"details,omitempty"`
}

// LoginRequest carries admin credentials for POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ToggleRequest optionally sets the toggle to an explicit value.
type ToggleRequest struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// StatusResponse reports the service state.
type StatusResponse struct {
	Enabled   bool     `json:"enabled"`
	Providers []string `json:"providers"`
	Version   string   `json:"version,omitempty"`
}

// LoginResponse reports the admin session state after /login or /logout.
type LoginResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
