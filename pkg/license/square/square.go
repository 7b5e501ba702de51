// Package square verifies license keys as Square order ids through the
// Orders API.
package square

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rhuss/askgate/pkg/debug"
	"github.com/rhuss/askgate/pkg/license"
)

// Base URLs per Square environment.
const (
	ProductionBaseURL = "https://connect.squareup.com"
	SandboxBaseURL    = "https://connect.squareupsandbox.com"
)

// DefaultAPIVersion is sent as Square-Version when none is configured.
const DefaultAPIVersion = "2024-07-17"

// Config configures the verifier.
type Config struct {
	AccessToken string
	Environment string // "production" or "sandbox"
	BaseURL     string // overrides Environment
	APIVersion  string
	Timeout     time.Duration
}

// Verifier looks up orders by id.
type Verifier struct {
	baseURL    string
	token      string
	apiVersion string
	client     *http.Client
}

// Ensure Verifier implements license.Verifier at compile time.
var _ license.Verifier = (*Verifier)(nil)

// New creates a Square verifier.
func New(cfg Config) (*Verifier, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("square: access token is required")
	}
	base := cfg.BaseURL
	if base == "" {
		switch cfg.Environment {
		case "", "production":
			base = ProductionBaseURL
		case "sandbox":
			base = SandboxBaseURL
		default:
			return nil, fmt.Errorf("square: unknown environment %q", cfg.Environment)
		}
	}
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Verifier{
		baseURL:    strings.TrimRight(base, "/"),
		token:      cfg.AccessToken,
		apiVersion: version,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Name returns "square".
func (v *Verifier) Name() string { return "square" }

// order is the subset of the Square Order object we read.
type order struct {
	ID         string `json:"id"`
	State      string `json:"state"`
	CustomerID string `json:"customer_id"`
}

type retrieveOrderResponse struct {
	Order  *order        `json:"order"`
	Errors []squareError `json:"errors"`
}

type squareError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail,omitempty"`
	Field    string `json:"field,omitempty"`
}

// Verify retrieves the order. COMPLETED and OPEN orders are active. Any
// error list Square returns for the lookup means the key is not usable.
func (v *Verifier) Verify(ctx context.Context, key string) (*license.Result, error) {
	endpoint := v.baseURL + "/v2/orders/" + url.PathEscape(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("square: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.token)
	req.Header.Set("Square-Version", v.apiVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("square: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("square: reading response: %w", err)
	}
	debug.Log("license", "square response", "status", resp.StatusCode, "body", debug.Truncate(string(body), 500))

	var out retrieveOrderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("square: decoding response (HTTP %d): %w", resp.StatusCode, err)
	}

	if len(out.Errors) > 0 {
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("square: HTTP %d: %s", resp.StatusCode, out.Errors[0].Code)
		}
		return nil, &license.NotFoundError{Backend: v.Name(), Details: out.Errors}
	}
	if resp.StatusCode != http.StatusOK || out.Order == nil {
		return nil, fmt.Errorf("square: unexpected response (HTTP %d)", resp.StatusCode)
	}

	switch out.Order.State {
	case "COMPLETED", "OPEN":
		return &license.Result{
			Valid:      true,
			Status:     license.StatusActive,
			CustomerID: out.Order.CustomerID,
		}, nil
	default:
		return &license.Result{
			Valid:  false,
			Status: license.StatusInactive,
			Reason: fmt.Sprintf("Order state is %s (not completed)", out.Order.State),
		}, nil
	}
}
