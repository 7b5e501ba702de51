// Package fallback chains providers so that a request refused by one
// backend (quota, outage) is handed to the next.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rhuss/askgate/pkg/observability"
	"github.com/rhuss/askgate/pkg/provider"
)

// Provider tries each provider in order.
type Provider struct {
	chain []provider.Provider
}

var _ provider.Provider = (*Provider)(nil)

// New creates a fallback chain. At least one provider is required.
func New(chain ...provider.Provider) (*Provider, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("fallback: at least one provider is required")
	}
	return &Provider{chain: chain}, nil
}

// Name joins the chained provider names, e.g. "gemini>groq".
func (p *Provider) Name() string {
	names := make([]string, len(p.chain))
	for i, c := range p.chain {
		names[i] = c.Name()
	}
	return strings.Join(names, ">")
}

// Generate returns the first success. A non-retryable failure stops the
// chain, since the next backend would reject the same request; the last
// error is returned when every provider fails.
//
// The model override only applies to the first provider, whose model
// namespace the client chose it for.
func (p *Provider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	var lastErr error
	for i, c := range p.chain {
		r := req
		if i > 0 && req.Model != "" {
			cp := *req
			cp.Model = ""
			r = &cp
		}

		resp, err := c.Generate(ctx, r)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || !provider.IsRetryable(err) {
			return nil, err
		}
		if i+1 < len(p.chain) {
			next := p.chain[i+1].Name()
			observability.ProviderFallbacksTotal.WithLabelValues(c.Name(), next).Inc()
			slog.Warn("provider failed, falling back",
				"provider", c.Name(), "next", next, "error", err)
		}
	}
	return nil, lastErr
}

// Close closes every chained provider.
func (p *Provider) Close() error {
	var errs []error
	for _, c := range p.chain {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
