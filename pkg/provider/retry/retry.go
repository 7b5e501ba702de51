// Package retry wraps a provider with bounded exponential backoff. Adapters
// draw a fresh key from their ring on every call, so each retry also
// rotates away from a key that just hit its quota.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rhuss/askgate/pkg/debug"
	"github.com/rhuss/askgate/pkg/observability"
	"github.com/rhuss/askgate/pkg/provider"
)

// Options bounds the retry loop.
type Options struct {
	// MaxAttempts is the total number of calls, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultAttempts derives an attempt budget from the number of keys: one
// per key, at least 2 and at most 5.
func DefaultAttempts(keys int) int {
	return min(max(keys, 2), 5)
}

// Provider retries retryable failures of the wrapped provider.
type Provider struct {
	inner provider.Provider
	opts  Options
}

var _ provider.Provider = (*Provider)(nil)

// New wraps inner.
func New(inner provider.Provider, opts Options) *Provider {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 250 * time.Millisecond
	}
	if opts.MaxInterval < opts.InitialInterval {
		opts.MaxInterval = opts.InitialInterval
	}
	return &Provider{inner: inner, opts: opts}
}

// Name returns the wrapped provider's name.
func (p *Provider) Name() string {
	return p.inner.Name()
}

// Generate calls the wrapped provider until it succeeds, fails with a
// non-retryable error, runs out of attempts, or ctx is done.
func (p *Provider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	attempt := 0
	op := func() (*provider.Response, error) {
		attempt++
		resp, err := p.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !provider.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	notify := func(err error, wait time.Duration) {
		observability.ProviderRetriesTotal.WithLabelValues(p.inner.Name()).Inc()
		debug.Log("providers", "retrying",
			"provider", p.inner.Name(), "attempt", attempt, "wait", wait, "error", err)
	}

	resp, err := backoff.RetryNotifyWithData(op, p.backOff(ctx), notify)
	if err != nil && attempt > 1 {
		slog.Warn("provider failed after retries",
			"provider", p.inner.Name(), "attempts", attempt, "error", err)
	}
	return resp, err
}

// Close closes the wrapped provider.
func (p *Provider) Close() error {
	return p.inner.Close()
}

func (p *Provider) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.opts.InitialInterval
	b.MaxInterval = p.opts.MaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.opts.MaxAttempts-1)), ctx)
}
