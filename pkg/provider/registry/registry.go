// Package registry builds the configured providers, each wrapped with
// retry, and the default fallback chain over them.
package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rhuss/askgate/pkg/config"
	"github.com/rhuss/askgate/pkg/observability"
	"github.com/rhuss/askgate/pkg/provider"
	"github.com/rhuss/askgate/pkg/provider/fallback"
	"github.com/rhuss/askgate/pkg/provider/gemini"
	"github.com/rhuss/askgate/pkg/provider/groq"
	"github.com/rhuss/askgate/pkg/provider/keyring"
	"github.com/rhuss/askgate/pkg/provider/openrouter"
	"github.com/rhuss/askgate/pkg/provider/retry"
)

// Registry maps provider names to ready-to-use providers.
type Registry struct {
	providers map[string]provider.Provider
	rings     map[string]*keyring.Ring
	order     []string
	chain     provider.Provider
}

// New builds every provider that has keys, in try order. It fails when no
// provider is configured.
func New(cfg *config.Config) (*Registry, error) {
	r := &Registry{
		providers: make(map[string]provider.Provider),
		rings:     make(map[string]*keyring.Ring),
	}

	for _, name := range cfg.ConfiguredProviders() {
		pc, _ := cfg.Provider(name)
		ring, err := keyring.New(pc.APIKeys)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		rotations := observability.KeyRotationsTotal.WithLabelValues(name)
		ring.OnRotate = rotations.Inc

		p, err := build(name, pc, ring)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}

		attempts := cfg.Retry.MaxAttempts
		if attempts == 0 {
			attempts = retry.DefaultAttempts(ring.Len())
		}
		r.providers[name] = retry.New(p, retry.Options{
			MaxAttempts:     attempts,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
		})
		r.rings[name] = ring
		r.order = append(r.order, name)

		slog.Info("provider configured", "provider", name, "model", pc.Model, "keys", ring.Len(), "max_attempts", attempts)
	}

	if len(r.order) == 0 {
		return nil, fmt.Errorf("no provider has an API key; set GEMINI_API_KEY, OPENROUTER_API_KEY, or GROQ_API_KEY")
	}

	chain := make([]provider.Provider, len(r.order))
	for i, name := range r.order {
		chain[i] = r.providers[name]
	}
	fb, err := fallback.New(chain...)
	if err != nil {
		return nil, err
	}
	r.chain = fb
	return r, nil
}

func build(name string, pc config.ProviderConfig, ring *keyring.Ring) (provider.Provider, error) {
	switch name {
	case config.ProviderGemini:
		return gemini.New(gemini.Config{
			BaseURL: pc.BaseURL,
			Keys:    ring,
			Model:   pc.Model,
			Timeout: pc.Timeout,
		})
	case config.ProviderOpenRouter:
		return openrouter.New(openrouter.Config{
			BaseURL: pc.BaseURL,
			Keys:    ring,
			Model:   pc.Model,
			Timeout: pc.Timeout,
			Referer: pc.Referer,
			Title:   pc.Title,
		})
	case config.ProviderGroq:
		return groq.New(groq.Config{
			BaseURL:     pc.BaseURL,
			Keys:        ring,
			Model:       pc.Model,
			VisionModel: pc.VisionModel,
			Timeout:     pc.Timeout,
		})
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}

// Get returns the named provider, retries included.
func (r *Registry) Get(name string) (provider.Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Default returns the fallback chain over every configured provider.
func (r *Registry) Default() provider.Provider {
	return r.chain
}

// Names returns the configured provider names in try order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// UpdateKeys swaps key sets from a reloaded config. Providers that were not
// configured at startup are not added; that needs a restart.
func (r *Registry) UpdateKeys(cfg *config.Config) {
	for name, ring := range r.rings {
		pc, _ := cfg.Provider(name)
		if err := ring.Replace(pc.APIKeys); err != nil {
			slog.Warn("keeping previous keys", "provider", name, "error", err)
			continue
		}
		slog.Info("provider keys updated", "provider", name, "keys", ring.Len())
	}
}

// Close closes every provider.
func (r *Registry) Close() error {
	var errs []error
	for _, p := range r.providers {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}
