package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rhuss/askgate/pkg/auth"
	"github.com/rhuss/askgate/pkg/auth/apikey"
	"github.com/rhuss/askgate/pkg/auth/basic"
	"github.com/rhuss/askgate/pkg/auth/jwt"
	"github.com/rhuss/askgate/pkg/auth/noop"
	"github.com/rhuss/askgate/pkg/auth/sessionauth"
	"github.com/rhuss/askgate/pkg/config"
	"github.com/rhuss/askgate/pkg/license"
	"github.com/rhuss/askgate/pkg/license/square"
	"github.com/rhuss/askgate/pkg/license/stripe"
	"github.com/rhuss/askgate/pkg/observability"
	"github.com/rhuss/askgate/pkg/session"
	"github.com/rhuss/askgate/pkg/telemetry"
	"github.com/rhuss/askgate/pkg/telemetry/file"
	"github.com/rhuss/askgate/pkg/telemetry/postgres"
	"github.com/rhuss/askgate/pkg/telemetry/sqlite"
	transporthttp "github.com/rhuss/askgate/pkg/transport/http"
)

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// newTelemetryStore opens the configured store. It returns a nil store for
// type "none", and readiness checks for stores that support them.
func newTelemetryStore(ctx context.Context, cfg *config.Config) (telemetry.Store, map[string]func(context.Context) error, error) {
	var (
		store telemetry.Store
		err   error
	)
	switch cfg.Telemetry.Type {
	case "none":
		return nil, nil, nil
	case "file":
		store, err = file.New(cfg.Telemetry.File.Path)
	case "sqlite":
		store, err = sqlite.New(cfg.Telemetry.SQLite.Path)
	case "postgres":
		pc := cfg.Telemetry.Postgres
		store, err = postgres.New(ctx, postgres.Config{
			DSN:            pc.DSN,
			MaxConns:       pc.MaxConns,
			MigrateOnStart: pc.MigrateOnStart,
		})
	default:
		return nil, nil, fmt.Errorf("unknown telemetry type %q", cfg.Telemetry.Type)
	}
	if err != nil {
		return nil, nil, err
	}

	var checks map[string]func(context.Context) error
	if hc, ok := store.(healthChecker); ok {
		checks = map[string]func(context.Context) error{"telemetry": hc.HealthCheck}
	}
	return telemetry.Instrument(store, cfg.Telemetry.Type), checks, nil
}

// newVerifier returns the configured license verifier, or nil for "none".
func newVerifier(cfg *config.Config) (license.Verifier, error) {
	var (
		v   license.Verifier
		err error
	)
	switch cfg.License.Backend {
	case "none":
		return nil, nil
	case "square":
		sc := cfg.License.Square
		v, err = square.New(square.Config{
			AccessToken: sc.AccessToken,
			Environment: sc.Environment,
			BaseURL:     sc.BaseURL,
			APIVersion:  sc.APIVersion,
		})
	case "stripe":
		v, err = stripe.New(cfg.License.Stripe.SecretKey)
	default:
		return nil, fmt.Errorf("unknown license backend %q", cfg.License.Backend)
	}
	if err != nil {
		return nil, err
	}
	return license.Instrument(v), nil
}

func adminUsers(cfg *config.Config) []basic.User {
	users := make([]basic.User, 0, len(cfg.Auth.AdminUsers))
	for _, u := range cfg.Auth.AdminUsers {
		users = append(users, basic.User{Username: u.Username, PasswordHash: u.PasswordHash})
	}
	return users
}

// newAuthChain orders the authenticators: an admin session cookie first,
// then Basic credentials for operators, then the configured client scheme.
func newAuthChain(cfg *config.Config, sessions *session.Manager, users *basic.Users) *auth.Chain {
	chain := &auth.Chain{}
	if sessions != nil {
		chain.Authenticators = append(chain.Authenticators, sessionauth.New(sessions))
	}
	if users != nil && users.Len() > 0 {
		chain.Authenticators = append(chain.Authenticators, basic.New(users))
	}

	switch cfg.Auth.Type {
	case "apikey":
		keys := make([]apikey.Key, 0, len(cfg.Auth.APIKeys))
		for _, k := range cfg.Auth.APIKeys {
			keys = append(keys, apikey.Key{
				Key:         k.Key,
				Subject:     k.Subject,
				ServiceTier: k.ServiceTier,
				Admin:       k.Admin,
			})
		}
		chain.Authenticators = append(chain.Authenticators, apikey.New(keys))
	case "jwt":
		jc := cfg.Auth.JWT
		chain.Authenticators = append(chain.Authenticators, jwt.New(jwt.Config{
			Issuer:     jc.Issuer,
			Audience:   jc.Audience,
			JWKSURL:    jc.JWKSURL,
			HMACSecret: jc.HMACSecret,
			AdminScope: jc.AdminScope,
			CacheTTL:   jc.CacheTTL,
		}))
	default:
		chain.Authenticators = append(chain.Authenticators, &noop.Authenticator{})
	}
	return chain
}

// newLimiter returns nil when no limit is configured.
func newLimiter(cfg *config.Config) auth.RateLimiter {
	rl := cfg.Auth.RateLimit
	if rl.RequestsPerMinute <= 0 {
		return nil
	}
	return auth.NewTokenBucketLimiter(auth.TierConfig{
		RequestsPerMinute: rl.RequestsPerMinute,
		Burst:             rl.Burst,
	}, map[string]auth.TierConfig{
		// Operators are never throttled.
		"admin": {},
	})
}

func corsPolicies(c config.CORSConfig) ([]transporthttp.CORSPolicy, transporthttp.CORSPolicy) {
	policies := make([]transporthttp.CORSPolicy, 0, len(c.Policies))
	for _, p := range c.Policies {
		policies = append(policies, corsPolicy(p))
	}
	return policies, corsPolicy(c.Default)
}

func corsPolicy(p config.CORSPolicy) transporthttp.CORSPolicy {
	return transporthttp.CORSPolicy{
		PathPrefix:       p.PathPrefix,
		AllowedOrigins:   p.AllowedOrigins,
		AllowedMethods:   p.AllowedMethods,
		AllowedHeaders:   p.AllowedHeaders,
		AllowCredentials: p.AllowCredentials,
		MaxAge:           p.MaxAge,
	}
}

// buildHandler wraps the adapter: CORS outermost so preflights and error
// responses carry CORS headers, then metrics, then authentication.
func buildHandler(inner http.Handler, cfg *config.Config, chain *auth.Chain, limiter auth.RateLimiter) http.Handler {
	bypass := append([]string(nil), auth.DefaultBypassEndpoints...)
	if cfg.Observability.Metrics.Path != "" && cfg.Observability.Metrics.Path != "/metrics" {
		bypass = append(bypass, cfg.Observability.Metrics.Path)
	}

	h := auth.Middleware(chain, limiter, bypass)(inner)
	h = observability.MetricsMiddleware(h)
	return transporthttp.CORS(corsPolicies(cfg.CORS))(h)
}
