package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, c.validateServer()...)

	// engine.default_provider and engine.fallback must name known providers.
	if !knownProvider(c.Engine.DefaultProvider) {
		errs = append(errs, fmt.Errorf("engine.default_provider must be one of %s, got %q", providerNames(), c.Engine.DefaultProvider))
	}
	for i, name := range c.Engine.Fallback {
		if !knownProvider(name) {
			errs = append(errs, fmt.Errorf("engine.fallback[%d] must be one of %s, got %q", i, providerNames(), name))
		}
	}
	if c.Engine.MaxInputRunes < 0 {
		errs = append(errs, fmt.Errorf("engine.max_input_runes must be >= 0, got %d", c.Engine.MaxInputRunes))
	}

	if c.Retry.MaxAttempts < 0 || c.Retry.MaxAttempts > 10 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be between 0 and 10, got %d", c.Retry.MaxAttempts))
	}

	if c.Session.CookieName == "" {
		errs = append(errs, fmt.Errorf("session.cookie_name is required"))
	}

	switch c.Telemetry.Type {
	case "file":
		if c.Telemetry.File.Path == "" {
			errs = append(errs, fmt.Errorf("telemetry.file.path is required when telemetry.type is \"file\""))
		}
	case "sqlite":
		if c.Telemetry.SQLite.Path == "" {
			errs = append(errs, fmt.Errorf("telemetry.sqlite.path is required when telemetry.type is \"sqlite\""))
		}
	case "postgres":
		if c.Telemetry.Postgres.DSN == "" && c.Telemetry.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("telemetry.postgres.dsn or telemetry.postgres.dsn_file is required when telemetry.type is \"postgres\""))
		}
	case "none":
	default:
		errs = append(errs, fmt.Errorf("telemetry.type must be \"file\", \"sqlite\", \"postgres\", or \"none\", got %q", c.Telemetry.Type))
	}

	errs = append(errs, c.validateLicense()...)

	switch c.Auth.Type {
	case "none", "apikey":
	case "jwt":
		if c.Auth.JWT.JWKSURL == "" && c.Auth.JWT.HMACSecret == "" {
			errs = append(errs, fmt.Errorf("auth.jwt.jwks_url or auth.jwt.hmac_secret is required when auth.type is \"jwt\""))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}
	if c.Auth.Type == "apikey" && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, fmt.Errorf("auth.api_keys must not be empty when auth.type is \"apikey\""))
	}
	for i, u := range c.Auth.AdminUsers {
		if u.Username == "" {
			errs = append(errs, fmt.Errorf("auth.admin_users[%d].username is required", i))
		}
		if !strings.HasPrefix(u.PasswordHash, "$2") {
			errs = append(errs, fmt.Errorf("auth.admin_users[%d].password_hash must be a bcrypt hash", i))
		}
	}
	if c.Auth.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("auth.rate_limit.requests_per_minute must be >= 0"))
	}

	errs = append(errs, c.validateCORS()...)

	return errors.Join(errs...)
}

// ValidateLicense checks only what the standalone license service needs.
func (c *Config) ValidateLicense() error {
	errs := c.validateServer()
	errs = append(errs, c.validateLicense()...)
	if c.License.Backend == "none" {
		errs = append(errs, fmt.Errorf("license.backend must be set for the license service"))
	}
	errs = append(errs, c.validateCORS()...)
	return errors.Join(errs...)
}

func (c *Config) validateServer() []error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}
	return errs
}

func (c *Config) validateLicense() []error {
	var errs []error
	switch c.License.Backend {
	case "none":
	case "square":
		if c.License.Square.AccessToken == "" {
			errs = append(errs, fmt.Errorf("license.square.access_token is required when license.backend is \"square\""))
		}
		switch c.License.Square.Environment {
		case "production", "sandbox":
		default:
			errs = append(errs, fmt.Errorf("license.square.environment must be \"production\" or \"sandbox\", got %q", c.License.Square.Environment))
		}
	case "stripe":
		if c.License.Stripe.SecretKey == "" {
			errs = append(errs, fmt.Errorf("license.stripe.secret_key is required when license.backend is \"stripe\""))
		}
	default:
		errs = append(errs, fmt.Errorf("license.backend must be \"square\", \"stripe\", or \"none\", got %q", c.License.Backend))
	}
	return errs
}

func (c *Config) validateCORS() []error {
	var errs []error
	for i, p := range c.CORS.Policies {
		if !strings.HasPrefix(p.PathPrefix, "/") {
			errs = append(errs, fmt.Errorf("cors.policies[%d].path_prefix must start with \"/\", got %q", i, p.PathPrefix))
		}
		if len(p.AllowedOrigins) == 0 {
			errs = append(errs, fmt.Errorf("cors.policies[%d].allowed_origins must not be empty", i))
		}
		if p.AllowCredentials && containsWildcard(p.AllowedOrigins) {
			errs = append(errs, fmt.Errorf("cors.policies[%d]: allow_credentials cannot be combined with origin \"*\"", i))
		}
	}
	if c.CORS.Default.AllowCredentials && containsWildcard(c.CORS.Default.AllowedOrigins) {
		errs = append(errs, fmt.Errorf("cors.default: allow_credentials cannot be combined with origin \"*\""))
	}
	return errs
}

// ConfiguredProviders returns the provider names in try order (default
// first, then fallback) that have at least one API key. Duplicates are
// dropped.
func (c *Config) ConfiguredProviders() []string {
	order := append([]string{c.Engine.DefaultProvider}, c.Engine.Fallback...)
	seen := make(map[string]bool, len(order))
	var out []string
	for _, name := range order {
		if seen[name] {
			continue
		}
		seen[name] = true
		if p, ok := c.Provider(name); ok && p.Configured() {
			out = append(out, name)
		}
	}
	return out
}

// Provider returns the settings for the named provider.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	switch name {
	case ProviderGemini:
		return c.Providers.Gemini, true
	case ProviderOpenRouter:
		return c.Providers.OpenRouter, true
	case ProviderGroq:
		return c.Providers.Groq, true
	}
	return ProviderConfig{}, false
}

func knownProvider(name string) bool {
	switch name {
	case ProviderGemini, ProviderOpenRouter, ProviderGroq:
		return true
	}
	return false
}

func providerNames() string {
	return fmt.Sprintf("%q, %q, %q", ProviderGemini, ProviderOpenRouter, ProviderGroq)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
