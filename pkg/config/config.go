// Package config provides unified configuration for the askgate server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. .env file (never overrides variables already set)
//  4. Environment variable overrides (ASKGATE_ prefix)
//  5. Legacy variable names (GEMINI_API_KEY, SQUARE_ACCESS_TOKEN, PORT, ...)
//  6. File reference resolution (_file suffix fields)
//  7. Validation
package config

import "time"

// Provider names accepted in engine.default_provider and engine.fallback.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderGroq       = "groq"
)

// Config holds all configuration for askgate.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	Engine        EngineConfig        `yaml:"engine"`
	Providers     ProvidersConfig     `yaml:"providers"`
	Retry         RetryConfig         `yaml:"retry"`
	Session       SessionConfig       `yaml:"session"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
	License       LicenseConfig       `yaml:"license"`
	Auth          AuthConfig          `yaml:"auth"`
	CORS          CORSConfig          `yaml:"cors"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 120s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 10 MiB, images are inlined
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // ERROR, WARN, INFO, DEBUG, TRACE
	Format string `yaml:"format"` // "text" or "json"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// EngineConfig holds answer pipeline settings.
type EngineConfig struct {
	Enabled         bool     `yaml:"enabled"`          // initial toggle state, default: true
	DefaultProvider string   `yaml:"default_provider"` // first provider tried, default: gemini
	Fallback        []string `yaml:"fallback"`         // tried in order after the default
	SystemPrompt    string   `yaml:"system_prompt"`
	MaxInputRunes   int      `yaml:"max_input_runes"` // article/html cap, default: 20000
	MaxTokens       int      `yaml:"max_tokens"`      // 0 = provider default
}

// ProvidersConfig holds per-provider settings.
type ProvidersConfig struct {
	Gemini     ProviderConfig `yaml:"gemini"`
	OpenRouter ProviderConfig `yaml:"openrouter"`
	Groq       ProviderConfig `yaml:"groq"`
}

// ProviderConfig describes one upstream generation API.
type ProviderConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKeys     []string      `yaml:"api_keys"`
	APIKeysFile string        `yaml:"api_keys_file"` // one key per line
	Model       string        `yaml:"model"`
	VisionModel string        `yaml:"vision_model"` // used when the request carries an image
	Timeout     time.Duration `yaml:"timeout"`
	Referer     string        `yaml:"referer"` // OpenRouter attribution headers
	Title       string        `yaml:"title"`
}

// Configured reports whether the provider has at least one key.
func (p ProviderConfig) Configured() bool {
	return len(p.APIKeys) > 0
}

// RetryConfig bounds retries against upstream providers.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`     // 0 = one per key, clamped to [2,5]
	InitialInterval time.Duration `yaml:"initial_interval"` // default: 250ms
	MaxInterval     time.Duration `yaml:"max_interval"`     // default: 4s
}

// SessionConfig holds session cookie and store settings.
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"` // default: askgate_session
	TTL        time.Duration `yaml:"ttl"`         // idle expiry, default: 24h
	MaxSize    int           `yaml:"max_size"`    // default: 10000
	Secure     bool          `yaml:"secure"`      // SameSite=None; Secure
}

// TelemetryConfig selects the telemetry store.
type TelemetryConfig struct {
	Type     string         `yaml:"type"` // "file", "sqlite", "postgres", "none"; default: file
	File     FileConfig     `yaml:"file"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// FileConfig holds settings for the JSON array file store.
type FileConfig struct {
	Path string `yaml:"path"` // default: telemetry.json
}

// SQLiteConfig holds settings for the SQLite store.
type SQLiteConfig struct {
	Path string `yaml:"path"` // default: telemetry.db
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// LicenseConfig selects the payment processor used to verify license keys.
type LicenseConfig struct {
	Backend string       `yaml:"backend"` // "square", "stripe", "none"; default: none
	Square  SquareConfig `yaml:"square"`
	Stripe  StripeConfig `yaml:"stripe"`
}

// SquareConfig holds Square Orders API settings.
type SquareConfig struct {
	AccessToken     string `yaml:"access_token"`
	AccessTokenFile string `yaml:"access_token_file"`
	Environment     string `yaml:"environment"` // "production" or "sandbox"
	BaseURL         string `yaml:"base_url"`    // overrides environment
	APIVersion      string `yaml:"api_version"`
}

// StripeConfig holds Stripe settings.
type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	SecretKeyFile string `yaml:"secret_key_file"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type       string          `yaml:"type"`        // "none", "apikey", "jwt"; default: none
	APIKeys    []APIKeyConfig  `yaml:"api_keys"`    // for type=apikey
	JWT        JWTConfig       `yaml:"jwt"`         // for type=jwt
	AdminUsers []AdminUser     `yaml:"admin_users"` // basic auth and /login
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string `yaml:"key" json:"key"`
	KeyFile     string `yaml:"key_file" json:"key_file"`
	Subject     string `yaml:"subject" json:"subject"`
	ServiceTier string `yaml:"service_tier" json:"service_tier"`
	Admin       bool   `yaml:"admin" json:"admin"`
}

// JWTConfig holds bearer JWT settings.
type JWTConfig struct {
	Issuer         string        `yaml:"issuer"`
	Audience       string        `yaml:"audience"`
	JWKSURL        string        `yaml:"jwks_url"`
	HMACSecret     string        `yaml:"hmac_secret"`
	HMACSecretFile string        `yaml:"hmac_secret_file"`
	AdminScope     string        `yaml:"admin_scope"` // default: admin
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// AdminUser is an operator allowed to read telemetry and flip the toggle.
type AdminUser struct {
	Username     string `yaml:"username" json:"username"`
	PasswordHash string `yaml:"password_hash" json:"password_hash"` // bcrypt
}

// RateLimitConfig holds per-subject request limits.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"` // 0 = unlimited
	Burst             int `yaml:"burst"`
}

// CORSConfig holds the per-path CORS policy table.
type CORSConfig struct {
	Policies []CORSPolicy `yaml:"policies"`
	Default  CORSPolicy   `yaml:"default"`
}

// CORSPolicy applies to every request whose path starts with PathPrefix.
type CORSPolicy struct {
	PathPrefix       string   `yaml:"path_prefix"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodySize:     10 << 20,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		Engine: EngineConfig{
			Enabled:         true,
			DefaultProvider: ProviderGemini,
			Fallback:        []string{ProviderOpenRouter, ProviderGroq},
			SystemPrompt:    "Answer the question accurately and concisely in plain text. Do not use markdown.",
			MaxInputRunes:   20000,
		},
		Providers: ProvidersConfig{
			Gemini: ProviderConfig{
				BaseURL: "https://generativelanguage.googleapis.com",
				Model:   "gemini-2.0-flash",
				Timeout: 60 * time.Second,
			},
			OpenRouter: ProviderConfig{
				BaseURL: "https://openrouter.ai/api",
				Model:   "google/gemini-2.0-flash-exp:free",
				Timeout: 60 * time.Second,
				Title:   "askgate",
			},
			Groq: ProviderConfig{
				BaseURL:     "https://api.groq.com/openai",
				Model:       "llama-3.3-70b-versatile",
				VisionModel: "meta-llama/llama-4-scout-17b-16e-instruct",
				Timeout:     60 * time.Second,
			},
		},
		Retry: RetryConfig{
			InitialInterval: 250 * time.Millisecond,
			MaxInterval:     4 * time.Second,
		},
		Session: SessionConfig{
			CookieName: "askgate_session",
			TTL:        24 * time.Hour,
			MaxSize:    10000,
		},
		Telemetry: TelemetryConfig{
			Type:   "file",
			File:   FileConfig{Path: "telemetry.json"},
			SQLite: SQLiteConfig{Path: "telemetry.db"},
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
		},
		License: LicenseConfig{
			Backend: "none",
			Square: SquareConfig{
				Environment: "production",
				APIVersion:  "2024-07-17",
			},
		},
		Auth: AuthConfig{
			Type: "none",
			JWT: JWTConfig{
				AdminScope: "admin",
				CacheTTL:   time.Hour,
			},
		},
		CORS: CORSConfig{
			Default: CORSPolicy{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "Authorization"},
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
