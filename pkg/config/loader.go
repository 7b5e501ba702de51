package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, ASKGATE_CONFIG env, ./config.yaml, /etc/askgate/config.yaml)
//  3. .env file (ASKGATE_ENV_FILE or ./.env)
//  4. Environment variable overrides, including legacy names
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string) (*Config, error) {
	cfg, err := loadUnvalidated(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadUnvalidated runs every layer except validation. The license command
// validates a narrower subset of the result.
func loadUnvalidated(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := DiscoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	return &cfg, nil
}

// LoadLicense loads configuration for the standalone license service,
// which needs only server, logging, CORS, and payment processor settings.
func LoadLicense(configPath string) (*Config, error) {
	cfg, err := loadUnvalidated(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateLicense(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// DiscoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. ASKGATE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/askgate/config.yaml
//
// Returns empty string if no config file is found.
func DiscoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("ASKGATE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/askgate/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// loadDotEnv populates the process environment from a .env file.
// A missing default file is not an error; a missing explicit one is.
func loadDotEnv() error {
	if path := os.Getenv("ASKGATE_ENV_FILE"); path != "" {
		return godotenv.Load(path)
	}
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// applyEnvOverrides maps environment variables to config fields.
// Structured ASKGATE_* names win over the legacy names the original
// deployments used.
func applyEnvOverrides(cfg *Config) {
	// Legacy names first, so ASKGATE_* can override them.
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	applyKeysEnv(&cfg.Providers.Gemini, "GEMINI_API_KEY", "GEMINI_API_KEYS")
	applyKeysEnv(&cfg.Providers.OpenRouter, "OPENROUTER_API_KEY", "OPENROUTER_API_KEYS")
	applyKeysEnv(&cfg.Providers.Groq, "GROQ_API_KEY", "GROQ_API_KEYS")
	if v := os.Getenv("SQUARE_ACCESS_TOKEN"); v != "" {
		cfg.License.Square.AccessToken = v
		if cfg.License.Backend == "none" {
			cfg.License.Backend = "square"
		}
	}
	if v := os.Getenv("SQUARE_ENVIRONMENT"); v != "" {
		cfg.License.Square.Environment = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		cfg.License.Stripe.SecretKey = v
	}

	if v := os.Getenv("ASKGATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ASKGATE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Engine.Enabled = b
		}
	}
	if v := os.Getenv("ASKGATE_DEFAULT_PROVIDER"); v != "" {
		cfg.Engine.DefaultProvider = v
	}
	if v := os.Getenv("ASKGATE_FALLBACK"); v != "" {
		cfg.Engine.Fallback = splitList(v)
	}
	if v := os.Getenv("ASKGATE_TELEMETRY"); v != "" {
		cfg.Telemetry.Type = v
	}
	if v := os.Getenv("ASKGATE_TELEMETRY_FILE"); v != "" {
		cfg.Telemetry.File.Path = v
	}
	if v := os.Getenv("ASKGATE_TELEMETRY_DSN"); v != "" {
		cfg.Telemetry.Postgres.DSN = v
	}
	if v := os.Getenv("ASKGATE_LICENSE_BACKEND"); v != "" {
		cfg.License.Backend = v
	}
	if v := os.Getenv("ASKGATE_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}
	if v := os.Getenv("ASKGATE_CORS_ORIGINS"); v != "" {
		cfg.CORS.Default.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("ASKGATE_SESSION_SECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Session.Secure = b
		}
	}
	if v := os.Getenv("ASKGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// ASKGATE_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("ASKGATE_API_KEYS"); v != "" {
		var keys []APIKeyConfig
		if err := json.Unmarshal([]byte(v), &keys); err == nil && len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}

	// ASKGATE_ADMIN_USERS: JSON array of {username, password_hash}.
	if v := os.Getenv("ASKGATE_ADMIN_USERS"); v != "" {
		var users []AdminUser
		if err := json.Unmarshal([]byte(v), &users); err == nil && len(users) > 0 {
			cfg.Auth.AdminUsers = users
		}
	}
}

// applyKeysEnv sets a provider's key list from a single-key variable or a
// comma-separated list variable. The list variable wins.
func applyKeysEnv(p *ProviderConfig, single, list string) {
	if v := os.Getenv(single); v != "" {
		p.APIKeys = []string{strings.TrimSpace(v)}
	}
	if v := os.Getenv(list); v != "" {
		if keys := splitList(v); len(keys) > 0 {
			p.APIKeys = keys
		}
	}
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	providers := []struct {
		name string
		p    *ProviderConfig
	}{
		{ProviderGemini, &cfg.Providers.Gemini},
		{ProviderOpenRouter, &cfg.Providers.OpenRouter},
		{ProviderGroq, &cfg.Providers.Groq},
	}
	for _, pc := range providers {
		if pc.p.APIKeysFile != "" && len(pc.p.APIKeys) == 0 {
			keys, err := ReadKeysFile(pc.p.APIKeysFile)
			if err != nil {
				return fmt.Errorf("providers.%s.api_keys_file: %w", pc.name, err)
			}
			pc.p.APIKeys = keys
		}
	}

	if cfg.Telemetry.Postgres.DSNFile != "" && cfg.Telemetry.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Telemetry.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("telemetry.postgres.dsn_file: %w", err)
		}
		cfg.Telemetry.Postgres.DSN = val
	}

	if cfg.License.Square.AccessTokenFile != "" && cfg.License.Square.AccessToken == "" {
		val, err := readSecretFile(cfg.License.Square.AccessTokenFile)
		if err != nil {
			return fmt.Errorf("license.square.access_token_file: %w", err)
		}
		cfg.License.Square.AccessToken = val
	}

	if cfg.License.Stripe.SecretKeyFile != "" && cfg.License.Stripe.SecretKey == "" {
		val, err := readSecretFile(cfg.License.Stripe.SecretKeyFile)
		if err != nil {
			return fmt.Errorf("license.stripe.secret_key_file: %w", err)
		}
		cfg.License.Stripe.SecretKey = val
	}

	if cfg.Auth.JWT.HMACSecretFile != "" && cfg.Auth.JWT.HMACSecret == "" {
		val, err := readSecretFile(cfg.Auth.JWT.HMACSecretFile)
		if err != nil {
			return fmt.Errorf("auth.jwt.hmac_secret_file: %w", err)
		}
		cfg.Auth.JWT.HMACSecret = val
	}

	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	return nil
}

// ReadKeysFile reads one API key per line. Blank lines and lines starting
// with '#' are skipped.
func ReadKeysFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	return keys, nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
