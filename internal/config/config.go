// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProviderConfig holds identity-provider connection settings.
type ProviderConfig struct {
	URL            string        // base URL of the identity provider (e.g. https://auth.example.com)
	AnonKey        string        // public API key sent on every provider request
	HealthTimeout  time.Duration // health probe timeout (default: 5s)
	HealthCacheTTL time.Duration // how long a probe result is reused (default: 30s)
}

// Validate checks that the provider configuration is internally consistent.
func (p *ProviderConfig) Validate() error {
	if p.URL == "" {
		return fmt.Errorf("PROVIDER_URL must be set")
	}
	if _, err := url.Parse(p.URL); err != nil {
		return fmt.Errorf("PROVIDER_URL is not a valid URL: %w", err)
	}
	return nil
}

// SandboxConfig holds settings for the external sandbox-creation service.
type SandboxConfig struct {
	APIURL   string // base URL of the sandbox service
	Template string // template used by the quick-create shortcut (default "base")
}

// Config holds the configuration for the tenant gateway.
type Config struct {
	AppOrigin  string // public origin of the dashboard (scheme://host[:port]); required
	DBPath     string // path to the SQLite membership store (default "tenantgate.sqlite")
	ListenAddr string // HTTP listen address (default ":8080")

	TLSCertFile       string // TLS certificate file path (optional)
	TLSKeyFile        string // TLS private key file path (optional)
	AllowInsecureHTTP bool   // allow non-TLS listener in production (trusted TLS termination)

	LogLevel string // log level: debug, info, warn, error (default "info")
	Env      string // environment: "development" (default) or "production"

	// Rate limiting for the auth action endpoints.
	RateLimitRPS   float64 // sustained requests per second (default 5)
	RateLimitBurst int     // burst capacity (default 10)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: [AppOrigin])

	Provider ProviderConfig
	Sandbox  SandboxConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// OriginURL returns the parsed application origin.
func (c *Config) OriginURL() (*url.URL, error) {
	u, err := url.Parse(c.AppOrigin)
	if err != nil {
		return nil, fmt.Errorf("APP_ORIGIN is not a valid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("APP_ORIGIN must be an absolute URL (got %q)", c.AppOrigin)
	}
	return u, nil
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		AppOrigin:   os.Getenv("APP_ORIGIN"),
		DBPath:      os.Getenv("DB_PATH"),
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		TLSCertFile: os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:  os.Getenv("TLS_KEY_FILE"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		Env:         os.Getenv("ENV"),
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}
	if strings.EqualFold(os.Getenv("ALLOW_INSECURE_HTTP"), "true") {
		cfg.AllowInsecureHTTP = true
	}

	cfg.Provider = ProviderConfig{
		URL:     os.Getenv("PROVIDER_URL"),
		AnonKey: os.Getenv("PROVIDER_ANON_KEY"),
	}
	if v := os.Getenv("PROVIDER_HEALTH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Provider.HealthTimeout = d
		}
	}
	if v := os.Getenv("PROVIDER_HEALTH_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Provider.HealthCacheTTL = d
		}
	}

	cfg.Sandbox = SandboxConfig{
		APIURL:   os.Getenv("SANDBOX_API_URL"),
		Template: os.Getenv("SANDBOX_TEMPLATE"),
	}

	// Defaults
	if cfg.AppOrigin == "" {
		cfg.AppOrigin = "http://localhost:8080"
		cfg.Warnings = append(cfg.Warnings, "APP_ORIGIN not set — defaulting to http://localhost:8080")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "tenantgate.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 5
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 10
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{cfg.AppOrigin}
	}
	if cfg.Provider.HealthTimeout == 0 {
		cfg.Provider.HealthTimeout = 5 * time.Second
	}
	if cfg.Provider.HealthCacheTTL == 0 {
		cfg.Provider.HealthCacheTTL = 30 * time.Second
	}
	if cfg.Sandbox.Template == "" {
		cfg.Sandbox.Template = "base"
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if _, err := cfg.OriginURL(); err != nil {
		return nil, err
	}
	if cfg.Provider.URL == "" {
		cfg.Warnings = append(cfg.Warnings, "PROVIDER_URL not set — all auth operations will fail")
	}
	if cfg.Sandbox.APIURL == "" {
		cfg.Warnings = append(cfg.Warnings, "SANDBOX_API_URL not set — the sandbox quick-create shortcut is disabled")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if err := cfg.Provider.Validate(); err != nil {
			return nil, fmt.Errorf("provider config (ENV=production): %w", err)
		}
		if !strings.HasPrefix(cfg.AppOrigin, "https://") {
			return nil, fmt.Errorf("APP_ORIGIN must be https in production (ENV=production)")
		}
		if cfg.TLSCertFile == "" && !cfg.AllowInsecureHTTP {
			return nil, fmt.Errorf("TLS_CERT_FILE/TLS_KEY_FILE must be set in production unless ALLOW_INSECURE_HTTP=true")
		}
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
