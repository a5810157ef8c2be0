// Package config loads service configuration from the environment, optionally
// seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"

	"oidcop/pkg/platform/secretbox"
)

// Config is the root configuration.
type Config struct {
	Environment string `env:"OIDC_ENV" envDefault:"development"`

	Server  Server      `envPrefix:"OIDC_HTTP_"`
	OIDC    OIDC        `envPrefix:"OIDC_"`
	Crypto  Crypto      `envPrefix:"OIDC_CRYPTO_"`
	Storage Storage     `envPrefix:"OIDC_STORAGE_"`
	Redis   RedisConfig `envPrefix:"OIDC_REDIS_"`
	Audit   Audit       `envPrefix:"OIDC_AUDIT_"`
	Limits  RateLimit   `envPrefix:"OIDC_RATELIMIT_"`
	Log     Log         `envPrefix:"OIDC_LOG_"`
	Tracing Tracing     `envPrefix:"OIDC_TRACING_"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `env:"ADDR" envDefault:":8080"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// LoginURL receives unauthenticated users; the original authorization
	// request URL is appended as `return_to`.
	LoginURL string `env:"LOGIN_URL" envDefault:"/login"`
}

// OIDC holds protocol behaviour switches and lifetimes.
type OIDC struct {
	Issuer                      string        `env:"ISSUER" envDefault:"http://localhost:8080"`
	AuthCodeTTL                 time.Duration `env:"AUTH_CODE_TTL" envDefault:"10m"`
	AccessTokenTTL              time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL             time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`
	MaxIdentifierAttempts       int           `env:"MAX_IDENTIFIER_ATTEMPTS" envDefault:"10"`
	DefaultScope                string        `env:"DEFAULT_SCOPE"`
	ScopeDelimiter              string        `env:"SCOPE_DELIMITER" envDefault:" "`
	RequirePKCEForPublicClients bool          `env:"REQUIRE_PKCE_PUBLIC_CLIENTS" envDefault:"true"`
	AlwaysIssueRefreshToken     bool          `env:"ALWAYS_ISSUE_REFRESH_TOKEN" envDefault:"false"`
	AlwaysAddClaimsToIDToken    bool          `env:"ALWAYS_ADD_CLAIMS_TO_ID_TOKEN" envDefault:"true"`
	ClaimsFile                  string        `env:"CLAIMS_FILE"`
	ClientsFile                 string        `env:"CLIENTS_FILE"`
}

type Crypto struct {
	PayloadCipher  string `env:"PAYLOAD_CIPHER" envDefault:"jwe"`
	PayloadKey     string `env:"PAYLOAD_KEY"`
	SigningKeyPath string `env:"SIGNING_KEY_PATH"`
	SigningKeyID   string `env:"SIGNING_KEY_ID" envDefault:"oidcop-1"`
}

type Storage struct {
	Driver      string `env:"DRIVER" envDefault:"memory"`
	DatabaseURL string `env:"DATABASE_URL"`
	MaxConns    int32  `env:"MAX_CONNS" envDefault:"10"`
}

// RedisConfig configures the access token store. Empty URL keeps access
// tokens in the primary storage driver.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

type Audit struct {
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"oidc.audit"`
	BufferSize   int      `env:"BUFFER_SIZE" envDefault:"1024"`
}

// RateLimit throttles the token endpoint per client address. Zero requests
// disables it.
type RateLimit struct {
	TokenRequests int           `env:"TOKEN_REQUESTS" envDefault:"120"`
	Window        time.Duration `env:"WINDOW" envDefault:"1m"`
}

type Log struct {
	Level       string `env:"LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"oidcop"`
	Version     string `env:"VERSION" envDefault:"dev"`
}

type Tracing struct {
	Enabled bool `env:"ENABLED" envDefault:"false"`
	// Endpoint is the OTLP/HTTP collector URL. Empty keeps spans in-process.
	Endpoint    string  `env:"ENDPOINT"`
	SampleRatio float64 `env:"SAMPLE_RATIO" envDefault:"1"`
}

// Load reads the given .env files (missing files are skipped), then parses the
// process environment and validates the result.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// FromMap parses configuration from an explicit environment, for tests and tooling.
func FromMap(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if u, err := url.Parse(c.OIDC.Issuer); err != nil || !u.IsAbs() || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("OIDC_ISSUER must be an absolute URL, got %q", c.OIDC.Issuer))
	}
	for name, d := range map[string]time.Duration{
		"OIDC_AUTH_CODE_TTL":     c.OIDC.AuthCodeTTL,
		"OIDC_ACCESS_TOKEN_TTL":  c.OIDC.AccessTokenTTL,
		"OIDC_REFRESH_TOKEN_TTL": c.OIDC.RefreshTokenTTL,
	} {
		if d <= 0 {
			result = multierror.Append(result, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.OIDC.MaxIdentifierAttempts < 1 {
		result = multierror.Append(result, errors.New("OIDC_MAX_IDENTIFIER_ATTEMPTS must be at least 1"))
	}
	if c.OIDC.ScopeDelimiter == "" {
		result = multierror.Append(result, errors.New("OIDC_SCOPE_DELIMITER must not be empty"))
	}
	if !slices.Contains([]string{"jwe", "aesgcm"}, c.Crypto.PayloadCipher) {
		result = multierror.Append(result, fmt.Errorf("OIDC_CRYPTO_PAYLOAD_CIPHER %q is not supported", c.Crypto.PayloadCipher))
	}
	if c.Crypto.PayloadKey == "" {
		result = multierror.Append(result, errors.New("OIDC_CRYPTO_PAYLOAD_KEY is required"))
	} else if _, err := secretbox.DecodeKey(c.Crypto.PayloadKey); err != nil {
		result = multierror.Append(result, fmt.Errorf("OIDC_CRYPTO_PAYLOAD_KEY: %w", err))
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			result = multierror.Append(result, errors.New("OIDC_STORAGE_DATABASE_URL is required for the postgres driver"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("OIDC_STORAGE_DRIVER %q is not supported", c.Storage.Driver))
	}
	if c.Limits.TokenRequests < 0 {
		result = multierror.Append(result, errors.New("OIDC_RATELIMIT_TOKEN_REQUESTS must not be negative"))
	}
	if c.Limits.TokenRequests > 0 && c.Limits.Window <= 0 {
		result = multierror.Append(result, errors.New("OIDC_RATELIMIT_WINDOW must be positive"))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		result = multierror.Append(result, errors.New("OIDC_TRACING_SAMPLE_RATIO must be within [0,1]"))
	}

	return result.ErrorOrNil()
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
