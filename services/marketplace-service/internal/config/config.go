package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/vasapolrittideah/freelance-hub-api/shared/cache"
	"github.com/vasapolrittideah/freelance-hub-api/shared/discovery"
	"github.com/vasapolrittideah/freelance-hub-api/shared/logger"
	"github.com/vasapolrittideah/freelance-hub-api/shared/mailer"
	"github.com/vasapolrittideah/freelance-hub-api/shared/middleware"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Config is the marketplace service configuration, loaded once from the environment at startup.
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"production"`

	Server    ServerConfig               `envPrefix:"SERVER_"`
	Mongo     MongoConfig                `envPrefix:"MONGO_"`
	Token     TokenConfig                `envPrefix:"TOKEN_"`
	OTP       OTPConfig                  `envPrefix:"OTP_"`
	Search    SearchConfig               `envPrefix:"SEARCH_"`
	RateLimit middleware.RateLimitConfig `envPrefix:"AUTH_RATE_LIMIT_"`

	Mailer mailer.Config
	Redis  cache.Config
	Consul discovery.Config
	Log    logger.Config
}

type ServerConfig struct {
	Host            string        `env:"HOST"             envDefault:"0.0.0.0"`
	Port            int           `env:"PORT"             envDefault:"8080"`
	GRPCHealthPort  int           `env:"GRPC_HEALTH_PORT" envDefault:"0"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"15s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT"     envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// TrustProxy takes the client IP from X-Forwarded-For/X-Real-IP. Enable it only
	// behind a proxy that overwrites those headers.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`
}

type MongoConfig struct {
	URI            string        `env:"URI,required"`
	Database       string        `env:"DATABASE"        envDefault:"freelance_hub"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

type TokenConfig struct {
	Issuer                     string        `env:"ISSUER"                        envDefault:"freelance-hub"`
	Audience                   string        `env:"AUDIENCE"                      envDefault:"freelance-hub-api"`
	AccessTokenSecret          string        `env:"ACCESS_SECRET,required"`
	AccessTokenExpiresIn       time.Duration `env:"ACCESS_EXPIRES_IN"             envDefault:"168h"`
	VerificationTokenSecret    string        `env:"VERIFICATION_SECRET,required"`
	VerificationTokenExpiresIn time.Duration `env:"VERIFICATION_EXPIRES_IN"       envDefault:"30m"`
}

type OTPConfig struct {
	ExpiresIn time.Duration `env:"EXPIRES_IN" envDefault:"10m"`
}

type SearchConfig struct {
	DefaultLimit    int           `env:"DEFAULT_LIMIT"     envDefault:"12"`
	MaxLimit        int           `env:"MAX_LIMIT"         envDefault:"50"`
	FiltersCacheTTL time.Duration `env:"FILTERS_CACHE_TTL" envDefault:"5m"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsDevelopment reports whether raw OTP codes may be echoed back to clients.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvironmentDevelopment
}

// Validate checks invariants that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Token.AccessTokenSecret) < 32 {
		errs = append(errs, errors.New("TOKEN_ACCESS_SECRET must be at least 32 characters"))
	}
	if len(c.Token.VerificationTokenSecret) < 32 {
		errs = append(errs, errors.New("TOKEN_VERIFICATION_SECRET must be at least 32 characters"))
	}
	if c.Token.AccessTokenSecret != "" && c.Token.AccessTokenSecret == c.Token.VerificationTokenSecret {
		errs = append(errs, errors.New("TOKEN_ACCESS_SECRET and TOKEN_VERIFICATION_SECRET must differ"))
	}
	if c.Token.Issuer == "" || c.Token.Audience == "" {
		errs = append(errs, errors.New("TOKEN_ISSUER and TOKEN_AUDIENCE must be set"))
	}
	if c.OTP.ExpiresIn <= 0 {
		errs = append(errs, errors.New("OTP_EXPIRES_IN must be positive"))
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit < c.Search.DefaultLimit {
		errs = append(errs, errors.New("SEARCH_DEFAULT_LIMIT must be positive and not exceed SEARCH_MAX_LIMIT"))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT_* values must be positive"))
	}
	if err := c.Mailer.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
