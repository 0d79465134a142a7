package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Auth modes accepted in AUTH_MODE.
const (
	AuthModeJWKS = "jwks"
	AuthModeHMAC = "hmac"
)

type Config struct {
	Port            string        `env:"PORT"             envDefault:"8080"`
	DatabaseURL     string        `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns      int32         `env:"DB_MAX_CONNS"     envDefault:"10"`
	MigrateOnStart  bool          `env:"MIGRATE_ON_START" envDefault:"true"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Auth  Auth
	Redis Redis
}

// Auth configures bearer token validation.
type Auth struct {
	Mode          string        `env:"AUTH_MODE"           envDefault:"hmac"`
	Issuer        string        `env:"AUTH_ISSUER"         envDefault:"users-service"`
	Audience      []string      `env:"AUTH_AUDIENCE"       envSeparator:","`
	JWKSCacheTTL  time.Duration `env:"AUTH_JWKS_CACHE_TTL" envDefault:"5m"`
	JWTSecret     string        `env:"JWT_SECRET"`
	JWTTTLMinutes int           `env:"JWT_TTL_MINUTES"     envDefault:"60"`

	// RoleAdminScope is required to change roles or role assignments. Empty
	// leaves them open to any authenticated caller.
	RoleAdminScope string `env:"AUTH_ROLE_ADMIN_SCOPE"`
}

// TokenTTL is the lifetime of locally issued tokens.
func (a Auth) TokenTTL() time.Duration {
	return time.Duration(a.JWTTTLMinutes) * time.Minute
}

// Redis is optional; an empty URL disables the role cache.
type Redis struct {
	URL          string        `env:"REDIS_URL"`
	RoleCacheTTL time.Duration `env:"ROLE_CACHE_TTL" envDefault:"10m"`
}

// Load reads environment variables, optionally from a .env file if present.
func Load() (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Auth.Mode {
	case AuthModeHMAC:
		if c.Auth.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when AUTH_MODE=hmac")
		}
	case AuthModeJWKS:
		if c.Auth.Issuer == "" {
			return errors.New("AUTH_ISSUER is required when AUTH_MODE=jwks")
		}
		if len(c.Auth.Audience) == 0 {
			return errors.New("AUTH_AUDIENCE is required when AUTH_MODE=jwks")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode)
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	return nil
}
