package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT     JWTConfig
	Seed    SeedConfig
	Login   LoginConfig
	Redis   RedisConfig
	HTTP    HTTPConfig
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET, required"`
	Expiration time.Duration `env:"JWT_EXPIRATION_TIME, default=60m"`
}

// SeedConfig describes the Admin record inserted at bootstrap.
// An empty email disables seeding.
type SeedConfig struct {
	AdminEmail    string `env:"SEED_ADMIN_EMAIL,    default=admin@test.com"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD, default=password123"`
}

type LoginConfig struct {
	MaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS,   default=5"`
	BlockDuration time.Duration `env:"LOGIN_BLOCK_DURATION, default=15m"`
}

// RedisConfig is optional: an empty Addr keeps throttling state in memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type HTTPConfig struct {
	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS, default=*"`
	SwaggerEnabled   bool     `env:"SWAGGER_ENABLED,    default=true"`

	// TrustedProxies lists the CIDRs (or single IPs) of reverse proxies whose
	// X-Forwarded-For header is believed. Empty means the socket peer is the
	// client.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// TrustedProxyNets parses HTTP.TrustedProxies.
func (c *Config) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(c.HTTP.TrustedProxies))
	for _, raw := range c.HTTP.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", raw)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		nets = append(nets, ipNet)
	}
	return nets, nil
}

// IsDevelopment reports whether human-friendly output should be used.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from the given lookuper and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.JWT.Secret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be blank"))
	}
	if c.JWT.Expiration <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_TIME must be positive"))
	}
	if c.Seed.AdminEmail != "" && c.Seed.AdminPassword == "" {
		errs = append(errs, errors.New("SEED_ADMIN_PASSWORD is required when SEED_ADMIN_EMAIL is set"))
	}
	if _, err := c.TrustedProxyNets(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
