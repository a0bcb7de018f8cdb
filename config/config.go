package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type Config struct {
	Env     string `envconfig:"APP_ENV" default:"development"`
	Port    int    `envconfig:"PORT" default:"8080"`
	DB      DBConfig
	Session SessionConfig
	Redis   RedisConfig
	Limiter RateLimiterConfig
	CORS    CORSConfig
	Google  GoogleConfig
	Webhook WebhookConfig
}

type DBConfig struct {
	DSN             string        `envconfig:"DATABASE_URL" required:"true"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"100"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

type SessionConfig struct {
	Key        string `envconfig:"SESSION_KEY" required:"true"`
	BcryptCost int    `envconfig:"BCRYPT_COST" default:"14"`
}

// Drafts are disabled when Addr is empty.
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	DraftTTL time.Duration `envconfig:"DRAFT_TTL" default:"72h"`
}

// rate limit for response submission, per user
type RateLimiterConfig struct {
	RPS     float64 `envconfig:"RATE_LIMIT_RPS" default:"1"`
	Burst   int     `envconfig:"RATE_LIMIT_BURST" default:"5"`
	Enabled bool    `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

type CORSConfig struct {
	TrustedOrigins []string `envconfig:"CORS_TRUSTED_ORIGINS" default:"http://localhost:3000"`
}

// Google login is registered only when both client id and secret are set.
type GoogleConfig struct {
	ClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	ClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL" default:"http://localhost:8080/auth/google/callback"`
}

type WebhookConfig struct {
	Timeout time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Env)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", c.Port)
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if c.DB.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.DB.MaxIdleConns > c.DB.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS (%d) cannot exceed DB_MAX_OPEN_CONNS (%d)",
			c.DB.MaxIdleConns, c.DB.MaxOpenConns)
	}
	if len(c.Session.Key) < 32 {
		return fmt.Errorf("SESSION_KEY must be at least 32 characters")
	}
	if c.Session.BcryptCost < 4 || c.Session.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	if c.Redis.Addr != "" && c.Redis.DraftTTL <= 0 {
		return fmt.Errorf("DRAFT_TTL must be positive")
	}
	if c.Limiter.Enabled && (c.Limiter.RPS <= 0 || c.Limiter.Burst < 1) {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive and RATE_LIMIT_BURST at least 1")
	}
	if len(c.CORSOrigins()) == 0 {
		return fmt.Errorf("at least one trusted origin must be specified")
	}
	if (c.Google.ClientID == "") != (c.Google.ClientSecret == "") {
		return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) CORSOrigins() []string {
	origins := make([]string, 0, len(c.CORS.TrustedOrigins))
	for _, origin := range c.CORS.TrustedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// GoogleOAuth returns the OAuth2 config for Google login, or nil when Google
// login is not configured.
func (c *Config) GoogleOAuth() *oauth2.Config {
	if c.Google.ClientID == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     c.Google.ClientID,
		ClientSecret: c.Google.ClientSecret,
		RedirectURL:  c.Google.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env=%s, Port=%d, DB.MaxOpenConns=%d, DB.MaxIdleConns=%d, Redis=%t, "+
		"Limiter.RPS=%.2f, Limiter.Burst=%d, Limiter.Enabled=%t, CORS.Origins=%d, Google=%t}",
		c.Env, c.Port, c.DB.MaxOpenConns, c.DB.MaxIdleConns, c.Redis.Addr != "",
		c.Limiter.RPS, c.Limiter.Burst, c.Limiter.Enabled, len(c.CORS.TrustedOrigins), c.Google.ClientID != "")
}
