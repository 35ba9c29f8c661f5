package config

import (
	"os"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// Config carries everything the server needs, loaded from the process
// environment with an optional .env file on top.
type Config struct {
	AppName string
	Port    string

	DatabaseURL string

	SigningKey      string
	TokenExpiration int
	Issuer          string
	Audience        []string
	ContextKey      string
	AuthScheme      string
	OTPLifetime     time.Duration

	TMDBToken string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Load reads .env when present and assembles the runtime config.
// A missing .env is not an error, real deployments set the environment
// directly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName:         envOr("APP_NAME", "The Cinephile"),
		Port:            envOr("PORT", "3000"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SigningKey:      os.Getenv("JWT_SIGNING_KEY"),
		TokenExpiration: envInt("JWT_TOKEN_EXPIRATION", 24),
		Issuer:          envOr("JWT_ISSUER", "thecinephile"),
		ContextKey:      envOr("AUTH_CONTEXT_KEY", "current_user"),
		AuthScheme:      envOr("AUTH_SCHEME", "Bearer"),
		OTPLifetime:     envDuration("OTP_LIFETIME", 10*time.Minute),
		TMDBToken:       os.Getenv("TMDB_API_TOKEN"),
		SMTPHost:        envOr("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:        envInt("SMTP_PORT", 465),
		SMTPUsername:    os.Getenv("SMTP_USERNAME"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:        os.Getenv("SMTP_FROM"),
	}

	if audience := os.Getenv("JWT_AUDIENCE"); audience != "" {
		cfg.Audience = []string{audience}
	} else {
		cfg.Audience = []string{"thecinephile"}
	}

	if cfg.SigningKey == "" {
		return nil, goerrors.New("JWT_SIGNING_KEY is required", goerrors.CategoryInternal).
			WithTextCode("CONFIG_MISSING_SIGNING_KEY")
	}

	return cfg, nil
}

func (c *Config) GetSigningKey() string         { return c.SigningKey }
func (c *Config) GetTokenExpiration() int       { return c.TokenExpiration }
func (c *Config) GetIssuer() string             { return c.Issuer }
func (c *Config) GetAudience() []string         { return c.Audience }
func (c *Config) GetContextKey() string         { return c.ContextKey }
func (c *Config) GetAuthScheme() string         { return c.AuthScheme }
func (c *Config) GetOTPLifetime() time.Duration { return c.OTPLifetime }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
