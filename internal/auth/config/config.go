package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// GoogleConfig holds the OAuth2 client used for federated sign-in.
type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
}

// Enabled reports whether both client credentials are set.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Config holds all configuration for the auth module.
type Config struct {
	// JWT Configuration
	JWTSecretKey   string        `env:"JWT_SECRET_KEY,required"`
	JWTIssuer      string        `env:"JWT_ISSUER" envDefault:"plant-shop-auth"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`
	StateTokenTTL  time.Duration `env:"FEDERATED_STATE_TTL" envDefault:"10m"`

	// Cookie Configuration
	CookieName     string `env:"COOKIE_NAME" envDefault:"plantshop_token"`
	CookiePath     string `env:"COOKIE_PATH" envDefault:"/"`
	CookieDomain   string `env:"COOKIE_DOMAIN" envDefault:""`
	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"false"` // true in production
	CookieHTTPOnly bool   `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSameSite string `env:"COOKIE_SAME_SITE" envDefault:"Lax"`

	// Federated sign-in
	FederatedCallbackBaseURL string `env:"FEDERATED_CALLBACK_BASE_URL" envDefault:"http://localhost:5000"`
	Google                   GoogleConfig
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load auth configuration from environment: %w. "+
			"Please ensure all required environment variables are set", err)
	}
	if err := env.Parse(&cfg.Google); err != nil {
		return nil, fmt.Errorf("failed to load google configuration from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes cookie settings and fills zero values. caarlos0/env
// leaves a variable that is set but empty at its zero value.
func (c *Config) Validate() error {
	if c.JWTSecretKey == "" {
		return errors.New("jwt_secret_key is required")
	}

	sameSite := strings.ToLower(strings.TrimSpace(c.CookieSameSite))
	switch sameSite {
	case "", "lax":
		c.CookieSameSite = "Lax"
	case "strict":
		c.CookieSameSite = "Strict"
	case "none":
		c.CookieSameSite = "None"
	default:
		return errors.New("cookie_same_site must be one of 'Lax', 'Strict', or 'None'")
	}

	if c.JWTIssuer == "" {
		c.JWTIssuer = "plant-shop-auth"
	}
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = 24 * time.Hour
	}
	if c.StateTokenTTL <= 0 {
		c.StateTokenTTL = 10 * time.Minute
	}
	if c.CookieName == "" {
		c.CookieName = "plantshop_token"
	}
	if c.CookiePath == "" {
		c.CookiePath = "/"
	}
	c.FederatedCallbackBaseURL = strings.TrimRight(c.FederatedCallbackBaseURL, "/")
	if c.FederatedCallbackBaseURL == "" {
		c.FederatedCallbackBaseURL = "http://localhost:5000"
	}
	return nil
}

// CallbackURL is where a provider sends the browser back after consent.
func (c *Config) CallbackURL(provider string) string {
	return c.FederatedCallbackBaseURL + "/auth/federated/" + provider + "/callback"
}
