// Package config loads the process-wide configuration from environment
// variables. The struct is assembled once in main and passed explicitly to
// the components that need it; nothing reads the environment after startup.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the full application configuration.
//
// SessionSecret must be at least 16 characters; generate one with
// `openssl rand -hex 32`. Provider credentials may be left empty; providers
// without credentials are simply not registered, and their login routes 404.
type Config struct {
	Port    int    `env:"PORT" envDefault:"8080"`
	BaseURL string `env:"BASE_URL" envDefault:""` // defaults to http://localhost:<port>
	DBPath  string `env:"DB_PATH" envDefault:"data/whatthegame.db"`

	SessionSecret string `env:"SESSION_SECRET,required"`
	SecureCookies bool   `env:"SECURE_COOKIES" envDefault:"false"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	FacebookClientID     string `env:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"FACEBOOK_CLIENT_SECRET"`

	GOGClientID     string `env:"GOG_CLIENT_ID"`
	GOGClientSecret string `env:"GOG_CLIENT_SECRET"`
}

// Load parses the environment into a Config and fills derived defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	return cfg, nil
}

// CallbackURL returns the OAuth redirect URI for a provider.
func (c Config) CallbackURL(provider string) string {
	return fmt.Sprintf("%s/auth/%s/callback", c.BaseURL, provider)
}
