package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds process configuration, loaded from environment variables.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":9090"`

	// Backend selects the storage implementation: memory, redis, or sqlite.
	Backend    string `env:"BACKEND" envDefault:"memory"`
	RedisAddr  string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"records.db"`

	// OAuth provider settings. When ServerURL is set, tokens are verified
	// remotely; otherwise StaticTokens supplies fixed token:user pairs.
	OAuthServerURL    string `env:"OAUTH_SERVER_URL"`
	OAuthClientID     string `env:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string `env:"OAUTH_CLIENT_SECRET"`
	StaticTokens      string `env:"STATIC_TOKENS"`
}

// LoadConfig parses configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// OAuthClient returns the configured provider client, or nil when running
// with static tokens only.
func (c Config) OAuthClient() *OAuthClient {
	if c.OAuthServerURL == "" {
		return nil
	}
	return &OAuthClient{
		ServerURL:    c.OAuthServerURL,
		ClientID:     c.OAuthClientID,
		ClientSecret: c.OAuthClientSecret,
	}
}

// Authenticator returns the identity resolver the middleware should use.
func (c Config) Authenticator() (Authenticator, error) {
	if client := c.OAuthClient(); client != nil {
		return client, nil
	}
	if c.StaticTokens != "" {
		return ParseStaticTokens(c.StaticTokens), nil
	}
	return nil, fmt.Errorf("no authenticator configured: set OAUTH_SERVER_URL or STATIC_TOKENS")
}
