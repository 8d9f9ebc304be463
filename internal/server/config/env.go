package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors the Config fields that may come from the environment.
// Parsed separately so that unset variables leave the current values alone.
type envConfig struct {
	EndpointAddrHTTP         string        `env:"ENDPOINT_ADDR_HTTP"`
	DatabaseDSN              string        `env:"DATABASE_DSN"`
	SessionSecret            string        `env:"SESSION_SECRET"`
	SessionLifetime          time.Duration `env:"SESSION_LIFETIME"`
	APITokenValidityDuration time.Duration `env:"API_TOKEN_VALIDITY_DURATION"`
	SecureCookies            bool          `env:"SECURE_COOKIES"`
}

// parseEnv overlays environment variables onto the config. A malformed
// variable panics, matching parseJson.
func parseEnv(config *Config) {
	c := envConfig{}
	if err := env.Parse(&c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SessionSecret != "" {
		config.SessionSecret = c.SessionSecret
	}
	if c.SessionLifetime != 0 {
		config.SessionLifetime = c.SessionLifetime
	}
	if c.APITokenValidityDuration != 0 {
		config.APITokenValidityDuration = c.APITokenValidityDuration
	}
	if c.SecureCookies {
		config.SecureCookies = true
	}
}
