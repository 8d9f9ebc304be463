package config

import (
	"encoding/json"
	"os"

	"github.com/avolkova/discograph/internal/flagx"
	"github.com/avolkova/discograph/internal/timex"
)

// JsonConfig is the intermediate DTO for JSON config files. It uses
// timex.Duration for interval fields so values can be written either as
// strings ("720h") or as integer nanoseconds. After unmarshalling, its
// fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP         string         `json:"endpoint_addr_http"`
	DatabaseDSN              string         `json:"database_dsn"`
	SessionSecret            string         `json:"session_secret"`
	SessionLifetime          timex.Duration `json:"session_lifetime"`
	APITokenValidityDuration timex.Duration `json:"api_token_validity_duration"`
	SecureCookies            bool           `json:"secure_cookies"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config flags; when
// neither is set, nothing is loaded. An unreadable or invalid file panics:
// a deployment that points at a broken config file must not start.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
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
	if c.SessionLifetime.Duration != 0 {
		config.SessionLifetime = c.SessionLifetime.Duration
	}
	if c.APITokenValidityDuration.Duration != 0 {
		config.APITokenValidityDuration = c.APITokenValidityDuration.Duration
	}
	if c.SecureCookies {
		config.SecureCookies = true
	}
}
