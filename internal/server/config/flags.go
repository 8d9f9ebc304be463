package config

import (
	"flag"
	"os"
	"time"

	"github.com/avolkova/discograph/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   session secret
//	-t int      session lifetime, hours
//	-k int      API token validity, minutes
//	-x          mark cookies Secure
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-k", "-x"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session secret")

	sessionLifetime := fs.Int("t", int(config.SessionLifetime.Hours()), "session_lifetime (in hours)")
	apiTokenValidity := fs.Int("k", int(config.APITokenValidityDuration.Minutes()), "api_token_validity_duration (in minutes)")

	fs.BoolVar(&config.SecureCookies, "x", config.SecureCookies, "mark cookies Secure")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionLifetime = time.Duration(*sessionLifetime) * time.Hour
	config.APITokenValidityDuration = time.Duration(*apiTokenValidity) * time.Minute
}
