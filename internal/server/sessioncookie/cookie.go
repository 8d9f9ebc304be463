// Package sessioncookie centralizes session cookie behavior: the canonical
// name, transport attributes and expiry. It only builds cookie descriptors;
// setting them on a response is the caller's job.
package sessioncookie

import (
	"net/http"
	"strings"
	"time"
)

// Name is the canonical session cookie name. It doubles as the HKDF salt
// for session key derivation, so renaming it invalidates issued tokens.
const Name = "__discograph_session"

// Config carries the deployment-dependent cookie attributes.
type Config struct {
	// Secure mirrors the deployment's TLS posture.
	Secure bool

	// Lifetime is the cookie expiry, kept equal to the token lifetime.
	// The cryptographic expiry inside the token is authoritative; the
	// cookie attribute is advisory.
	Lifetime time.Duration
}

// Issue wraps a serialized session token into a cookie descriptor.
func Issue(token string, now time.Time, cfg Config) *http.Cookie {
	return &http.Cookie{
		Name:     Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(cfg.Lifetime),
	}
}

// Clear returns a descriptor that expires the session cookie.
func Clear(cfg Config) *http.Cookie {
	return &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}

// Read returns the trimmed session cookie value when present.
func Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(Name)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}
