// Package httpapi exposes the authentication endpoints: login, logout,
// session introspection and API token minting.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/avolkova/discograph/internal/common"
	"github.com/avolkova/discograph/internal/logging"
	"github.com/avolkova/discograph/internal/server/lockout"
	"github.com/avolkova/discograph/internal/server/services"
	"github.com/avolkova/discograph/internal/server/sessioncookie"
	"github.com/avolkova/discograph/internal/server/sessiontoken"
)

type Handlers struct {
	svc              *services.AuthService
	apiTokenValidity time.Duration
	logger           logging.Logger
}

func NewHandlers(svc *services.AuthService, apiTokenValidity time.Duration, logger logging.Logger) *Handlers {
	return &Handlers{svc: svc, apiTokenValidity: apiTokenValidity, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

func userFromClaims(c *sessiontoken.Claims) userResponse {
	return userResponse{ID: c.Subject, Name: c.Name, Email: c.Email, Role: c.Role}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeInvalidSession is the uniform response for every session validation
// failure. Crypto failure modes must not be distinguishable to callers.
func writeInvalidSession(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid session"})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var lockedErr *lockout.LockedError
		switch {
		case errors.As(err, &lockedErr):
			// not a security-sensitive disclosure, so the remaining time
			// is reported to the user
			writeJSON(w, http.StatusLocked, map[string]any{
				"error":          "account locked",
				"retry_after_ms": lockedErr.Remaining.Milliseconds(),
			})
		case errors.Is(err, common.ErrorUnauthorized):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		default:
			h.logger.Error(r.Context(), "login failed", "error", err.Error())
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		return
	}

	http.SetCookie(w, res.Cookie)
	writeJSON(w, http.StatusOK, map[string]any{"user": userFromClaims(res.Claims)})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.svc.Logout())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	token, ok := sessioncookie.Read(r)
	if !ok {
		writeInvalidSession(w)
		return
	}

	claims, err := h.svc.Session(r.Context(), token)
	if err != nil {
		writeInvalidSession(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": userFromClaims(claims)})
}

// APIToken mints a short-lived bearer token for the authenticated user.
// Requires the session middleware.
func (h *Handlers) APIToken(w http.ResponseWriter, r *http.Request) {
	accountID, ok := UserID(r.Context())
	if !ok {
		writeInvalidSession(w)
		return
	}

	token, err := h.svc.APIToken(r.Context(), accountID)
	if err != nil {
		h.logger.Error(r.Context(), "api token mint failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_in": int64(h.apiTokenValidity.Seconds()),
	})
}
