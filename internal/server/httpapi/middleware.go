package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/avolkova/discograph/internal/server/sessioncookie"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// UserID returns the authenticated account id stored by RequireSession.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// RequireSession authenticates the request from the session cookie or, for
// programmatic clients, from an HS256 bearer token. Every failure mode
// produces the same uniform 401.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := sessioncookie.Read(r); ok {
			claims, err := h.svc.Session(r.Context(), token)
			if err != nil {
				writeInvalidSession(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, claims.Subject)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		bearer := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || bearer == authHeader {
			writeInvalidSession(w)
			return
		}

		accountID, err := h.svc.VerifyAPIToken(bearer)
		if err != nil {
			writeInvalidSession(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, accountID)))
	})
}
