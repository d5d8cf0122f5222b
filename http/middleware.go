package http

import (
	"context"
	"net/http"

	"github.com/sagarc03/shareline"
)

type userIDKey struct{}

// UserID returns the authenticated local user id stored by RequireSession.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey{}).(int64)
	return id, ok
}

// RequireSession enforces a valid session cookie and injects the user id
// into the request context. Requests without a verified identity are
// rejected before reaching the handler.
func RequireSession(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessions.CookieName())
			if err != nil || cookie.Value == "" {
				WriteError(w, http.StatusUnauthorized, "authentication_required", "User not authenticated")
				return
			}

			userID, err := sessions.Parse(cookie.Value)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "authentication_required", "User not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requesterID is a convenience for handlers running behind RequireSession.
func requesterID(r *http.Request) (int64, error) {
	id, ok := UserID(r.Context())
	if !ok {
		return 0, shareline.ErrUnauthorized
	}
	return id, nil
}
