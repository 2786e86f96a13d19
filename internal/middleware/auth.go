package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/pagequest/internal/auth"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/store"
)

// SessionCookieName is the login cookie.
const SessionCookieName = "pagequest_session"

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// RequireAuth validates the session cookie and populates AuthContext.
func RequireAuth(sessionStore *store.SessionStore, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				writeError(w, http.StatusUnauthorized, "session expired")
				return
			}

			user, err := userStore.GetByID(sess.UserID)
			if err != nil || user == nil {
				writeError(w, http.StatusUnauthorized, "session expired")
				return
			}

			ac := auth.FromUser(user)
			ac.SessionID = sess.ID

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose role differs.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := auth.FromContext(r.Context())
			if !ok || ac.Role != role {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireParent checks that the authenticated user is a parent.
func RequireParent(next http.Handler) http.Handler {
	return RequireRole(model.RoleParent)(next)
}

// RequireChild checks that the authenticated user is a child.
func RequireChild(next http.Handler) http.Handler {
	return RequireRole(model.RoleChild)(next)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// RequireDevice authenticates a reading device by bearer token. The
// request then acts as the child the token was issued for.
func RequireDevice(tokenStore *store.DeviceTokenStore, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "device token required")
				return
			}

			tok, err := tokenStore.GetByRawToken(raw)
			if err != nil || tok == nil {
				writeError(w, http.StatusUnauthorized, "unrecognized device")
				return
			}

			child, err := userStore.GetByID(tok.ChildID)
			if err != nil || child == nil {
				writeError(w, http.StatusUnauthorized, "unrecognized device")
				return
			}

			// Best effort; a failed touch must not block the event.
			tokenStore.Touch(tok.ID, time.Now())

			ac := auth.FromUser(child)
			ac.DeviceTokenID = tok.ID

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
