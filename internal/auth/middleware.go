package auth

import (
	"context"
	"net/http"
	"strings"
)

// SessionCookieName is the HttpOnly cookie carrying the interactive admin
// session token.
const SessionCookieName = "admin_session"

// contextKey is unexported so only this package can read or write the admin
// session in a request context.
type contextKey string

const adminSessionKey contextKey = "adminSession"

// RequireAdmin gates a route subtree behind admin authentication.
//
// Token extraction order:
//  1. the admin_session cookie (browser requests)
//  2. the Authorization: Bearer header, tried first as an interactive
//     session token and then as an API token (scripted clients)
//
// No valid token by either path → 401. A valid token whose role isn't admin
// → 403 (defensive: tokens currently always carry the admin role).
func RequireAdmin(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := extractAdminSession(r, tokens)
			if session == nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "admin authentication required")
				return
			}
			if session.Role != RoleAdmin {
				writeAuthError(w, http.StatusForbidden, "forbidden", "admin access required")
				return
			}

			ctx := context.WithValue(r.Context(), adminSessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFromContext retrieves the verified admin session placed in the
// context by RequireAdmin. Returns (nil, false) on public requests.
func AdminFromContext(ctx context.Context) (*AdminSession, bool) {
	session, ok := ctx.Value(adminSessionKey).(*AdminSession)
	return session, ok && session != nil
}

// ContextWithAdmin attaches an admin session to a context the way
// RequireAdmin does. Handler tests use it to simulate a protected route.
func ContextWithAdmin(ctx context.Context, session *AdminSession) context.Context {
	return context.WithValue(ctx, adminSessionKey, session)
}

// extractAdminSession tries every accepted token transport and returns the
// first session that verifies, or nil.
func extractAdminSession(r *http.Request, tokens *TokenService) *AdminSession {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if session, err := tokens.VerifySession(cookie.Value); err == nil {
			return session
		}
	}

	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && token != "" {
		if session, err := tokens.VerifySession(token); err == nil {
			return session
		}
		if session, err := tokens.VerifyAPIToken(token); err == nil {
			return session
		}
	}

	return nil
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}
