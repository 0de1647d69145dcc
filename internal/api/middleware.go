package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Context keys
type contextKey string

const (
	contextKeyEmail contextKey = "email"
)

// AuthMiddleware validates bearer or cookie session tokens
func AuthMiddleware(deps *Dependencies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string

			// Check cookie first
			if cookie, err := r.Cookie("session"); err == nil {
				token = cookie.Value
			}

			// Check Authorization header as fallback
			if token == "" {
				authHeader := r.Header.Get("Authorization")
				if strings.HasPrefix(authHeader, "Bearer ") {
					token = strings.TrimPrefix(authHeader, "Bearer ")
				}
			}

			if token == "" {
				WriteError(w, http.StatusUnauthorized, ErrCodeAuthentication, "Authentication required", nil)
				return
			}

			claims, err := deps.Auth.Verify(token, time.Now())
			if err != nil {
				WriteError(w, http.StatusUnauthorized, ErrCodeAuthentication, "Invalid or expired session", nil)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyEmail, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetEmailFromContext retrieves the authenticated user's email from context
func GetEmailFromContext(ctx context.Context) string {
	email, ok := ctx.Value(contextKeyEmail).(string)
	if !ok {
		return ""
	}
	return email
}

// originAllowed reports whether the request Origin may obtain telephony
// credentials. Local development hosts are always allowed alongside the
// configured site URL; a request without an Origin header is treated as
// same-origin.
func originAllowed(r *http.Request, siteURL string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" {
		return true
	}

	if siteURL == "" {
		return false
	}
	site, err := url.Parse(siteURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(host, site.Hostname())
}
