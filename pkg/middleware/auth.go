package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKeyType string

const adminIDKey contextKeyType = "admin_id"

// Claims represents the JWT claims extracted by the auth middleware.
type Claims struct {
	AdminID string `json:"admin_id"`
	Email   string `json:"email"`
}

// TokenValidator validates a JWT token and returns its claims. The concrete
// validation logic is injected so this package stays free of signing details.
type TokenValidator func(token string) (*Claims, error)

// Auth middleware validates bearer tokens and injects admin claims into
// context. Tokens are read from the Authorization header, falling back to the
// "token" cookie set by the login endpoint.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeAuthError(w, "missing authentication token")
				return
			}

			claims, err := validate(token)
			if err != nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), adminIDKey, claims.AdminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

// AdminIDFromContext extracts the authenticated admin ID from the request context.
func AdminIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(adminIDKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
		"error":   message,
	})
}
