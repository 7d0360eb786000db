package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

// analystContextKey is the key used to store analyst claims in context.
const analystContextKey contextKey = "analyst"

// Middleware rejects requests without a valid bearer token and stores the
// claims in the request context.
func Middleware(service Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := service.ValidateToken(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), analystContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext retrieves analyst claims from a request context.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(analystContextKey).(*Claims)
	return claims, ok
}

// extractToken extracts the JWT from the Authorization header.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
