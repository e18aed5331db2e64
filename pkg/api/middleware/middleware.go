package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	authproviders "github.com/partyline/whispered/pkg/auth/providers"
	"github.com/partyline/whispered/pkg/log"
)

type ContextKey int

const (
	// ActorContextKey is the key used to store the authenticated player
	// identity in the request context
	ActorContextKey ContextKey = iota
)

func NewAuthMiddleware(authProvider authproviders.AuthProvider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearerToken, err := parseBearerToken(r)
			if err != nil {
				log.Error("failed to parse bearer token: %v", err)
				http.Error(w, "failed to parse bearer token", http.StatusUnauthorized)
				return
			}

			identity, err := authProvider.VerifyToken(r.Context(), bearerToken)
			if err != nil {
				log.Error("failed to verify ID token: %v", err)
				http.Error(w, "failed to verify ID token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ActorContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorUID returns the authenticated player UID from the request context.
func ActorUID(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(ActorContextKey).(*authproviders.Identity)
	if !ok {
		return "", false
	}
	return identity.UID, true
}

// parseBearerToken parses the bearer token from the Authorization header
func parseBearerToken(r *http.Request) (string, error) {
	// Get the Authorization header value
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is missing")
	}

	// Check if the Authorization header has the Bearer scheme
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	// Return the token part
	return parts[1], nil
}
