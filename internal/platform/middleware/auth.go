package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the validator. Address is
// the on-ledger account the token holder acts as.
type JWTClaims struct {
	Address string
}

type contextKeyAddress struct{}

// ContextKeyAddress is exported for use in handlers and tests.
var ContextKeyAddress = contextKeyAddress{}

// GetCallerAddress retrieves the authenticated account address from the
// context. Empty when auth is disabled.
func GetCallerAddress(ctx context.Context) string {
	address, ok := ctx.Value(ContextKeyAddress).(string)
	if !ok {
		return ""
	}
	return address
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token's account address in the request context. Handlers still check that
// the address matches the acting party of the request body.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(r.Context(), "unauthorized access - missing token",
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyAddress, claims.Address)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
