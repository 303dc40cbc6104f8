// Package auth provides bearer-token authentication middleware.
//
// The middleware resolves the caller's identity and stores it in the request
// context. Handlers read it with CallerID and pass it explicitly into
// service operations; services never consult the context for identity.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/requestcontext"
)

// Claims represents the validated identity claims the middleware needs.
type Claims struct {
	UserID id.UserID
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

type callerIDKey struct{}

// CallerID retrieves the authenticated caller from the context. Returns the
// zero value if the request was not authenticated.
func CallerID(ctx context.Context) id.UserID {
	if v, ok := ctx.Value(callerIDKey{}).(id.UserID); ok {
		return v
	}
	return id.UserID{}
}

// WithCallerID injects a caller identity into the context. Useful for
// handler tests that don't run the middleware chain.
func WithCallerID(ctx context.Context, callerID id.UserID) context.Context {
	return context.WithValue(ctx, callerIDKey{}, callerID)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller identity in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			if claims.UserID.IsNil() {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Token carries no subject")
				return
			}

			ctx := WithCallerID(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
