package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/flipit/internal/middleware"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "userID", id), ANY package that knows the string "userID"
// can read or shadow your value. Using a package-private type prevents collisions:
// only THIS package can create a key of type contextKey, so only this package
// can read or write userID values in the context.
type contextKey string

const userIDKey contextKey = "userID"

const bearerPrefix = "Bearer "

// authRequiredBody is the response for a missing or unresolvable token.
// Clients match on the exact "Authentication required" text and log the
// user out, so the message must not change.
const authRequiredBody = `{"error":"Authentication required","code":"forbidden"}`

// RequireBearer is a middleware that enforces authentication on protected routes.
//
// It reads "Authorization: Bearer <token>", resolves the token through the
// given scheme, and stores the userID in the request context. If the header
// is missing, malformed, or the token does not resolve, it returns
// 403 Forbidden and stops the request chain.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler. The new handler "wraps" the original:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	        // ... do stuff after the handler ...
//	    })
//	}
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireBearer(tokens TokenScheme) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := extractUserID(r, tokens)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(authRequiredBody))
				return
			}

			// Store userID in context so handlers can read it, and put it
			// on the access log line.
			middleware.SetUserID(r.Context(), userID)
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request context.
//
// Returns ("", false) if the request did not pass through RequireBearer.
// Returns (id, true) if the user is authenticated.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // not authenticated
//	}
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserID returns a copy of ctx carrying userID, as RequireBearer does.
// Handler tests use it to skip the token round trip.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// extractUserID reads the bearer token and resolves it.
//
// The prefix match is case-sensitive and the token must be non-empty:
// "Bearer" alone, "bearer <id>" and "Token <id>" are all rejected.
func extractUserID(r *http.Request, tokens TokenScheme) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := header[len(bearerPrefix):]
	if token == "" {
		return "", false
	}
	return tokens.Resolve(token)
}
