// Package middleware holds the HTTP middleware flipit installs ahead of its
// routes: the access log and CORS.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type accessKey struct{}

// accessEntry collects fields that are only known deeper in the chain.
// Logger owns it; inner middleware fills it through SetUserID.
type accessEntry struct {
	userID string
}

// SetUserID records the authenticated user on the access log line of the
// request carrying ctx. It does nothing when Logger is not installed.
func SetUserID(ctx context.Context, userID string) {
	if e, ok := ctx.Value(accessKey{}).(*accessEntry); ok {
		e.userID = userID
	}
}

// Logger writes one "request completed" line per request.
//
// Besides method, path, status, duration and bytes, the line carries:
//   - route: the matched chi pattern, e.g. /api/sets/{setID}/cards, so
//     requests for different sets group together ("" when nothing matched)
//   - user_id: set by auth.RequireBearer, empty on public routes and on
//     rejected tokens
//   - request_id: from chi's RequestID middleware when it runs first
//
// 5xx responses are logged at ERROR, everything else at INFO.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := &accessEntry{}
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			ctx := context.WithValue(r.Context(), accessKey{}, entry)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			// chi fills the route context in place, so the pattern is
			// complete once the handler has returned.
			var route string
			if rctx := chi.RouteContext(ctx); rctx != nil {
				route = rctx.RoutePattern()
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(ctx, level, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", ww.BytesWritten()),
				slog.String("user_id", entry.userID),
				slog.String("request_id", chimiddleware.GetReqID(ctx)),
			)
		})
	}
}
