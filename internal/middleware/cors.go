package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	corsHeaders = []string{"Content-Type", "Authorization"}
)

// CORS opens the API to browser clients on any origin.
//
// Three behaviours, in order:
//  1. Every response carries "Access-Control-Allow-Origin: *", including
//     errors and requests without an Origin header.
//  2. Real preflights (OPTIONS + Access-Control-Request-Method) are
//     negotiated by go-chi/cors.
//  3. Every OPTIONS request, preflight or not and whatever the path, is
//     answered here with 200 and an empty body. It never reaches the router,
//     so it never needs a token.
func CORS() func(http.Handler) http.Handler {
	negotiate := cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     corsMethods,
		AllowedHeaders:     corsHeaders,
		OptionsPassthrough: true,
	})

	allowMethods := strings.Join(corsMethods, ", ")
	allowHeaders := strings.Join(corsHeaders, ", ")

	return func(next http.Handler) http.Handler {
		inner := negotiate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			if h.Get("Access-Control-Allow-Methods") == "" {
				h.Set("Access-Control-Allow-Methods", allowMethods)
			}
			if h.Get("Access-Control-Allow-Headers") == "" {
				h.Set("Access-Control-Allow-Headers", allowHeaders)
			}
			w.WriteHeader(http.StatusOK)
		}))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			inner.ServeHTTP(w, r)
		})
	}
}
