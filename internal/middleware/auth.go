package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health": true,
}

// BearerToken rejects requests whose Authorization header does not carry the
// shared token. An empty token disables the check.
func BearerToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"authorization required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
