// Package api implements the crate ingestion REST API using chi.
package api

import (
	"net/http"
	"path"
	"strings"
)

// DefaultAllowedOrigins admits browser clients served from any localhost
// port, where notebook front ends usually run.
var DefaultAllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}

// CORSMiddleware returns middleware that answers cross-origin requests from
// origins matching one of patterns ("*" matches within a path element, so
// "http://localhost:*" admits every port). Preflight requests from allowed
// origins are answered with 204; disallowed ones pass through without CORS
// headers and are left to the browser to reject.
func CORSMiddleware(patterns []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !originAllowed(patterns, origin) {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
					h.Set("Access-Control-Allow-Headers", req)
				}
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(patterns []string, origin string) bool {
	origin = strings.ToLower(origin)
	for _, p := range patterns {
		if p == "*" || p == origin {
			return true
		}
		if ok, err := path.Match(p, origin); err == nil && ok {
			return true
		}
	}
	return false
}
