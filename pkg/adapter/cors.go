package adapter

import (
	"net/http"
	"slices"
)

// CORSConfig controls cross-origin response headers. When Enabled is
// false, no CORS headers are emitted at all.
type CORSConfig struct {
	Enabled      bool
	AllowOrigins []string
}

const (
	corsAllowMethods = "GET, POST, PUT, OPTIONS"
	corsAllowHeaders = "*"
	corsMaxAge       = "86400"
)

// allowedOrigin returns the Access-Control-Allow-Origin value for the
// request origin, or "" when the origin is not allowed. A configured "*"
// matches every origin; otherwise the origin must match exactly and is
// echoed back.
func (c CORSConfig) allowedOrigin(origin string) string {
	if !c.Enabled || origin == "" {
		return ""
	}
	if slices.Contains(c.AllowOrigins, "*") {
		return "*"
	}
	if slices.Contains(c.AllowOrigins, origin) {
		return origin
	}
	return ""
}

// corsMiddleware adds CORS headers for allowed origins and short-circuits
// preflight OPTIONS requests with 204.
func corsMiddleware(cfg CORSConfig, next http.Handler) http.Handler {
	if !cfg.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allowed := cfg.allowedOrigin(r.Header.Get("Origin")); allowed != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowed)
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
			if allowed != "*" {
				h.Add("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
