package middleware

import (
	"net/http"
	"strings"
)

// CORS allows browser calls from the configured origins
type CORS struct {
	allowedOrigins map[string]struct{}
	allowAll       bool
	allowedMethods string
}

// NewCORS creates a CORS middleware; "*" allows every origin
func NewCORS(origins []string) *CORS {
	c := &CORS{
		allowedOrigins: make(map[string]struct{}, len(origins)),
		allowedMethods: strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}, ", "),
	}
	for _, origin := range origins {
		if origin == "*" {
			c.allowAll = true
		}
		c.allowedOrigins[origin] = struct{}{}
	}
	return c
}

// Allowed reports whether the origin may call the API
func (c *CORS) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	if c.allowAll {
		return true
	}
	_, ok := c.allowedOrigins[origin]
	return ok
}

// Process implements middleware processing
func (c *CORS) Process(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if c.Allowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", c.allowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept-Language, X-Request-ID")
			// Credentials only for explicitly listed origins
			if !c.allowAll {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Add("Vary", "Origin")
		}

		// Preflight requests never reach the router
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
