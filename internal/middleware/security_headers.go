// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import "net/http"

// DefaultCSP forbids everything: the proxy only ever serves JSON and text.
const DefaultCSP = "default-src 'none'; frame-ancestors 'none'"

// securityHeaders never touch Access-Control-*; those belong to the proxy.
// Cross-Origin-Resource-Policy stays cross-origin so the site can read
// responses it was granted through CORS.
var securityHeaders = [][2]string{
	{"Content-Security-Policy", DefaultCSP},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Cross-Origin-Resource-Policy", "cross-origin"},
}

// SecurityHeaders sets the fixed hardening headers before the handler runs.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}
