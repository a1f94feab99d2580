// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

// proxyRoute is the span route for every path the proxy catch-all serves.
const proxyRoute = "/*"

// untraced are probe and metadata paths that never get a span.
var untraced = map[string]bool{
	"/healthz":      true,
	"/readyz":       true,
	"/metrics":      true,
	"/openapi.yaml": true,
}

// OTelHTTP opens a server span per proxied request, continuing any inbound
// W3C trace context. Inbound requests never carry the API key.
func OTelHTTP(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithTracerProvider(otel.GetTracerProvider()),
			otelhttp.WithPropagators(otel.GetTextMapPropagator()),
			otelhttp.WithFilter(shouldTrace),
			otelhttp.WithSpanNameFormatter(spanName),
		)
	}
}

func shouldTrace(r *http.Request) bool {
	return !untraced[r.URL.Path]
}

// spanName is "<method> /*": the proxy serves any path, so raw paths and
// query values would make span names unbounded.
func spanName(_ string, r *http.Request) string {
	return r.Method + " " + proxyRoute
}
