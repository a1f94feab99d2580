// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package middleware holds the ingress middleware shared by every route.
// CORS is deliberately absent: the proxy handler applies its own origin policy.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	xglog "github.com/lyle-ventures/fredproxy/internal/log"
)

// StackConfig switches the optional layers. Recoverer and RequestID are
// always installed.
type StackConfig struct {
	EnableSecurityHeaders bool
	EnableMetrics         bool
	// TracingService names the server span; empty disables tracing.
	TracingService string
	EnableLogging  bool
}

// Middlewares returns the stack outermost first.
func (c StackConfig) Middlewares() []func(http.Handler) http.Handler {
	mws := []func(http.Handler) http.Handler{Recoverer, RequestID}
	if c.EnableSecurityHeaders {
		mws = append(mws, SecurityHeaders)
	}
	if c.EnableMetrics {
		mws = append(mws, Metrics())
	}
	if c.TracingService != "" {
		mws = append(mws, OTelHTTP(c.TracingService))
	}
	// Innermost, so the access log sees the final status and full latency.
	if c.EnableLogging {
		mws = append(mws, xglog.Middleware())
	}
	return mws
}

// NewRouter returns a chi router with the stack installed.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(cfg.Middlewares()...)
	return r
}
