// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lyle-ventures/fredproxy/internal/middleware"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// OpenAPIDocument returns the embedded OpenAPI 3 document.
func OpenAPIDocument() []byte {
	return append([]byte(nil), openAPIDocument...)
}

func (s *Server) routes() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.tracingService,
		EnableLogging:         true,
	})

	s.registerSystemRoutes(r)
	s.registerProxyRoutes(r)

	return r
}

// registerSystemRoutes mounts the probes and the API description.
func (s *Server) registerSystemRoutes(r chi.Router) {
	r.Get("/healthz", s.healthManager.ServeHealth)
	r.Get("/readyz", s.healthManager.ServeReady)
	r.Get("/openapi.yaml", handleOpenAPI)
}

// registerProxyRoutes sends every other path and method to the proxy.
func (s *Server) registerProxyRoutes(r chi.Router) {
	r.Handle("/", s.proxy)
	r.Handle("/*", s.proxy)
}

func handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIDocument)
}
