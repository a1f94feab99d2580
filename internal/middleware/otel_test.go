// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestShouldTrace(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"/healthz", "/readyz", "/metrics", "/openapi.yaml"} {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		assert.False(t, shouldTrace(req), "expected shouldTrace to skip %s", p)
	}

	for _, p := range []string{"/", "/series", "/healthz/extra"} {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		assert.True(t, shouldTrace(req), "expected shouldTrace to trace %s", p)
	}
}

func TestSpanName(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/any/path?series_id=GDP&limit=5", nil)
	assert.Equal(t, "GET /*", spanName("fredproxy", req))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	assert.Equal(t, "OPTIONS /*", spanName("fredproxy", req))
}

func TestOTelHTTP_RecordsServerSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	r := NewRouter(StackConfig{TracingService: "fredproxy"})
	r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/?series_id=GDP", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /*", ended[0].Name())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", ended[0].SpanContext().TraceID().String())
}
