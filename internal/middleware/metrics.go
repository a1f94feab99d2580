// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpLabels = []string{"method", "route", "status"}

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fredproxy_http_requests_total",
		Help: "HTTP requests served, by method, route pattern and status",
	}, httpLabels)

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "fredproxy_http_request_duration_seconds",
		Help: "HTTP request latencies in seconds, including the upstream fetch",
		// The upstream client times out at 30s by default.
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, httpLabels)

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fredproxy_http_requests_in_flight",
		Help: "HTTP requests currently being served",
	})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fredproxy_http_response_size_bytes",
		Help:    "HTTP response body sizes in bytes",
		Buckets: prometheus.ExponentialBuckets(64, 4, 8),
	}, httpLabels)

	httpPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fredproxy_http_panics_total",
		Help: "Handler panics turned into 500 responses",
	})
)

// Metrics records request count, latency and response size per chi route
// pattern. Raw paths are never label values.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			labels := prometheus.Labels{
				"method": methodLabel(r.Method),
				"route":  routeLabel(r),
				"status": strconv.Itoa(status),
			}
			httpRequestsTotal.With(labels).Inc()
			httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
			httpResponseSize.With(labels).Observe(float64(ww.BytesWritten()))
		})
	}
}

// methodLabel folds non-standard methods into "OTHER"; the proxy route
// accepts any method.
func methodLabel(m string) string {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodOptions, http.MethodConnect, http.MethodTrace:
		return m
	default:
		return "OTHER"
	}
}

func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
