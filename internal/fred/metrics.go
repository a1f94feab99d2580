// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fred

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess     = "success"
	outcomeTransport   = "transport_error"
	outcomeBadResponse = "bad_response"
)

var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fredproxy_upstream_requests_total",
		Help: "FRED upstream requests by outcome",
	}, []string{"outcome"}) // outcome=success|transport_error|bad_response

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fredproxy_upstream_request_duration_seconds",
		Help:    "FRED upstream request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
)

func observeUpstream(outcome string, elapsed time.Duration) {
	upstreamRequestsTotal.WithLabelValues(outcome).Inc()
	upstreamRequestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func outcomeFor(err *UpstreamError) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err.Sentinel, ErrBadResponse):
		return outcomeBadResponse
	default:
		return outcomeTransport
	}
}
