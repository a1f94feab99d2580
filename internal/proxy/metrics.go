// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package proxy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomePreflight     = "preflight"
	outcomeForbidden     = "forbidden"
	outcomeBadRequest    = "bad_request"
	outcomeUpstreamError = "upstream_error"
	outcomeWithheld      = "withheld"
	outcomeOK            = "ok"
)

var proxyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fredproxy_proxy_requests_total",
	Help: "Proxy requests by outcome",
}, []string{"outcome"}) // outcome=preflight|forbidden|bad_request|upstream_error|withheld|ok

func recordOutcome(outcome string) {
	proxyRequestsTotal.WithLabelValues(outcome).Inc()
}
