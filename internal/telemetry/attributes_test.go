// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func attrMap(kvs ...attribute.KeyValue) map[string]any {
	m := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}

func TestUpstreamRequest(t *testing.T) {
	got := attrMap(UpstreamRequest("GET", "https://api.example/fred?api_key=REDACTED", "GDP")...)
	assert.Equal(t, map[string]any{
		"http.request.method": "GET",
		"url.full":            "https://api.example/fred?api_key=REDACTED",
		"fred.series_id":      "GDP",
	}, got)
}

func TestUpstreamStatus(t *testing.T) {
	assert.Equal(t, map[string]any{"http.response.status_code": int64(502)}, attrMap(UpstreamStatus(502)))
}

func TestCORSDecision(t *testing.T) {
	got := attrMap(CORSDecision("allow-list", "allowed")...)
	assert.Equal(t, "allow-list", got["cors.mode"])
	assert.Equal(t, "allowed", got["cors.outcome"])
}

func TestSeries(t *testing.T) {
	assert.Nil(t, Series(""))
	assert.Equal(t, map[string]any{"fred.series_id": "UNRATE"}, attrMap(Series("UNRATE")...))
}

func TestFailure(t *testing.T) {
	assert.Equal(t, map[string]any{"error.type": "transport"}, attrMap(Failure("transport")))
}
