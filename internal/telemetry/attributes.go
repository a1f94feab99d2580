// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Proxy-specific span attribute keys. HTTP attributes use semconv.
const (
	SeriesIDKey    = attribute.Key("fred.series_id")
	CORSModeKey    = attribute.Key("cors.mode")
	CORSOutcomeKey = attribute.Key("cors.outcome")
)

// UpstreamRequest describes an outbound FRED call. safeURL must already
// have the api_key value redacted.
func UpstreamRequest(method, safeURL, seriesID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(method),
		semconv.URLFull(safeURL),
		SeriesIDKey.String(seriesID),
	}
}

// UpstreamStatus records the status FRED answered with.
func UpstreamStatus(code int) attribute.KeyValue {
	return semconv.HTTPResponseStatusCode(code)
}

// CORSDecision records how the origin policy treated a request.
func CORSDecision(mode, outcome string) []attribute.KeyValue {
	return []attribute.KeyValue{
		CORSModeKey.String(mode),
		CORSOutcomeKey.String(outcome),
	}
}

// Series tags a span with the requested series; empty ids are dropped.
func Series(seriesID string) []attribute.KeyValue {
	if seriesID == "" {
		return nil
	}
	return []attribute.KeyValue{SeriesIDKey.String(seriesID)}
}

// Failure classifies a failed operation with the low-cardinality error.type.
func Failure(kind string) attribute.KeyValue {
	return semconv.ErrorTypeKey.String(kind)
}
