// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func resetGlobalProvider(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
}

func TestNewProvider_Disabled(t *testing.T) {
	resetGlobalProvider(t)

	p, err := NewProvider(context.Background(), Config{ServiceName: "fredproxy", Exporter: ExporterGRPC})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))

	_, span := Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestNewProvider_DisabledInstallsPropagator(t *testing.T) {
	resetGlobalProvider(t)

	_, err := NewProvider(context.Background(), Config{})
	require.NoError(t, err)
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	resetGlobalProvider(t)

	_, err := NewProvider(context.Background(), Config{Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported trace exporter "zipkin"`)
}

func TestNewProvider_HTTPExporter(t *testing.T) {
	resetGlobalProvider(t)

	p, err := NewProvider(context.Background(), Config{
		Enabled:        true,
		ServiceName:    "fredproxy",
		ServiceVersion: "v-test",
		Exporter:       ExporterHTTP,
		Endpoint:       "127.0.0.1:4318",
		SamplingRate:   1,
	})
	require.NoError(t, err)
	assert.True(t, p.Enabled())

	_, span := Tracer("test").Start(context.Background(), "recorded")
	assert.True(t, span.IsRecording())
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = p.Shutdown(ctx)
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{rate: 1, want: "AlwaysOnSampler"},
		{rate: 2, want: "AlwaysOnSampler"},
		{rate: 0, want: "AlwaysOffSampler"},
		{rate: -1, want: "AlwaysOffSampler"},
		{rate: 0.25, want: "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		desc := Sampler(tt.rate).Description()
		assert.Contains(t, desc, "ParentBased{root:"+tt.want, "rate %v", tt.rate)
	}
}
