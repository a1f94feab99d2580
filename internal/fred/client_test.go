// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fred

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const testKey = "s3cr3t-key-value"

func newUpstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestObservationsURL_Params(t *testing.T) {
	c := NewClient("https://api.example.test/fred/", testKey)

	u, err := c.ObservationsURL(ObservationsQuery{SeriesID: "GDP"})
	require.NoError(t, err)

	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "api.example.test", u.Host)
	assert.Equal(t, "/fred/series/observations", u.Path)

	q := u.Query()
	assert.Equal(t, "GDP", q.Get(ParamSeriesID))
	assert.Equal(t, testKey, q.Get(ParamAPIKey))
	assert.Equal(t, "json", q.Get(ParamFileType))
	assert.Equal(t, "desc", q.Get(ParamSortOrder))
	assert.Equal(t, DefaultLimit, q.Get(ParamLimit))
	assert.False(t, q.Has(ParamObservationStart))
	assert.False(t, q.Has(ParamObservationEnd))
}

func TestObservationsURL_OptionalParams(t *testing.T) {
	c := NewClient("", testKey)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	u, err := c.ObservationsURL(ObservationsQuery{
		SeriesID:         "UNRATE",
		Limit:            "5",
		ObservationStart: "2020-01-01",
		ObservationEnd:   "2020-12-31",
	})
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "5", q.Get(ParamLimit))
	assert.Equal(t, "2020-01-01", q.Get(ParamObservationStart))
	assert.Equal(t, "2020-12-31", q.Get(ParamObservationEnd))
	assert.Len(t, q[ParamAPIKey], 1)
}

func TestObservationsURL_MissingSeriesID(t *testing.T) {
	c := NewClient("", testKey)
	_, err := c.ObservationsURL(ObservationsQuery{Limit: "5"})
	assert.ErrorIs(t, err, ErrMissingSeriesID)
}

func TestQueryFromValues_IgnoresCallerAPIKey(t *testing.T) {
	in, err := url.ParseQuery("series_id=GDP&api_key=attacker&limit=3")
	require.NoError(t, err)

	c := NewClient("", testKey)
	u, err := c.ObservationsURL(QueryFromValues(in))
	require.NoError(t, err)

	assert.Equal(t, []string{testKey}, u.Query()[ParamAPIKey])
	assert.Equal(t, "3", u.Query().Get(ParamLimit))
}

func TestObservations_Success(t *testing.T) {
	var gotQuery url.Values
	var gotPath string
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":1,"observations":[{"date":"2024-01-01","value":"1.0"}]}`))
	})

	c := NewClient(srv.URL, testKey)
	obs, err := c.Observations(context.Background(), ObservationsQuery{SeriesID: "GDP"})
	require.NoError(t, err)

	assert.JSONEq(t, `[{"date":"2024-01-01","value":"1.0"}]`, string(obs))
	assert.Equal(t, observationsPath, gotPath)
	assert.Equal(t, testKey, gotQuery.Get(ParamAPIKey))
	assert.Equal(t, "GDP", gotQuery.Get(ParamSeriesID))
}

func TestObservations_SingleUpstreamCall(t *testing.T) {
	var calls atomic.Int32
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`not json`))
	})

	c := NewClient(srv.URL, testKey)
	_, err := c.Observations(context.Background(), ObservationsQuery{SeriesID: "GDP"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestObservations_EmptyCases(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"absent", `{"count":0}`},
		{"null", `{"observations":null}`},
		{"false", `{"observations":false}`},
		{"zero", `{"observations":0}`},
		{"empty string", `{"observations":""}`},
		{"array document", `[1,2,3]`},
		{"string document", `"hello"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			c := NewClient(srv.URL, testKey)
			obs, err := c.Observations(context.Background(), ObservationsQuery{SeriesID: "GDP"})
			require.NoError(t, err)
			assert.Equal(t, "[]", string(obs))
		})
	}
}

func TestObservations_NonArrayRelayed(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"observations":{"a":1}}`))
	})
	c := NewClient(srv.URL, testKey)
	obs, err := c.Observations(context.Background(), ObservationsQuery{SeriesID: "GDP"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(obs))
}

func TestObservations_UpstreamErrorStatusRelayed(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":400,"error_message":"Bad Request. The series does not exist."}`))
	})
	c := NewClient(srv.URL, testKey)
	obs, err := c.Observations(context.Background(), ObservationsQuery{SeriesID: "NOPE"})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(obs))
}

func TestObservations_BadResponse(t *testing.T) {
	for _, body := range []string{`<html>oops</html>`, `null`, ``} {
		srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		c := NewClient(srv.URL, testKey)
		_, err := c.Observations(context.Background(), ObservationsQuery{SeriesID: "GDP"})
		require.Error(t, err, "body %q", body)
		assert.ErrorIs(t, err, ErrBadResponse)

		var uerr *UpstreamError
		require.True(t, errors.As(err, &uerr))
		assert.Equal(t, "series.observations", uerr.Operation)
		assert.Equal(t, http.StatusOK, uerr.Status)
	}
}

func TestObservations_TransportErrorRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	var logBuf bytes.Buffer
	logger := zerolog.New(&logBuf)

	c := NewClient(base, testKey, WithLogger(logger))
	_, err := c.Observations(context.Background(), ObservationsQuery{SeriesID: "GDP"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	assert.NotContains(t, err.Error(), testKey)
	assert.Contains(t, err.Error(), "api_key="+redacted)
	assert.NotContains(t, logBuf.String(), testKey)
	assert.Contains(t, logBuf.String(), "upstream.failed")
}

func TestObservations_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c := NewClient(srv.URL, testKey, WithTimeout(50*time.Millisecond))
	_, err := c.Observations(context.Background(), ObservationsQuery{SeriesID: "GDP"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotContains(t, err.Error(), testKey)
}

func TestObservations_RecordsMetrics(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"observations":[]}`))
	})

	before := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues(outcomeSuccess))
	c := NewClient(srv.URL, testKey)
	_, err := c.Observations(context.Background(), ObservationsQuery{SeriesID: "GDP"})
	require.NoError(t, err)

	after := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues(outcomeSuccess))
	assert.Equal(t, before+1, after)
}

func TestDecodeObservations_Compacts(t *testing.T) {
	obs, err := decodeObservations([]byte("  {\"observations\": [ 1, 2 ]}\n"))
	require.NoError(t, err)

	out, err := json.Marshal(map[string]json.RawMessage{"observations": obs})
	require.NoError(t, err)
	assert.Equal(t, `{"observations":[1,2]}`, string(out))
}

func TestRedactURL(t *testing.T) {
	got := RedactURL("https://user:pw@api.example.test/fred/series/observations?api_key=" + testKey + "&series_id=GDP")
	assert.NotContains(t, got, testKey)
	assert.NotContains(t, got, "pw")
	assert.Contains(t, got, "api_key="+redacted)
	assert.Contains(t, got, "series_id=GDP")

	assert.Equal(t, "https://api.example.test/x?a=b", RedactURL("https://api.example.test/x?a=b"))
	assert.Equal(t, "invalid-url-redacted", RedactURL("http://[::1"))
}

func TestExposes(t *testing.T) {
	c := NewClient("", testKey)
	assert.True(t, c.Exposes([]byte(`{"x":"`+testKey+`"}`)))
	assert.False(t, c.Exposes([]byte(`{"x":"other"}`)))

	assert.False(t, NewClient("", "").Exposes([]byte("anything")))
}

func TestObservations_SpanCarriesRedactedURL(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"observations":[]}`))
	})

	c := NewClient(srv.URL, testKey)
	_, err := c.Observations(context.Background(), ObservationsQuery{SeriesID: "GDP"})
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Contains(t, attrs["url.full"], "api_key="+redacted)
	assert.NotContains(t, attrs["url.full"], testKey)
	assert.Equal(t, "GDP", attrs["fred.series_id"])
	assert.Equal(t, "502", attrs["http.response.status_code"])
}
