// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fred fetches series observations from the FRED economic-data API.
package fred

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	xglog "github.com/lyle-ventures/fredproxy/internal/log"
	"github.com/lyle-ventures/fredproxy/internal/telemetry"
	"github.com/lyle-ventures/fredproxy/internal/version"
)

const (
	// DefaultBaseURL is the public FRED API root.
	DefaultBaseURL = "https://api.stlouisfed.org/fred"
	// DefaultTimeout bounds one upstream fetch.
	DefaultTimeout = 30 * time.Second

	observationsPath = "/series/observations"
	maxBodyBytes     = 8 << 20
)

var emptyObservations = json.RawMessage("[]")

// Client fetches observations from a fixed upstream base URL using a
// server-side API key.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
	logger zerolog.Logger
	tracer trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a FRED client. baseURL is expected to be validated
// already (see netutil.ValidateUpstreamURL); an empty value selects DefaultBaseURL.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		base:   base,
		apiKey: apiKey,
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: xglog.WithComponent("fred"),
		tracer: telemetry.Tracer("fredproxy/fred"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the upstream root the client talks to.
func (c *Client) BaseURL() string {
	return c.base
}

// Exposes reports whether b contains the API key.
func (c *Client) Exposes(b []byte) bool {
	return c.apiKey != "" && bytes.Contains(b, []byte(c.apiKey))
}

// ObservationsURL builds the upstream URL for q, including the API key.
// The result must never be logged without RedactURL.
func (c *Client) ObservationsURL(q ObservationsQuery) (*url.URL, error) {
	if q.SeriesID == "" {
		return nil, ErrMissingSeriesID
	}
	u, err := url.Parse(c.base + observationsPath)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base: %w", err)
	}
	u.RawQuery = q.values(c.apiKey).Encode()
	return u, nil
}

// Observations performs exactly one upstream request and returns the raw JSON
// value of the "observations" field, or [] when the field is absent or null.
// The upstream HTTP status is not interpreted: a JSON body is relayed whatever
// the status.
func (c *Client) Observations(ctx context.Context, q ObservationsQuery) (json.RawMessage, error) {
	const op = "series.observations"

	u, err := c.ObservationsURL(q)
	if err != nil {
		return nil, err
	}
	safeURL := redactParsed(u)

	ctx, span := c.tracer.Start(ctx, "GET "+observationsPath,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.UpstreamRequest(http.MethodGet, safeURL, q.SeriesID)...),
	)
	defer span.End()

	logger := xglog.WithContext(ctx, c.logger).With().
		Str(xglog.FieldSeriesID, q.SeriesID).
		Str(xglog.FieldUpstreamURL, safeURL).
		Logger()

	start := time.Now()
	obs, status, ferr := c.fetch(ctx, u)
	observeUpstream(outcomeFor(ferr), time.Since(start))

	if status > 0 {
		span.SetAttributes(telemetry.UpstreamStatus(status))
	}
	if ferr != nil {
		ferr.Operation = op
		span.SetStatus(codes.Error, ferr.Sentinel.Error())
		logger.Warn().
			Err(ferr).
			Str(xglog.FieldEvent, "upstream.failed").
			Int(xglog.FieldUpstreamStatus, status).
			Dur("elapsed", time.Since(start)).
			Msg("upstream request failed")
		return nil, ferr
	}

	evt := logger.Debug()
	if status < 200 || status > 299 {
		evt = logger.Warn()
	}
	evt.
		Str(xglog.FieldEvent, "upstream.fetched").
		Int(xglog.FieldUpstreamStatus, status).
		Dur("elapsed", time.Since(start)).
		Msg("upstream request completed")
	span.SetStatus(codes.Ok, "")
	return obs, nil
}

func (c *Client) fetch(ctx context.Context, u *url.URL) (json.RawMessage, int, *UpstreamError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, &UpstreamError{Sentinel: ErrTransport, Err: redactError(err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	res, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &UpstreamError{Sentinel: ErrTransport, Err: redactError(err)}
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes+1))
	if err != nil {
		return nil, res.StatusCode, &UpstreamError{Sentinel: ErrTransport, Status: res.StatusCode, Err: redactError(err)}
	}
	if len(body) > maxBodyBytes {
		return nil, res.StatusCode, &UpstreamError{
			Sentinel: ErrBadResponse,
			Status:   res.StatusCode,
			Err:      fmt.Errorf("body exceeds %d bytes", maxBodyBytes),
		}
	}

	obs, err := decodeObservations(body)
	if err != nil {
		return nil, res.StatusCode, &UpstreamError{Sentinel: ErrBadResponse, Status: res.StatusCode, Err: err}
	}
	return obs, res.StatusCode, nil
}

// decodeObservations extracts the observations value. Only JSON objects carry
// the field; any other valid JSON document yields an empty list, and a null
// document is rejected.
func decodeObservations(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("response is null")
	}
	if trimmed[0] != '{' {
		return emptyObservations, nil
	}
	var payload struct {
		Observations json.RawMessage `json:"observations"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, err
	}
	if isFalsy(payload.Observations) {
		return emptyObservations, nil
	}
	return payload.Observations, nil
}

// isFalsy reports absent, null, false, 0 and "" values.
func isFalsy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return true
	}
	return false
}
