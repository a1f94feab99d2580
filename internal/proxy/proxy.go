// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package proxy implements the browser-facing FRED edge proxy handler.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/lyle-ventures/fredproxy/internal/cors"
	"github.com/lyle-ventures/fredproxy/internal/fred"
	xglog "github.com/lyle-ventures/fredproxy/internal/log"
	"github.com/lyle-ventures/fredproxy/internal/telemetry"
)

// Fixed response bodies. Upstream detail is never surfaced to the caller.
const (
	bodyForbidden       = "Forbidden"
	bodyMissingSeriesID = `{"error":"Missing series_id parameter"}`
	bodyUpstreamFailed  = `{"error":"Failed to fetch from FRED API"}`

	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
)

// Upstream fetches observations for one series.
type Upstream interface {
	Observations(ctx context.Context, q fred.ObservationsQuery) (json.RawMessage, error)
	// Exposes reports whether body contains the upstream credential.
	Exposes(body []byte) bool
}

// Settings is the per-deployment handler configuration. A Settings value is
// never mutated once handed to a Handler; reloads replace it whole.
type Settings struct {
	Policy cors.Policy
	// CacheControl is set on every non-preflight response when non-empty.
	CacheControl string
}

// Config holds the configuration for the proxy handler.
type Config struct {
	Upstream Upstream
	Settings Settings
	Logger   zerolog.Logger
}

// Handler answers preflights, enforces the origin policy and relays
// observations from the upstream.
type Handler struct {
	upstream Upstream
	settings atomic.Pointer[Settings]
	logger   zerolog.Logger
}

// New creates a new proxy handler.
func New(cfg Config) (*Handler, error) {
	if cfg.Upstream == nil {
		return nil, fmt.Errorf("upstream is required")
	}
	h := &Handler{
		upstream: cfg.Upstream,
		logger:   cfg.Logger,
	}
	h.Apply(cfg.Settings)
	return h, nil
}

// Apply atomically replaces the handler settings. In-flight requests keep
// the snapshot they started with.
func (h *Handler) Apply(s Settings) {
	snapshot := s
	h.settings.Store(&snapshot)
}

// Settings returns the current settings snapshot.
func (h *Handler) Settings() Settings {
	return *h.settings.Load()
}

// ServeHTTP handles every method on every path.
// Chain: preflight -> origin check -> series_id -> upstream.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := h.settings.Load()
	origin := r.Header.Get("Origin")
	span := trace.SpanFromContext(r.Context())
	logger := xglog.WithContext(r.Context(), h.logger)

	if r.Method == http.MethodOptions {
		s.Policy.ApplyPreflight(w.Header(), origin)
		w.WriteHeader(http.StatusNoContent)
		span.SetAttributes(telemetry.CORSDecision(string(s.Policy.Mode()), corsOutcome(s.Policy, origin))...)
		recordOutcome(outcomePreflight)
		return
	}

	if !s.Policy.Permits(origin) {
		logger.Info().
			Str(xglog.FieldEvent, "origin.rejected").
			Str(xglog.FieldOrigin, origin).
			Msg("origin not in allow-list")
		span.SetAttributes(telemetry.CORSDecision(string(s.Policy.Mode()), "rejected")...)
		w.Header().Set("Content-Type", contentTypeText)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(bodyForbidden))
		recordOutcome(outcomeForbidden)
		return
	}

	hdr := w.Header()
	s.Policy.Apply(hdr, origin)
	if s.CacheControl != "" {
		hdr.Set("Cache-Control", s.CacheControl)
	}
	hdr.Set("Content-Type", contentTypeJSON)

	q := fred.QueryFromValues(r.URL.Query())
	span.SetAttributes(telemetry.CORSDecision(string(s.Policy.Mode()), corsOutcome(s.Policy, origin))...)
	span.SetAttributes(telemetry.Series(q.SeriesID)...)
	if q.SeriesID == "" {
		writeBody(w, http.StatusBadRequest, []byte(bodyMissingSeriesID))
		recordOutcome(outcomeBadRequest)
		return
	}

	obs, err := h.upstream.Observations(r.Context(), q)
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "upstream.error").
			Str(xglog.FieldSeriesID, q.SeriesID).
			Msg("failed to fetch observations")
		span.SetAttributes(telemetry.Failure(errorType(err)))
		span.RecordError(err)
		writeBody(w, http.StatusInternalServerError, []byte(bodyUpstreamFailed))
		recordOutcome(outcomeUpstreamError)
		return
	}

	body, err := encodeResult(q.SeriesID, obs)
	if err != nil || h.upstream.Exposes(body) {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "response.withheld").
			Str(xglog.FieldSeriesID, q.SeriesID).
			Msg("response withheld")
		writeBody(w, http.StatusInternalServerError, []byte(bodyUpstreamFailed))
		recordOutcome(outcomeWithheld)
		return
	}

	writeBody(w, http.StatusOK, body)
	recordOutcome(outcomeOK)
}

type result struct {
	SeriesID     string          `json:"series_id"`
	Observations json.RawMessage `json:"observations"`
}

// encodeResult renders the success body without HTML escaping or a trailing newline.
func encodeResult(seriesID string, obs json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result{SeriesID: seriesID, Observations: obs}); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func corsOutcome(p cors.Policy, origin string) string {
	switch {
	case origin == "":
		return "no_origin"
	case p.Mode() == cors.ModeAllowAll:
		return "wildcard"
	default:
		if _, ok := p.AllowOrigin(origin); ok {
			return "allowed"
		}
		return "rejected"
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, fred.ErrBadResponse):
		return "bad_response"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, fred.ErrTransport):
		return "transport"
	default:
		return "internal"
	}
}
