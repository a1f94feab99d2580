// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name   string
	status Status
	calls  int
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) Check(_ context.Context) CheckResult {
	s.calls++
	return CheckResult{Status: s.status, Message: s.name + " checked"}
}

// brokenWriter fails every body write.
type brokenWriter struct {
	header http.Header
}

func (w *brokenWriter) Header() http.Header       { return w.header }
func (w *brokenWriter) Write([]byte) (int, error) { return 0, assert.AnError }
func (w *brokenWriter) WriteHeader(int)           {}

func TestHealth_NonVerboseSkipsCheckers(t *testing.T) {
	m := NewManager("v1.2.3")
	sick := &stubChecker{name: "sick", status: StatusUnhealthy}
	m.RegisterChecker(sick)

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.2.3", resp.Version)
	assert.Nil(t, resp.Checks)
	assert.Zero(t, sick.calls)
}

func TestHealth_VerboseAggregatesWorstStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"none", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy beats degraded", []Status{StatusUnhealthy, StatusDegraded}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("v")
			for i, s := range tt.statuses {
				m.RegisterChecker(&stubChecker{name: string(rune('a' + i)), status: s})
			}
			resp := m.Health(context.Background(), true)
			assert.Equal(t, tt.want, resp.Status)
			assert.Len(t, resp.Checks, len(tt.statuses))
		})
	}
}

func TestHealth_Uptime(t *testing.T) {
	m := NewManager("v")
	m.now = func() time.Time { return m.startedAt.Add(90 * time.Second) }

	resp := m.Health(context.Background(), false)
	assert.Equal(t, int64(90), resp.Uptime)
	assert.Equal(t, m.startedAt.Add(90*time.Second), resp.Timestamp)
}

func TestReady(t *testing.T) {
	tests := []struct {
		status    Status
		wantReady bool
		wantCode  int
	}{
		{StatusHealthy, true, http.StatusOK},
		{StatusDegraded, true, http.StatusOK},
		{StatusUnhealthy, false, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			m := NewManager("v")
			m.RegisterChecker(&stubChecker{name: "component", status: tt.status})

			w := httptest.NewRecorder()
			m.ServeReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

			var resp ReadinessResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, "component checked", resp.Checks["component"].Message)
		})
	}
}

func TestReady_NoCheckers(t *testing.T) {
	resp := NewManager("v").Ready(context.Background())
	assert.True(t, resp.Ready)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)
}

func TestServeHealth(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&stubChecker{name: "upstream_credential", status: StatusUnhealthy})

	w := httptest.NewRecorder()
	m.ServeHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)

	// Liveness stays 200 even when a component is unhealthy.
	w = httptest.NewRecorder()
	m.ServeHealth(w, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Len(t, resp.Checks, 1)
}

func TestServe_EncodingErrorDoesNotPanic(t *testing.T) {
	m := NewManager("v")
	assert.NotPanics(t, func() {
		m.ServeHealth(&brokenWriter{header: make(http.Header)}, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		m.ServeReady(&brokenWriter{header: make(http.Header)}, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	})
}

func TestCredentialChecker(t *testing.T) {
	configured := false
	checker := NewCredentialChecker(func() bool { return configured })
	assert.Equal(t, "upstream_credential", checker.Name())
	assert.Equal(t, StatusUnhealthy, checker.Check(context.Background()).Status)

	configured = true
	assert.Equal(t, StatusHealthy, checker.Check(context.Background()).Status)

	assert.Equal(t, StatusUnhealthy, NewCredentialChecker(nil).Check(context.Background()).Status)
}

func TestCredentialChecker_GatesReadiness(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(NewCredentialChecker(func() bool { return false }))

	w := httptest.NewRecorder()
	m.ServeReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "FRED API key not configured")
}

func TestReloadChecker(t *testing.T) {
	tests := []struct {
		name       string
		at         time.Time
		lastError  string
		wantStatus Status
		wantMsg    string
	}{
		{"never reloaded", time.Time{}, "", StatusHealthy, "initial configuration"},
		{"reload ok", time.Now(), "", StatusHealthy, "last reload applied"},
		{"reload failed", time.Now(), "cors.mode invalid", StatusDegraded, "serving previous configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewReloadChecker(func() (time.Time, string) {
				return tt.at, tt.lastError
			})
			assert.Equal(t, "config_reload", checker.Name())

			result := checker.Check(context.Background())
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Contains(t, result.Message, tt.wantMsg)
			assert.Equal(t, tt.lastError, result.Error)
		})
	}
}
