// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LogsRequestWithoutQuery(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf, Level: "debug"})
	t.Cleanup(func() { Configure(Config{}) })

	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/obs?series_id=GDP&api_key=leak", nil)
	req.Header.Set("Origin", "https://example.com")
	req = req.WithContext(ContextWithRequestID(req.Context(), "rid-1"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)
	assert.NotContains(t, line, "leak")
	assert.NotContains(t, line, "series_id=GDP")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "request.handled", entry[FieldEvent])
	assert.Equal(t, "/obs", entry[FieldPath])
	assert.Equal(t, float64(http.StatusTeapot), entry[FieldStatus])
	assert.Equal(t, float64(len("short and stout")), entry[FieldBytes])
	assert.Equal(t, "rid-1", entry[FieldRequestID])
	assert.Equal(t, "https://example.com", entry[FieldOrigin])
	assert.Equal(t, "warn", entry["level"])
}
